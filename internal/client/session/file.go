// Package session stores the CLI's token pair on disk between invocations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

// FileStore keeps tokens in a single JSON file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (client.Tokens, error) {
	var t client.Tokens

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read session: %w", err)
	}

	if err := json.Unmarshal(data, &t); err != nil {
		return client.Tokens{}, fmt.Errorf("decode session: %w", err)
	}
	return t, nil
}

func (s *FileStore) Save(t client.Tokens) error {
	if _, err := filex.EnsureDir(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
