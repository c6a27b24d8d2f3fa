package session

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, client.Tokens{}, got)

	want := client.Tokens{AccessToken: "a1", RefreshToken: "r1"}
	require.NoError(t, s.Save(want))

	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is fine")

	got, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode session")
}
