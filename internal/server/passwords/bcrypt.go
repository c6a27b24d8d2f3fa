// Package passwords provides the one-way hash and verify primitive used for
// account passwords and for password-reset secrets.
package passwords

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost the service has always hashed with.
const DefaultCost = 10

// ErrInvalidCost is returned when the configured cost is outside bcrypt's range.
var ErrInvalidCost = errors.New("invalid bcrypt cost")

// BcryptHasher hashes secrets with a fixed bcrypt cost. Safe for concurrent use.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher validates cost and returns a hasher.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash returns the encoded bcrypt hash of secret.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. A mismatch is (false, nil);
// a malformed hash is reported as an error.
func (h *BcryptHasher) Verify(hash, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
