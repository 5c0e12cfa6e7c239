// Package auth implements the authentication core: bcrypt password
// hashing, HS256 session tokens, and the bearer-token request guard.
package auth

import "golang.org/x/crypto/bcrypt"

// Hasher produces and verifies salted bcrypt password hashes.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher with the given work factor. Costs outside
// bcrypt's valid range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of the plaintext password.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext password matches the stored hash.
// A malformed stored hash is a verification failure, never a panic.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
