package pkgauth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
)

// Credentials checks passwords against bcrypt hashes keyed by username.
// Usernames are case-insensitive.
type Credentials struct {
	hashes map[string]string
	// dummy is compared against for unknown users so both failure paths
	// cost one bcrypt comparison.
	dummy []byte
}

// NewCredentials copies users (username to bcrypt hash).
func NewCredentials(users map[string]string) *Credentials {
	hashes := make(map[string]string, len(users))
	cost := bcrypt.MinCost
	for name, hash := range users {
		hashes[strings.ToLower(name)] = hash
		if c, err := bcrypt.Cost([]byte(hash)); err == nil && c > cost {
			cost = c
		}
	}

	//nolint:errcheck // cost is within range and the password is short
	dummy, _ := bcrypt.GenerateFromPassword([]byte("no such user"), cost)

	return &Credentials{hashes: hashes, dummy: dummy}
}

// Check returns a 401 error unless password matches the stored hash.
func (c *Credentials) Check(username, password string) error {
	hash, ok := c.hashes[strings.ToLower(username)]
	if !ok {
		//nolint:errcheck // always a mismatch
		bcrypt.CompareHashAndPassword(c.dummy, []byte(password))
		return pkgerror.NewUnauthorized("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return pkgerror.NewUnauthorized("Invalid username or password")
	}
	return nil
}

// HashPassword hashes password with cost, or bcrypt.DefaultCost when cost
// is out of range.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
