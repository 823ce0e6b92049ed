// Package cryptox wraps the password and token hashing used by the server.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordNoUpper    = errors.New("password must contain at least one uppercase letter")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrPasswordMismatched = errors.New("password does not match")
)

// passwordCost is a seam so tests can use bcrypt.MinCost.
var passwordCost = bcrypt.DefaultCost

// ValidatePassword enforces the registration policy: at least 8 characters
// with one uppercase letter, and no longer than bcrypt can hash.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	for _, r := range password {
		if unicode.IsUpper(r) {
			return nil
		}
	}
	return ErrPasswordNoUpper
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatched
	}
	return nil
}

// HashToken returns the hex SHA-256 of an opaque token. Refresh tokens are
// stored hashed so a database leak does not yield usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
