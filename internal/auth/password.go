package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the shortest password HashPassword accepts.
const MinPasswordLength = 8

// StaticAuthenticator checks credentials against one configured username and
// bcrypt password hash.
type StaticAuthenticator struct {
	username string
	hash     []byte
}

// NewStaticAuthenticator creates the gate for username. passwordHash is a
// bcrypt hash as produced by HashPassword.
func NewStaticAuthenticator(username, passwordHash string) (*StaticAuthenticator, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}
	return &StaticAuthenticator{
		username: username,
		hash:     []byte(passwordHash),
	}, nil
}

// HashPassword returns the bcrypt hash to configure for password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies the username (surrounding spaces ignored) and password.
func (a *StaticAuthenticator) Authenticate(_ context.Context, username, credential string) (*Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(a.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(credential))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{Username: a.username}, nil
}
