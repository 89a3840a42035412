// Package auth implements the static login gate in front of the local API.
//
// techdoc is single-user: there is one configured username and password hash.
// A successful login yields a signed session token that the API middleware
// checks on every call.
package auth

import "context"

// Principal identifies who is logged in.
type Principal struct {
	Username string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the static gate for another method without
// changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the credentials and returns the principal if
	// successful.
	Authenticate(ctx context.Context, username, credential string) (*Principal, error)
}
