// Package auth is the seam between the chat pipeline and whatever identity
// system backs it. The pipeline only ever asks "who is the current user".
package auth

import (
	"context"
	"errors"
)

// ErrNoSession indicates no authenticated user is available. Nothing is
// persisted or sent when a turn starts without a session.
var ErrNoSession = errors.New("auth: no active session")

// User is the authenticated identity attached to conversations and user
// messages.
type User struct {
	ID    string
	Email string
}

// Provider resolves the current session.
type Provider interface {
	// CurrentUser returns the signed-in user, or ErrNoSession.
	CurrentUser(ctx context.Context) (*User, error)
	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error
}

// Static is a Provider with a fixed identity, used when the user is
// configured locally rather than obtained from a session service.
type Static struct {
	User User
}

// NewStatic returns a provider for the given user id. An empty id yields a
// provider with no session.
func NewStatic(id, email string) *Static {
	return &Static{User: User{ID: id, Email: email}}
}

func (s *Static) CurrentUser(ctx context.Context) (*User, error) {
	if s == nil || s.User.ID == "" {
		return nil, ErrNoSession
	}
	u := s.User
	return &u, nil
}

func (s *Static) SignOut(ctx context.Context) error {
	s.User = User{}
	return nil
}
