package auth

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	// ErrNoSession is returned when a token does not resolve to a live
	// session (missing, expired, or signed out).
	ErrNoSession = errors.New("no active session")
)

// Identity is the authenticated user reference issued at sign-up.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// SessionEventKind distinguishes session creation from destruction.
type SessionEventKind string

const (
	SessionCreated   SessionEventKind = "created"
	SessionDestroyed SessionEventKind = "destroyed"
)

// SessionEvent is pushed to subscribers whenever the current identity of a
// session changes, so dependents can re-evaluate access.
type SessionEvent struct {
	Kind     SessionEventKind
	Identity Identity
}
