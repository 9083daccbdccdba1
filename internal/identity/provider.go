// Package identity talks to whatever owns user accounts, credentials and
// access tokens.
package identity

import (
	"context"
	"errors"

	"github.com/tribithub/portal/backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("identity: user not found")
	ErrUserExists         = errors.New("identity: user already exists")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrInvalidToken       = errors.New("identity: invalid token")
)

// Provider is the identity service seen from handlers. Implementations must
// be safe for concurrent use.
type Provider interface {
	// FindUserByEmail returns ErrUserNotFound when no account has that email.
	FindUserByEmail(ctx context.Context, email string) (*models.Identity, error)
	// ListUsers returns the accounts among ids that exist; unknown ids are skipped.
	ListUsers(ctx context.Context, ids []string) ([]models.Identity, error)
	// CreateUser creates a confirmed account. ErrUserExists on duplicates.
	CreateUser(ctx context.Context, email, password, username string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, email, password string) error
	// SignIn returns ErrInvalidCredentials on a bad email/password pair.
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// Resolve maps a bearer token to its account, or ErrInvalidToken.
	Resolve(ctx context.Context, token string) (*models.Identity, error)
	SignOut(ctx context.Context, token string) error
}

// MagicLinker is implemented by providers that can mint one-time sign-in
// links. MagicLink returns ErrUserNotFound for an unknown email.
type MagicLinker interface {
	MagicLink(ctx context.Context, email, redirectTo string) (string, error)
}
