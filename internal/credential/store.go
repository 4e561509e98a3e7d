package credential

import (
	"context"
	"errors"

	"github.com/proxyadm/proxyadm/internal/model"
)

// Store errors. Sentinels so callers can branch with errors.Is.
var (
	// ErrAlreadyExists is returned by Add when the username is present
	// for the backend. Adding never silently overwrites (except for the
	// preshared-secret singleton, which has exactly one holder).
	ErrAlreadyExists = errors.New("user already exists")

	// ErrNotFound is returned by Remove and Rotate for absent usernames.
	// Removal is intentionally not idempotent: a second removal fails.
	ErrNotFound = errors.New("user not found")

	// ErrEmptySecret is returned when an empty password or secret is
	// supplied to Add or Rotate.
	ErrEmptySecret = errors.New("password must not be empty")

	// ErrEmptyUsername is returned when no username is supplied.
	ErrEmptyUsername = errors.New("username must not be empty")

	// ErrInvalidUsername is returned when the username contains
	// characters the backend's credential format cannot represent.
	ErrInvalidUsername = errors.New("invalid username")
)

// Store manages the identities of one backend. Implementations are
// selected once at startup by backend kind; no per-operation dispatch.
type Store interface {
	// Add creates a new identity with the given secret. Fails with
	// ErrAlreadyExists if the username is taken and ErrEmptySecret if
	// the secret is empty.
	Add(ctx context.Context, username, secret string) (model.Identity, error)

	// Remove deletes the identity. Fails with ErrNotFound if absent.
	Remove(ctx context.Context, username string) error

	// List returns all identities in insertion order. Identities whose
	// backing credential was removed out-of-band are flagged Orphaned,
	// not hidden.
	List(ctx context.Context) ([]model.Identity, error)

	// Rotate overwrites the secret in place without changing CreatedAt.
	// Fails with ErrNotFound if the username is absent.
	Rotate(ctx context.Context, username, secret string) error
}

// AccountManager provisions OS-level accounts backing SOCKS identities.
// The interface is defined here, at the consumer, so tests can supply
// fakes; the exec-based implementation lives in the system package.
type AccountManager interface {
	// Create adds a system account with the given password. The account
	// must not be able to log in interactively.
	Create(ctx context.Context, username, secret string) error

	// Delete removes the system account. Deleting an absent account is
	// not an error; the roster is the identity record.
	Delete(ctx context.Context, username string) error

	// SetPassword replaces the account password.
	SetPassword(ctx context.Context, username, secret string) error

	// Exists reports whether the account is present.
	Exists(ctx context.Context, username string) (bool, error)
}

// validate checks the common username/secret invariants shared by the
// multi-user stores.
func validate(username, secret string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if secret == "" {
		return ErrEmptySecret
	}
	return nil
}
