package credential

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// SocksStore manages SOCKS5 identities: the roster file is the identity
// record, and an OS-level account (Dante's socksmethod: username) is the
// provisioned credential.
type SocksStore struct {
	rosterPath string
	accounts   AccountManager
	now        func() time.Time
}

// SocksOption configures a SocksStore.
type SocksOption func(*SocksStore)

// WithSocksClock overrides the time source for CreatedAt stamps.
func WithSocksClock(now func() time.Time) SocksOption {
	return func(s *SocksStore) {
		s.now = now
	}
}

// NewSocksStore creates a store over the given roster file and account
// manager.
func NewSocksStore(rosterPath string, accounts AccountManager, opts ...SocksOption) *SocksStore {
	s := &SocksStore{
		rosterPath: rosterPath,
		accounts:   accounts,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add implements Store. The OS account is provisioned before the roster
// is updated so a failure leaves no identity record pointing at nothing.
func (s *SocksStore) Add(ctx context.Context, username, secret string) (model.Identity, error) {
	if err := validate(username, secret); err != nil {
		return model.Identity{}, err
	}

	entries, err := readRoster(s.rosterPath)
	if err != nil && !os.IsNotExist(err) {
		return model.Identity{}, err
	}
	if findEntry(entries, username) >= 0 {
		return model.Identity{}, fmt.Errorf("%w: %s", ErrAlreadyExists, username)
	}

	if err := s.accounts.Create(ctx, username, secret); err != nil {
		return model.Identity{}, fmt.Errorf("failed to provision account for %s: %w", username, err)
	}

	// The roster persists seconds; stamp at the same precision so the
	// returned identity equals what List reads back.
	createdAt := s.now().Truncate(time.Second)
	entries = append(entries, rosterEntry{username: username, createdAt: createdAt})
	if err := writeRoster(s.rosterPath, entries); err != nil {
		return model.Identity{}, err
	}

	return model.Identity{
		Username:  username,
		Backend:   model.SocksAuth,
		CreatedAt: createdAt,
	}, nil
}

// Remove implements Store. The account is deprovisioned first; an
// account already missing (removed out-of-band) does not block removal
// of the roster entry.
func (s *SocksStore) Remove(ctx context.Context, username string) error {
	entries, err := readRoster(s.rosterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		return err
	}

	idx := findEntry(entries, username)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	if err := s.accounts.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to deprovision account for %s: %w", username, err)
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	return writeRoster(s.rosterPath, entries)
}

// List implements Store. Identities whose OS account disappeared
// out-of-band are flagged Orphaned.
func (s *SocksStore) List(ctx context.Context) ([]model.Identity, error) {
	entries, err := readRoster(s.rosterPath)
	if err != nil {
		return nil, err
	}

	identities := make([]model.Identity, 0, len(entries))
	for _, e := range entries {
		exists, err := s.accounts.Exists(ctx, e.username)
		if err != nil {
			return nil, fmt.Errorf("failed to check account %s: %w", e.username, err)
		}
		identities = append(identities, model.Identity{
			Username:  e.username,
			Backend:   model.SocksAuth,
			CreatedAt: e.createdAt,
			Orphaned:  !exists,
		})
	}
	return identities, nil
}

// Rotate implements Store. CreatedAt is untouched.
func (s *SocksStore) Rotate(ctx context.Context, username, secret string) error {
	if err := validate(username, secret); err != nil {
		return err
	}

	entries, err := readRoster(s.rosterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, username)
		}
		return err
	}
	if findEntry(entries, username) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	if err := s.accounts.SetPassword(ctx, username, secret); err != nil {
		return fmt.Errorf("failed to set password for %s: %w", username, err)
	}
	return nil
}
