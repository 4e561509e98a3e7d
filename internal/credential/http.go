package credential

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/model"
)

// digestFileMode keeps the digest file readable only by the owner; the
// auth helper runs as root (or the squid user owning the file).
const digestFileMode = 0600

// HTTPStore manages Squid identities: the roster file is the identity
// record, and an htpasswd-style digest file ("user:bcrypt") is the
// provisioned credential read by basic_ncsa_auth.
type HTTPStore struct {
	rosterPath string
	digestPath string
	now        func() time.Time
	cost       int
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClock overrides the time source for CreatedAt stamps.
func WithHTTPClock(now func() time.Time) HTTPOption {
	return func(s *HTTPStore) {
		s.now = now
	}
}

// WithBcryptCost overrides the bcrypt cost. Tests lower it to
// bcrypt.MinCost to keep hashing fast.
func WithBcryptCost(cost int) HTTPOption {
	return func(s *HTTPStore) {
		s.cost = cost
	}
}

// NewHTTPStore creates a store over the given roster and digest files.
func NewHTTPStore(rosterPath, digestPath string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		rosterPath: rosterPath,
		digestPath: digestPath,
		now:        time.Now,
		cost:       bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add implements Store. The digest entry is written before the roster so
// a failure leaves no identity record without a credential.
func (s *HTTPStore) Add(ctx context.Context, username, secret string) (model.Identity, error) {
	if err := validate(username, secret); err != nil {
		return model.Identity{}, err
	}
	// ':' is the digest file's field separator.
	if strings.ContainsRune(username, ':') {
		return model.Identity{}, fmt.Errorf("%w: %q must not contain ':'", ErrInvalidUsername, username)
	}

	entries, err := readRoster(s.rosterPath)
	if err != nil && !os.IsNotExist(err) {
		return model.Identity{}, err
	}
	if findEntry(entries, username) >= 0 {
		return model.Identity{}, fmt.Errorf("%w: %s", ErrAlreadyExists, username)
	}

	if err := s.setDigest(username, secret); err != nil {
		return model.Identity{}, err
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
		Backend:   model.HTTPBasicAuth,
		CreatedAt: createdAt,
	}, nil
}

// Remove implements Store.
func (s *HTTPStore) Remove(ctx context.Context, username string) error {
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

	if err := s.removeDigest(username); err != nil {
		return err
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	return writeRoster(s.rosterPath, entries)
}

// List implements Store. Identities missing from the digest file
// (edited out-of-band) are flagged Orphaned.
func (s *HTTPStore) List(ctx context.Context) ([]model.Identity, error) {
	entries, err := readRoster(s.rosterPath)
	if err != nil {
		return nil, err
	}

	digests, err := s.readDigests()
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	identities := make([]model.Identity, 0, len(entries))
	for _, e := range entries {
		_, hasDigest := digests[e.username]
		identities = append(identities, model.Identity{
			Username:  e.username,
			Backend:   model.HTTPBasicAuth,
			CreatedAt: e.createdAt,
			Orphaned:  !hasDigest,
		})
	}
	return identities, nil
}

// Rotate implements Store. Overwrites the digest in place; CreatedAt in
// the roster is untouched.
func (s *HTTPStore) Rotate(ctx context.Context, username, secret string) error {
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

	return s.setDigest(username, secret)
}

// VerifySecret checks a password against the stored digest. Used by
// tests and diagnostic tooling; Squid itself reads the digest file
// directly through its auth helper.
func (s *HTTPStore) VerifySecret(username, secret string) (bool, error) {
	digests, err := s.readDigests()
	if err != nil {
		return false, err
	}
	hash, ok := digests[username]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil, nil
}

// readDigests parses the digest file into username -> hash, preserving
// nothing else; order does not matter for lookups.
func (s *HTTPStore) readDigests() (map[string]string, error) {
	f, err := os.Open(s.digestPath) //nolint:gosec // Path comes from the engine config
	if err != nil {
		return nil, err
	}
	defer f.Close()

	digests := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, hash, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		digests[name] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read digest file %s: %w", s.digestPath, err)
	}
	return digests, nil
}

// writeDigests replaces the digest file atomically. Lines follow roster
// order so rewrites are stable; entries added out-of-band are appended
// after the known ones.
func (s *HTTPStore) writeDigests(digests map[string]string) error {
	if err := ensureParentDir(s.digestPath); err != nil {
		return err
	}

	entries, err := readRoster(s.rosterPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var sb strings.Builder
	written := make(map[string]bool, len(digests))
	for _, e := range entries {
		if hash, ok := digests[e.username]; ok {
			fmt.Fprintf(&sb, "%s:%s\n", e.username, hash)
			written[e.username] = true
		}
	}
	for name, hash := range digests {
		if !written[name] {
			fmt.Fprintf(&sb, "%s:%s\n", name, hash)
		}
	}

	if err := confsync.WriteFileAtomic(s.digestPath, []byte(sb.String()), digestFileMode); err != nil {
		return fmt.Errorf("failed to write digest file %s: %w", s.digestPath, err)
	}
	return nil
}

// setDigest hashes the secret and upserts the username's digest line.
func (s *HTTPStore) setDigest(username, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	digests, err := s.readDigests()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		digests = make(map[string]string)
	}
	digests[username] = string(hash)
	return s.writeDigests(digests)
}

// removeDigest drops the username's digest line. A missing line is not
// an error; the roster is the identity record.
func (s *HTTPStore) removeDigest(username string) error {
	digests, err := s.readDigests()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if _, ok := digests[username]; !ok {
		return nil
	}
	delete(digests, username)
	return s.writeDigests(digests)
}
