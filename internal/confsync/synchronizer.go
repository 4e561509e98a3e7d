package confsync

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// configFileMode is the permission applied to committed config files.
// Backend processes run as their own users and must be able to read it.
const configFileMode = 0644

// Renderer turns declarative settings into backend-specific config text.
//
// Render must be deterministic: the same settings produce byte-identical
// output, so diffs and tests are reproducible.
type Renderer interface {
	// Render produces the full config file text for the settings.
	Render(settings model.ProxySettings) (string, error)

	// PortPattern returns a regexp whose first capture group extracts
	// the listen port from existing config text.
	PortPattern() *regexp.Regexp
}

// Synchronizer owns one backend's config file: rendering, backup, and
// atomic commit. It holds no state between operations; the file on disk
// is the single source of truth.
type Synchronizer struct {
	renderer Renderer
	path     string
	mode     os.FileMode
	now      func() time.Time
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock overrides the time source used for backup names. Tests use
// this to produce predictable, distinct backups.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithFileMode overrides the committed file's permissions. Configs that
// embed a credential (Shadowsocks) use 0600 instead of the default 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Synchronizer) {
		s.mode = mode
	}
}

// New creates a Synchronizer for the config file at path.
func New(renderer Renderer, path string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		renderer: renderer,
		path:     path,
		mode:     configFileMode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the config file path the synchronizer manages.
func (s *Synchronizer) Path() string {
	return s.path
}

// Render produces the config text for the settings.
func (s *Synchronizer) Render(settings model.ProxySettings) (string, error) {
	return s.renderer.Render(settings)
}

// Commit writes text to the config file. If a file already exists, it is
// first copied to path+".bak."+<nanosecond timestamp>; each commit
// produces a new, uniquely named backup, so the most recent backup is
// never overwritten. The write itself is atomic.
func (s *Synchronizer) Commit(text string) error {
	if existing, err := os.ReadFile(s.path); err == nil {
		backup := fmt.Sprintf("%s.bak.%d", s.path, s.now().UnixNano())
		if err := os.WriteFile(backup, existing, s.mode); err != nil {
			return fmt.Errorf("failed to back up %s: %w", s.path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing config %s: %w", s.path, err)
	}

	if err := WriteFileAtomic(s.path, []byte(text), s.mode); err != nil {
		return fmt.Errorf("failed to commit config %s: %w", s.path, err)
	}
	return nil
}

// Current returns the committed config text. The error is the underlying
// read error; callers treat a missing file as "not configured yet".
func (s *Synchronizer) Current() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadCurrentPort recovers the configured listen port by scanning the
// existing config text. Absence of a match is not an error; the second
// return value reports whether a valid port was found, and callers fall
// back to the backend's default.
func (s *Synchronizer) ReadCurrentPort() (int, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false
	}

	match := s.renderer.PortPattern().FindSubmatch(data)
	if match == nil || len(match) < 2 {
		return 0, false
	}

	port, err := strconv.Atoi(string(match[1]))
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}
