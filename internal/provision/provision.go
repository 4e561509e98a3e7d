// Package provision orchestrates the full lifecycle of one proxy
// backend: package installation, config commits, credential changes,
// and service control. It owns the ordering rules (credentials before
// config, config before restart) and the advisory lock that serializes
// mutating operations across concurrent invocations.
package provision

import (
	"context"
	"errors"
)

// Lifecycle errors. Sentinels so callers can branch with errors.Is.
var (
	// ErrServiceUnconfirmed means a restart was issued and the
	// configuration is committed, but the service did not accept
	// connections within the settle window. The on-disk state is valid;
	// only the running service is in doubt.
	ErrServiceUnconfirmed = errors.New("service state unconfirmed after restart")

	// ErrNotConfigured means the backend's config file does not exist
	// yet; setup has not been run.
	ErrNotConfigured = errors.New("backend not configured, run setup first")

	// ErrStatsUnsupported means the backend has no per-user activity to
	// report (the preshared-secret backend logs no identities).
	ErrStatsUnsupported = errors.New("backend does not support per-user statistics")
)

// State is the coarse lifecycle position of a backend.
type State int

const (
	// StateUninstalled means the backend's packages are not present.
	StateUninstalled State = iota

	// StateInstalled means packages are present but no config has been
	// committed.
	StateInstalled

	// StateConfigured means a config is committed but the service is not
	// running.
	StateConfigured

	// StateRunning means the service is active.
	StateRunning
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalled:
		return "installed"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Installer installs host packages.
type Installer interface {
	// Installed reports whether the package is present.
	Installed(ctx context.Context, pkg string) bool

	// Install installs the named packages, skipping present ones.
	Install(ctx context.Context, pkgs ...string) error
}

// ServiceController drives the backend's service unit.
type ServiceController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	Enable(ctx context.Context) error

	// Active reports whether the service is running.
	Active(ctx context.Context) bool

	// Status returns human-readable status text.
	Status(ctx context.Context) string
}

// Firewall opens listen ports. Implementations are best effort;
// callers log failures and continue.
type Firewall interface {
	Allow(ctx context.Context, port int) error
}
