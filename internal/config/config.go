package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/proxyadm/proxyadm/internal/model"
)

// Default values shared across backends.
const (
	// AppName is the application name used for XDG directory paths and
	// the operations journal location.
	AppName = "proxyadm"

	// DefaultSettleDelay is how long to wait after a service restart
	// before probing for "active". Matches the source tooling's fixed
	// 2-second delay; configuration commit and service activation are
	// deliberately not transactional together.
	DefaultSettleDelay = 2 * time.Second

	// DefaultSquidBytesField is the whitespace-separated column index of
	// the byte count in Squid's native access log format.
	DefaultSquidBytesField = 4

	// FallbackSquidBytesField is the alternate byte column observed in
	// reformatted Squid logs. The parser falls back to it only when the
	// configured column is not numeric.
	FallbackSquidBytesField = 1
)

// LogFormat describes how to pull fields out of a backend's access log.
// The bytes column differs between observed Squid log format versions,
// so it is configurable per backend rather than hardcoded.
type LogFormat struct {
	// BytesField is the primary whitespace-separated column index of the
	// byte count.
	BytesField int `yaml:"bytesField"`

	// FallbackBytesField is tried when the primary column does not parse
	// as a number. Negative disables the fallback.
	FallbackBytesField int `yaml:"fallbackBytesField"`
}

// Backend is the static descriptor for one proxy backend: where its
// config, credentials, and logs live, and how to talk to its service
// unit. All other components consume descriptors; none mutate them.
type Backend struct {
	// Kind selects the credential store, renderer, and ingestor variant.
	Kind model.BackendKind `yaml:"-"`

	// ConfigPath is the primary config file the backend process reads.
	ConfigPath string `yaml:"configPath"`

	// CredentialPath is the roster file listing identities for
	// multi-user backends. Empty for PresharedSecret.
	CredentialPath string `yaml:"credentialPath"`

	// DigestPath is the htpasswd-style digest file. Only the
	// HTTPBasicAuth backend uses it.
	DigestPath string `yaml:"digestPath"`

	// LogPath is the access/journal log scanned for usage accounting.
	// Empty for backends without stats support.
	LogPath string `yaml:"logPath"`

	// Service is the init-system unit name for lifecycle control.
	Service string `yaml:"service"`

	// Packages are the OS packages the installer collaborator ensures
	// before setup.
	Packages []string `yaml:"packages"`

	// DefaultPort pre-fills setup prompts when no port can be recovered
	// from an existing config file.
	DefaultPort int `yaml:"defaultPort"`

	// LogFormat configures access-log column mapping.
	LogFormat LogFormat `yaml:"logFormat"`
}

// Validate checks the descriptor invariants.
func (b Backend) Validate() error {
	if b.ConfigPath == "" {
		return ErrMissingConfigPath
	}
	if b.Kind.MultiUser() && b.CredentialPath == "" {
		return ErrMissingCredentialPath
	}
	if b.Service == "" {
		return ErrMissingService
	}
	if b.LogFormat.BytesField < 0 {
		return ErrInvalidBytesField
	}
	return nil
}

// Config holds the full engine configuration for one invocation.
// It is populated from built-in defaults, optionally overridden by a
// YAML file, and passed through the application by dependency injection
// rather than global state.
type Config struct {
	// Backends maps each backend kind to its descriptor.
	Backends map[model.BackendKind]Backend

	// ManageFirewall enables the best-effort "expose port" side effect
	// after a configuration commit.
	ManageFirewall bool

	// SettleDelay is the post-restart wait before the active probe.
	SettleDelay time.Duration

	// JournalDir is the directory holding the operations journal
	// database. Defaults to the XDG data directory.
	JournalDir string

	// Verbose enables slog.LevelDebug output.
	Verbose bool
}

// NewConfig returns the built-in configuration: conventional Debian-ish
// paths for all three backends. Operators override paths via the YAML
// file, not flags, so that every invocation agrees on the same layout.
func NewConfig() *Config {
	return &Config{
		Backends: map[model.BackendKind]Backend{
			model.SocksAuth: {
				Kind:           model.SocksAuth,
				ConfigPath:     "/etc/danted.conf",
				CredentialPath: "/etc/dante/users.list",
				LogPath:        "/var/log/danted.log",
				Service:        "danted",
				Packages:       []string{"dante-server"},
				DefaultPort:    model.SocksAuth.DefaultPort(),
			},
			model.HTTPBasicAuth: {
				Kind:           model.HTTPBasicAuth,
				ConfigPath:     "/etc/squid/squid.conf",
				CredentialPath: "/etc/squid/users.list",
				DigestPath:     "/etc/squid/passwd",
				LogPath:        "/var/log/squid/access.log",
				Service:        "squid",
				Packages:       []string{"squid", "apache2-utils"},
				DefaultPort:    model.HTTPBasicAuth.DefaultPort(),
				LogFormat: LogFormat{
					BytesField:         DefaultSquidBytesField,
					FallbackBytesField: FallbackSquidBytesField,
				},
			},
			model.PresharedSecret: {
				Kind:        model.PresharedSecret,
				ConfigPath:  "/etc/shadowsocks-libev/config.json",
				Service:     "shadowsocks-libev",
				Packages:    []string{"shadowsocks-libev"},
				DefaultPort: model.PresharedSecret.DefaultPort(),
			},
		},
		ManageFirewall: true,
		SettleDelay:    DefaultSettleDelay,
		JournalDir:     XDGDataDir(),
	}
}

// Backend returns the descriptor for the given kind.
func (c *Config) Backend(kind model.BackendKind) Backend {
	return c.Backends[kind]
}

// Validate checks every backend descriptor and returns the first error.
func (c *Config) Validate() error {
	for _, kind := range []model.BackendKind{model.SocksAuth, model.HTTPBasicAuth, model.PresharedSecret} {
		if err := c.Backends[kind].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// XDGDataDir returns the XDG data directory for proxyadm.
// On Linux: ~/.local/share/proxyadm
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for proxyadm.
// On Linux: ~/.config/proxyadm
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
