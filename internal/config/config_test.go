package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/proxyadm/proxyadm/internal/model"
)

// TestNewConfig verifies the built-in defaults. The defaults are
// documented through tests so that changes to them are intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("socks5 descriptor", func(t *testing.T) {
		t.Parallel()
		b := cfg.Backend(model.SocksAuth)
		if b.ConfigPath != "/etc/danted.conf" {
			t.Errorf("config path = %q", b.ConfigPath)
		}
		if b.Service != "danted" {
			t.Errorf("service = %q", b.Service)
		}
		if b.DefaultPort != 1080 {
			t.Errorf("default port = %d", b.DefaultPort)
		}
	})

	t.Run("http descriptor", func(t *testing.T) {
		t.Parallel()
		b := cfg.Backend(model.HTTPBasicAuth)
		if b.DigestPath != "/etc/squid/passwd" {
			t.Errorf("digest path = %q", b.DigestPath)
		}
		if b.LogFormat.BytesField != DefaultSquidBytesField {
			t.Errorf("bytes field = %d, want %d", b.LogFormat.BytesField, DefaultSquidBytesField)
		}
		if b.LogFormat.FallbackBytesField != FallbackSquidBytesField {
			t.Errorf("fallback bytes field = %d, want %d", b.LogFormat.FallbackBytesField, FallbackSquidBytesField)
		}
	})

	t.Run("shadowsocks descriptor has no credential or log path", func(t *testing.T) {
		t.Parallel()
		b := cfg.Backend(model.PresharedSecret)
		if b.CredentialPath != "" {
			t.Errorf("credential path = %q, want empty", b.CredentialPath)
		}
		if b.LogPath != "" {
			t.Errorf("log path = %q, want empty", b.LogPath)
		}
	})

	t.Run("settle delay is 2 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.SettleDelay != 2*time.Second {
			t.Errorf("settle delay = %v", cfg.SettleDelay)
		}
	})

	t.Run("defaults validate", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid defaults, got %v", err)
		}
	})
}

// TestBackendValidate checks descriptor invariants.
func TestBackendValidate(t *testing.T) {
	t.Parallel()

	t.Run("missing config path", func(t *testing.T) {
		t.Parallel()
		b := NewConfig().Backend(model.SocksAuth)
		b.ConfigPath = ""
		if err := b.Validate(); !errors.Is(err, ErrMissingConfigPath) {
			t.Errorf("expected ErrMissingConfigPath, got %v", err)
		}
	})

	t.Run("multi-user backend needs credential path", func(t *testing.T) {
		t.Parallel()
		b := NewConfig().Backend(model.HTTPBasicAuth)
		b.CredentialPath = ""
		if err := b.Validate(); !errors.Is(err, ErrMissingCredentialPath) {
			t.Errorf("expected ErrMissingCredentialPath, got %v", err)
		}
	})

	t.Run("shadowsocks needs no credential path", func(t *testing.T) {
		t.Parallel()
		b := NewConfig().Backend(model.PresharedSecret)
		if err := b.Validate(); err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("missing service", func(t *testing.T) {
		t.Parallel()
		b := NewConfig().Backend(model.SocksAuth)
		b.Service = ""
		if err := b.Validate(); !errors.Is(err, ErrMissingService) {
			t.Errorf("expected ErrMissingService, got %v", err)
		}
	})

	t.Run("negative bytes field", func(t *testing.T) {
		t.Parallel()
		b := NewConfig().Backend(model.HTTPBasicAuth)
		b.LogFormat.BytesField = -1
		if err := b.Validate(); !errors.Is(err, ErrInvalidBytesField) {
			t.Errorf("expected ErrInvalidBytesField, got %v", err)
		}
	})
}

// TestLoadConfigFile verifies YAML overrides are applied on top of the
// built-in defaults and that unknown backends are rejected.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("overrides are applied", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		content := `
backends:
  http:
    configPath: /tmp/squid.conf
    logFormat:
      bytesField: 6
      fallbackBytesField: -1
  socks5:
    service: dante-custom
manageFirewall: false
journalDir: /tmp/journal
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(cfg, path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		httpBackend := cfg.Backend(model.HTTPBasicAuth)
		if httpBackend.ConfigPath != "/tmp/squid.conf" {
			t.Errorf("config path = %q", httpBackend.ConfigPath)
		}
		if httpBackend.LogFormat.BytesField != 6 {
			t.Errorf("bytes field = %d, want 6", httpBackend.LogFormat.BytesField)
		}
		if httpBackend.DigestPath != "/etc/squid/passwd" {
			t.Errorf("untouched field changed: digest path = %q", httpBackend.DigestPath)
		}
		if cfg.Backend(model.SocksAuth).Service != "dante-custom" {
			t.Errorf("socks5 service = %q", cfg.Backend(model.SocksAuth).Service)
		}
		if cfg.ManageFirewall {
			t.Error("manageFirewall override not applied")
		}
		if cfg.JournalDir != "/tmp/journal" {
			t.Errorf("journal dir = %q", cfg.JournalDir)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		err := LoadConfigFile(cfg, filepath.Join(t.TempDir(), "absent"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unknown backend name is rejected", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("backends:\n  ftp:\n    service: x\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if err := LoadConfigFile(NewConfig(), path); err == nil {
			t.Error("expected error for unknown backend name")
		}
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("backends: [not a map"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if err := LoadConfigFile(NewConfig(), path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

// TestFindConfigFile verifies explicit-path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "absent")); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
