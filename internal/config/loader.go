package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/proxyadm/proxyadm/internal/model"
)

// DefaultConfigFile is the default override file name, searched in the
// current directory and then in the user's home directory.
const DefaultConfigFile = ".proxyadm"

// fileOverrides mirrors the YAML override file structure. Zero values
// mean "keep the built-in default"; only non-zero fields are applied.
type fileOverrides struct {
	Backends       map[string]backendOverrides `yaml:"backends,omitempty"`
	ManageFirewall *bool                       `yaml:"manageFirewall,omitempty"`
	SettleDelay    time.Duration               `yaml:"settleDelay,omitempty"`
	JournalDir     string                      `yaml:"journalDir,omitempty"`
}

type backendOverrides struct {
	ConfigPath     string     `yaml:"configPath,omitempty"`
	CredentialPath string     `yaml:"credentialPath,omitempty"`
	DigestPath     string     `yaml:"digestPath,omitempty"`
	LogPath        string     `yaml:"logPath,omitempty"`
	Service        string     `yaml:"service,omitempty"`
	Packages       []string   `yaml:"packages,omitempty"`
	DefaultPort    int        `yaml:"defaultPort,omitempty"`
	LogFormat      *LogFormat `yaml:"logFormat,omitempty"`
}

// LoadConfigFile reads the YAML override file at path and applies it on
// top of the built-in defaults in cfg. If the file does not exist it
// returns ErrConfigNotFound; callers decide whether that is fatal based
// on whether the path was explicitly specified by the user.
func LoadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}

	var ov fileOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for name, bo := range ov.Backends {
		kind, err := model.ParseBackendKind(name)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		b := cfg.Backends[kind]
		if bo.ConfigPath != "" {
			b.ConfigPath = bo.ConfigPath
		}
		if bo.CredentialPath != "" {
			b.CredentialPath = bo.CredentialPath
		}
		if bo.DigestPath != "" {
			b.DigestPath = bo.DigestPath
		}
		if bo.LogPath != "" {
			b.LogPath = bo.LogPath
		}
		if bo.Service != "" {
			b.Service = bo.Service
		}
		if len(bo.Packages) > 0 {
			b.Packages = bo.Packages
		}
		if bo.DefaultPort != 0 {
			b.DefaultPort = bo.DefaultPort
		}
		if bo.LogFormat != nil {
			b.LogFormat = *bo.LogFormat
		}
		cfg.Backends[kind] = b
	}

	if ov.ManageFirewall != nil {
		cfg.ManageFirewall = *ov.ManageFirewall
	}
	if ov.SettleDelay > 0 {
		cfg.SettleDelay = ov.SettleDelay
	}
	if ov.JournalDir != "" {
		cfg.JournalDir = ov.JournalDir
	}

	return nil
}

// FindConfigFile searches for the override file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .proxyadm in the current directory
//  3. Look for .proxyadm in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
