package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/model"
)

// SecretStore manages the Shadowsocks preshared secret. There is no
// per-user identity: Add always succeeds by overwriting the singleton
// secret inside the backend's JSON config, and List reports at most one
// identity named model.SharedIdentity.
type SecretStore struct {
	configPath string
}

// NewSecretStore creates a store over the Shadowsocks config file.
func NewSecretStore(configPath string) *SecretStore {
	return &SecretStore{configPath: configPath}
}

// Add implements Store. The username argument is ignored; the secret has
// exactly one holder. Overwriting an existing secret is the documented
// behavior, not a conflict.
func (s *SecretStore) Add(ctx context.Context, username, secret string) (model.Identity, error) {
	if secret == "" {
		return model.Identity{}, ErrEmptySecret
	}
	if err := s.writeSecret(secret); err != nil {
		return model.Identity{}, err
	}
	return model.Identity{
		Username:  model.SharedIdentity,
		Backend:   model.PresharedSecret,
		CreatedAt: time.Now(),
	}, nil
}

// Remove implements Store. Clearing an absent secret fails with
// ErrNotFound, consistent with the multi-user stores.
func (s *SecretStore) Remove(ctx context.Context, username string) error {
	current, err := s.readSecret()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no shared secret configured", ErrNotFound)
		}
		return err
	}
	if current == "" {
		return fmt.Errorf("%w: no shared secret configured", ErrNotFound)
	}
	return s.writeSecret("")
}

// List implements Store.
func (s *SecretStore) List(ctx context.Context) ([]model.Identity, error) {
	current, err := s.readSecret()
	if err != nil {
		return nil, err
	}
	if current == "" {
		return []model.Identity{}, nil
	}

	// The config file's modification time is the closest available
	// approximation of when the secret was set.
	createdAt := time.Time{}
	if info, err := os.Stat(s.configPath); err == nil {
		createdAt = info.ModTime()
	}

	return []model.Identity{{
		Username:  model.SharedIdentity,
		Backend:   model.PresharedSecret,
		CreatedAt: createdAt,
	}}, nil
}

// Rotate implements Store. For a singleton secret, rotation and addition
// are the same overwrite.
func (s *SecretStore) Rotate(ctx context.Context, username, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	current, err := s.readSecret()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no shared secret configured", ErrNotFound)
		}
		return err
	}
	if current == "" {
		return fmt.Errorf("%w: no shared secret configured", ErrNotFound)
	}
	return s.writeSecret(secret)
}

// Secret returns the currently configured shared secret, empty when the
// config exists but holds none.
func (s *SecretStore) Secret() (string, error) {
	return s.readSecret()
}

// readSecret pulls the password field out of the config JSON.
func (s *SecretStore) readSecret() (string, error) {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return "", err
	}

	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", s.configPath, err)
	}
	secret, _ := cfg["password"].(string)
	return secret, nil
}

// writeSecret performs a read-modify-write of the password field,
// preserving every other field, with an atomic replace. The config
// synchronizer owns full rewrites; this touches only the credential.
func (s *SecretStore) writeSecret(secret string) error {
	cfg := make(map[string]any)
	if data, err := os.ReadFile(s.configPath); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", s.configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	cfg["password"] = secret

	out, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.configPath, err)
	}

	if err := ensureParentDir(s.configPath); err != nil {
		return err
	}
	if err := confsync.WriteFileAtomic(s.configPath, append(out, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.configPath, err)
	}
	return nil
}
