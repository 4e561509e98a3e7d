package system

import (
	"context"
	"errors"
	"fmt"
	"os/user"
)

// OSAccountManager provisions system accounts for backends that
// authenticate against PAM (Dante). Accounts are created without a
// home directory and with a nologin shell so credentials grant proxy
// access only.
type OSAccountManager struct {
	runner Runner
}

// NewOSAccountManager creates a manager backed by the given runner.
func NewOSAccountManager(runner Runner) *OSAccountManager {
	return &OSAccountManager{runner: runner}
}

// Create adds the account and sets its password.
func (m *OSAccountManager) Create(ctx context.Context, username, secret string) error {
	if _, err := m.runner.Run(ctx, "useradd", "-M", "-s", "/usr/sbin/nologin", username); err != nil {
		return fmt.Errorf("failed to create account %s: %w", username, err)
	}
	return m.SetPassword(ctx, username, secret)
}

// Delete removes the account. An absent account is not an error: the
// roster is the identity record, and the account may already have been
// removed out-of-band.
func (m *OSAccountManager) Delete(ctx context.Context, username string) error {
	exists, err := m.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := m.runner.Run(ctx, "userdel", username); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", username, err)
	}
	return nil
}

// SetPassword replaces the account's password via chpasswd. The secret
// travels over stdin, never argv, so it cannot leak through the
// process table.
func (m *OSAccountManager) SetPassword(ctx context.Context, username, secret string) error {
	if _, err := m.runner.RunInput(ctx, username+":"+secret+"\n", "chpasswd"); err != nil {
		return fmt.Errorf("failed to set password for %s: %w", username, err)
	}
	return nil
}

// Exists reports whether the account is present in the user database.
func (m *OSAccountManager) Exists(ctx context.Context, username string) (bool, error) {
	if _, err := user.Lookup(username); err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up account %s: %w", username, err)
	}
	return true, nil
}
