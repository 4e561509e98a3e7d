package system

import (
	"context"
	"fmt"
	"strings"
)

// SystemdController drives a single systemd unit.
type SystemdController struct {
	runner  Runner
	service string
}

// NewSystemdController creates a controller for the named unit.
func NewSystemdController(runner Runner, service string) *SystemdController {
	return &SystemdController{runner: runner, service: service}
}

// Start starts the unit.
func (s *SystemdController) Start(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "systemctl", "start", s.service); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.service, err)
	}
	return nil
}

// Stop stops the unit.
func (s *SystemdController) Stop(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "systemctl", "stop", s.service); err != nil {
		return fmt.Errorf("failed to stop %s: %w", s.service, err)
	}
	return nil
}

// Restart restarts the unit.
func (s *SystemdController) Restart(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "systemctl", "restart", s.service); err != nil {
		return fmt.Errorf("failed to restart %s: %w", s.service, err)
	}
	return nil
}

// Enable marks the unit to start at boot.
func (s *SystemdController) Enable(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, "systemctl", "enable", s.service); err != nil {
		return fmt.Errorf("failed to enable %s: %w", s.service, err)
	}
	return nil
}

// Active reports whether the unit is running. systemctl is-active
// exits non-zero for inactive units, so the error is folded into the
// answer.
func (s *SystemdController) Active(ctx context.Context) bool {
	out, err := s.runner.Run(ctx, "systemctl", "is-active", s.service)
	return err == nil && strings.TrimSpace(out) == "active"
}

// Status returns systemctl's human-readable status text. The text is
// returned even when the command exits non-zero, which it does for
// stopped units.
func (s *SystemdController) Status(ctx context.Context) string {
	out, _ := s.runner.Run(ctx, "systemctl", "status", "--no-pager", s.service)
	return out
}

// Service returns the unit name.
func (s *SystemdController) Service() string {
	return s.service
}
