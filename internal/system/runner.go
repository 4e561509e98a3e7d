// Package system wraps the host facilities proxyadm administers:
// package installation, systemd services, the firewall, OS accounts,
// and TCP reachability probes. Everything shells out through a small
// Runner interface so the provisioning logic can be tested without
// touching the host.
package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes one host command and returns its combined output.
type Runner interface {
	// Run executes name with args. The returned output combines stdout
	// and stderr; a non-zero exit status is returned as an error.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// RunInput is Run with data fed to the command's stdin.
	RunInput(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the real host.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return run(ctx, "", name, args...)
}

// RunInput implements Runner.
func (ExecRunner) RunInput(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	return run(ctx, stdin, name, args...)
}

func run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}
