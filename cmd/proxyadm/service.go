package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/provision"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend's lifecycle state",
		Long: `Inspect the backend's packages, committed configuration, service
state, and listen port reachability.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	s := orch.Status(cmd.Context())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:  %s\n", s.Backend)
	fmt.Fprintf(out, "State:    %s\n", s.State)
	if s.Port > 0 {
		reachable := "closed"
		if s.PortOpen {
			reachable = "open"
		}
		fmt.Fprintf(out, "Port:     %d (%s)\n", s.Port, reachable)
	}
	if eng.cfg.Verbose && s.Detail != "" {
		fmt.Fprintf(out, "\n%s\n", s.Detail)
	}
	return nil
}

// NewStartCmd creates the start command.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the backend's service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd, "started", (*provision.Orchestrator).Start)
		},
	}
}

// NewStopCmd creates the stop command.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the backend's service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd, "stopped", (*provision.Orchestrator).Stop)
		},
	}
}

// NewRestartCmd creates the restart command.
func NewRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the backend's service and confirm it came back",
		Long: `Restart the service, wait for it to settle, and probe the configured
listen port. An unreachable port after the wait is reported as an
error even though the restart command itself succeeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd, "restarted", (*provision.Orchestrator).Restart)
		},
	}
}

// runService wires the shared engine/orchestrator plumbing for the
// service commands.
func runService(cmd *cobra.Command, verb string, op func(*provision.Orchestrator, context.Context) error) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := op(orch, cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s backend %s\n", eng.kind, verb)
	return nil
}
