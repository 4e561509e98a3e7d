package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/system"
)

// NewTestCmd creates the test command.
func NewTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Probe the backend's listen port",
		Long: `Probe the configured listen port with a plain TCP connection and
report the result. The probe checks reachability only; it does not
authenticate or speak the proxy protocol, and the command exits 0
either way so it can run from health-check scripts that only want
the text.`,
		Args: cobra.NoArgs,
		RunE: runTest,
	}
}

// runTest executes the test command.
func runTest(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	port, ok := orch.ConfiguredPort()
	if !ok {
		port = orch.Backend().DefaultPort
	}

	if system.ProbePort("127.0.0.1", port) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s backend is accepting connections on port %d\n", eng.kind, port)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s backend is NOT accepting connections on port %d\n", eng.kind, port)
	}
	return nil
}
