package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the backend's committed configuration",
		Long: `Print the configuration file currently committed for the backend.
Fails when no configuration exists yet; run setup first.`,
		Args: cobra.NoArgs,
		RunE: runConfig,
	}
}

// runConfig executes the config command.
func runConfig(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := orch.CurrentConfig()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
