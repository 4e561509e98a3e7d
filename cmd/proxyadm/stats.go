package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/report"
)

// NewUserStatsCmd creates the user-stats command.
func NewUserStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-stats <username>",
		Short: "Report a user's proxy activity from the backend's logs",
		Long: `Derive a usage report for one user by scanning the backend's log
file: request count, bytes transferred, last activity, and top
destinations. Nothing is persisted; the log file is the only record.

A user with no logged activity produces an empty report and exit
status 0. The shadowsocks backend logs no identities and is not
supported.`,
		Args: cobra.ExactArgs(1),
		RunE: runUserStats,
	}

	cmd.Flags().Bool("json", false, "Output JSON for tool integration")
	cmd.Flags().Bool("markdown", false, "Output a Markdown report")
	cmd.Flags().StringP("output", "o", "", "Also write the report to a file")

	return cmd
}

// runUserStats executes the user-stats command.
func runUserStats(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := orch.Stats(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	mdOut, _ := cmd.Flags().GetBool("markdown")
	if jsonOut && mdOut {
		return fmt.Errorf("--json and --markdown are mutually exclusive")
	}

	newWriter := func(dst io.Writer) report.Writer {
		switch {
		case jsonOut:
			return report.NewJSONWriter(dst, report.WithPrettyPrint())
		case mdOut:
			return report.NewMarkdownWriter(dst)
		default:
			return report.NewSimpleWriter(dst, report.WithVerbose(eng.cfg.Verbose))
		}
	}

	w := newWriter(cmd.OutOrStdout())
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = report.NewMultiWriter(w, newWriter(f))
	}

	_, err = w.WriteSummary(&summary)
	return err
}
