package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/journal"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent administrative operations",
		Long: `Show the most recent operations recorded in the local journal,
newest first. The journal is an audit convenience; the proxy
configuration files remain the source of truth.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().Bool("all-backends", false, "Show entries for every backend, not just the selected one")

	return cmd
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	j, err := journal.Open(eng.cfg.JournalDir, journal.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no operations recorded yet")
		return nil
	}
	defer func() { _ = j.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	allBackends, _ := cmd.Flags().GetBool("all-backends")

	var entries []journal.Entry
	if allBackends {
		entries, err = j.Recent(cmd.Context(), limit)
	} else {
		entries, err = j.RecentForBackend(cmd.Context(), eng.kind.String(), limit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no operations recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tBACKEND\tOPERATION\tUSER\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Succeeded {
			result = "failed"
			if e.Detail != "" {
				result = "failed: " + e.Detail
			}
		}
		user := e.Username
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Backend, e.Operation, user, result)
	}
	return tw.Flush()
}
