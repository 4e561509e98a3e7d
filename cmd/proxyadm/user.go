package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/model"
)

// NewUserAddCmd creates the user-add command.
func NewUserAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-add <username>",
		Short: "Create a proxy credential",
		Long: `Create a credential for the selected backend and restart its service.

For socks5 this provisions a nologin system account, for http an entry
in the password digest file. For shadowsocks there is exactly one
shared secret; adding replaces it.`,
		Args: cobra.ExactArgs(1),
		RunE: runUserAdd,
	}
	cmd.Flags().String("password", "", "Password for the new user (prompted when omitted)")
	return cmd
}

// runUserAdd executes the user-add command.
func runUserAdd(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	flagSecret, _ := cmd.Flags().GetString("password")
	secret, err := resolvePassword(cmd, flagSecret, fmt.Sprintf("Password for %s: ", args[0]))
	if err != nil {
		return err
	}

	identity, err := orch.AddUser(cmd.Context(), args[0], secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %q added to %s backend\n", identity.Username, eng.kind)
	return nil
}

// NewUserDelCmd creates the user-del command.
func NewUserDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user-del <username>",
		Short: "Delete a proxy credential",
		Long: `Delete the credential and restart the service. Deleting a user that
does not exist is an error, not a no-op, so typos surface instead of
silently "succeeding".`,
		Args: cobra.ExactArgs(1),
		RunE: runUserDel,
	}
}

// runUserDel executes the user-del command.
func runUserDel(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := orch.RemoveUser(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %q removed from %s backend\n", args[0], eng.kind)
	return nil
}

// NewUserListCmd creates the user-list command.
func NewUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user-list",
		Short: "List the backend's credentials",
		Long: `List the backend's identities in creation order. Identities whose
backing credential was removed outside proxyadm are marked as
orphaned rather than hidden.`,
		Args: cobra.NoArgs,
		RunE: runUserList,
	}
}

// runUserList executes the user-list command.
func runUserList(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	identities, err := orch.Users(cmd.Context())
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no users configured for %s backend\n", eng.kind)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tCREATED\tSTATE")
	for _, id := range identities {
		state := "ok"
		if id.Orphaned {
			state = "orphaned"
		}
		created := "-"
		if !id.CreatedAt.IsZero() {
			created = id.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id.Username, created, state)
	}
	return tw.Flush()
}

// NewUserPasswdCmd creates the user-passwd command.
func NewUserPasswdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-passwd <username>",
		Short: "Rotate a credential's password",
		Long: `Replace the user's password in place and restart the service. The
identity's creation time is preserved. For shadowsocks use the shared
identity name "` + model.SharedIdentity + `".`,
		Args: cobra.ExactArgs(1),
		RunE: runUserPasswd,
	}
	cmd.Flags().String("password", "", "New password (prompted when omitted)")
	return cmd
}

// runUserPasswd executes the user-passwd command.
func runUserPasswd(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	flagSecret, _ := cmd.Flags().GetString("password")
	secret, err := resolvePassword(cmd, flagSecret, fmt.Sprintf("New password for %s: ", args[0]))
	if err != nil {
		return err
	}

	if err := orch.RotatePassword(cmd.Context(), args[0], secret); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "password rotated for %q on %s backend\n", args[0], eng.kind)
	return nil
}
