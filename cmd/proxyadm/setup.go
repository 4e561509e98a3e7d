package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/model"
)

// NewSetupCmd creates the setup command.
func NewSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install and configure the selected backend",
		Long: `Install the backend's packages, write its configuration, enable and
restart its service, and open the listen port in the firewall.

Re-running setup is safe: installed packages are skipped and the
previous configuration is backed up before being replaced. When a
configuration already exists, its listen port pre-fills the prompt.`,
		RunE: runSetup,
	}

	cmd.Flags().IntP("port", "p", 0, "Listen port (0 prompts, pre-filled from the existing config)")
	cmd.Flags().String("bind", model.DefaultBindAddress, "Listen address")
	cmd.Flags().String("password", "", "Shared secret (shadowsocks only; prompted when omitted)")
	cmd.Flags().String("method", "", "Encryption method (shadowsocks only)")
	cmd.Flags().BoolP("yes", "y", false, "Accept defaults without prompting")

	return cmd
}

// runSetup executes the setup command.
func runSetup(cmd *cobra.Command, _ []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	orch, cleanup, err := eng.buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	settings := model.NewProxySettings(eng.kind)
	if current, ok := orch.ConfiguredPort(); ok {
		settings.Port = current
	}

	port, _ := cmd.Flags().GetInt("port")
	yes, _ := cmd.Flags().GetBool("yes")
	switch {
	case port != 0:
		settings.Port = port
	case !yes:
		answer, err := readLine(cmd, fmt.Sprintf("Listen port [%d]: ", settings.Port))
		if err != nil {
			return err
		}
		if answer != "" {
			p, err := strconv.Atoi(answer)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", answer, err)
			}
			settings.Port = p
		}
	}
	settings.BindAddress, _ = cmd.Flags().GetString("bind")

	if eng.kind == model.PresharedSecret {
		flagSecret, _ := cmd.Flags().GetString("password")
		secret, err := resolvePassword(cmd, flagSecret, "Shared secret: ")
		if err != nil {
			return err
		}
		if secret == "" {
			return fmt.Errorf("shared secret must not be empty")
		}
		settings.BackendSpecific = map[string]string{"password": secret}
		if method, _ := cmd.Flags().GetString("method"); method != "" {
			settings.BackendSpecific["method"] = method
		}
	}

	if err := orch.Setup(cmd.Context(), settings); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s backend configured on port %d\n", eng.kind, settings.Port)
	return nil
}
