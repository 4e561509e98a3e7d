// Package main provides the entry point for the proxyadm CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/proxyadm/proxyadm/internal/config"
	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/credential"
	"github.com/proxyadm/proxyadm/internal/journal"
	"github.com/proxyadm/proxyadm/internal/log"
	"github.com/proxyadm/proxyadm/internal/model"
	"github.com/proxyadm/proxyadm/internal/provision"
	"github.com/proxyadm/proxyadm/internal/system"
)

// NewRootCmd creates the root command for proxyadm.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxyadm",
		Short: "Credential and usage management for proxy backends",
		Long: `proxyadm manages credentials, configuration, and usage accounting
for three proxy backends: Dante (SOCKS5), Squid (HTTP), and
Shadowsocks (preshared secret).

Pick the backend with --backend; paths and services can be overridden
with a .proxyadm YAML file in the current or home directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("backend", "b", "socks5", "Backend to operate on (socks5, http, shadowsocks)")
	cmd.PersistentFlags().String("config", "", "Path to the .proxyadm override file")

	// Add subcommands
	cmd.AddCommand(NewSetupCmd())
	cmd.AddCommand(NewUserAddCmd())
	cmd.AddCommand(NewUserDelCmd())
	cmd.AddCommand(NewUserListCmd())
	cmd.AddCommand(NewUserPasswdCmd())
	cmd.AddCommand(NewUserStatsCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewStartCmd())
	cmd.AddCommand(NewStopCmd())
	cmd.AddCommand(NewRestartCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewTestCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// engine bundles the resolved configuration for one invocation.
type engine struct {
	cfg    *config.Config
	kind   model.BackendKind
	logger *slog.Logger
}

// loadEngine resolves global flags into a ready-to-use engine: config
// defaults plus YAML overrides, the selected backend kind, and a
// credential-masking logger.
func loadEngine(cmd *cobra.Command) (*engine, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	backendName, _ := cmd.Flags().GetString("backend")
	configFlag, _ := cmd.Flags().GetString("config")

	kind, err := model.ParseBackendKind(backendName)
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	cfg.Verbose = verbose
	if path := config.FindConfigFile(configFlag); path != "" {
		if err := config.LoadConfigFile(cfg, path); err != nil {
			return nil, err
		}
	} else if configFlag != "" {
		return nil, fmt.Errorf("config file %s not found", configFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &engine{
		cfg:    cfg,
		kind:   kind,
		logger: log.NewLogger(cmd.ErrOrStderr(), verbose),
	}, nil
}

// buildOrchestrator wires the backend's store, renderer, service
// controller, and journal into an Orchestrator. The returned cleanup
// closes the journal.
func (e *engine) buildOrchestrator() (*provision.Orchestrator, func(), error) {
	backend := e.cfg.Backend(e.kind)
	runner := system.ExecRunner{}

	var store credential.Store
	var sync *confsync.Synchronizer
	switch e.kind {
	case model.SocksAuth:
		store = credential.NewSocksStore(backend.CredentialPath, system.NewOSAccountManager(runner))
		sync = confsync.New(confsync.NewDanteRenderer(backend.LogPath), backend.ConfigPath)
	case model.HTTPBasicAuth:
		store = credential.NewHTTPStore(backend.CredentialPath, backend.DigestPath)
		sync = confsync.New(confsync.NewSquidRenderer(backend.DigestPath), backend.ConfigPath)
	case model.PresharedSecret:
		store = credential.NewSecretStore(backend.ConfigPath)
		// The rendered config embeds the shared secret.
		sync = confsync.New(confsync.NewShadowsocksRenderer(), backend.ConfigPath, confsync.WithFileMode(0600))
	}

	var firewall provision.Firewall
	if e.cfg.ManageFirewall {
		firewall = system.NewUFWFirewall(runner)
	}

	cleanup := func() {}
	var recorder provision.Recorder
	if j, err := journal.Open(e.cfg.JournalDir, journal.DefaultOptions()); err != nil {
		e.logger.Warn("operations journal unavailable", "dir", e.cfg.JournalDir, "error", err)
	} else {
		recorder = j
		cleanup = func() { _ = j.Close() }
	}

	orch := provision.New(provision.Deps{
		Backend:      backend,
		Store:        store,
		Synchronizer: sync,
		Installer:    system.NewAptInstaller(runner),
		Service:      system.NewSystemdController(runner, backend.Service),
		Firewall:     firewall,
		Journal:      recorder,
		Logger:       e.logger,
		LockPath:     filepath.Join(e.cfg.JournalDir, "proxyadm-"+e.kind.String()+".lock"),
		SettleDelay:  e.cfg.SettleDelay,
	})
	return orch, cleanup, nil
}
