package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/proxyadm/proxyadm/internal/config"
	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/credential"
	"github.com/proxyadm/proxyadm/internal/journal"
	"github.com/proxyadm/proxyadm/internal/lockfile"
	"github.com/proxyadm/proxyadm/internal/model"
	"github.com/proxyadm/proxyadm/internal/system"
)

// probeHost is where restart confirmation probes connect. The managed
// service runs on the same host as proxyadm.
const probeHost = "127.0.0.1"

// defaultProbe is the production reachability check.
func defaultProbe(host string, port int) bool {
	return system.ProbePort(host, port)
}

// Recorder appends operation entries to the audit journal.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Deps are the collaborators of one backend's Orchestrator. The
// backend kind is fixed at construction; there is no per-operation
// dispatch.
type Deps struct {
	// Backend is the backend descriptor (paths, service, packages).
	Backend config.Backend

	// Store manages the backend's credentials.
	Store credential.Store

	// Synchronizer owns the backend's config file.
	Synchronizer *confsync.Synchronizer

	// Installer installs the backend's packages.
	Installer Installer

	// Service drives the backend's service unit.
	Service ServiceController

	// Firewall opens the listen port during setup. Nil disables
	// firewall management.
	Firewall Firewall

	// Journal records operations for the history command. Nil disables
	// recording; journal failures never abort an operation either way.
	Journal Recorder

	// Logger receives structured progress output.
	Logger *slog.Logger

	// LockPath is the advisory lock file serializing mutations.
	LockPath string

	// SettleDelay is how long to wait after a restart before probing.
	SettleDelay time.Duration
}

// Orchestrator coordinates credential, config, and service changes for
// one backend. Mutating operations take the advisory lock, apply
// credential changes first, commit config second, and restart the
// service last, so an interrupted run leaves credentials and config
// consistent with each other even if the service is stale.
type Orchestrator struct {
	backend  config.Backend
	store    credential.Store
	sync     *confsync.Synchronizer
	install  Installer
	service  ServiceController
	firewall Firewall
	journal  Recorder
	logger   *slog.Logger
	lockPath string
	settle   time.Duration

	sleep func(time.Duration)
	probe func(host string, port int) bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleep overrides the settle-delay sleep. Tests use this to avoid
// real waits.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithProbe overrides the TCP reachability probe.
func WithProbe(probe func(host string, port int) bool) Option {
	return func(o *Orchestrator) {
		o.probe = probe
	}
}

// New creates an Orchestrator from its collaborators.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:  deps.Backend,
		store:    deps.Store,
		sync:     deps.Synchronizer,
		install:  deps.Installer,
		service:  deps.Service,
		firewall: deps.Firewall,
		journal:  deps.Journal,
		logger:   deps.Logger,
		lockPath: deps.LockPath,
		settle:   deps.SettleDelay,
		sleep:    time.Sleep,
		probe:    defaultProbe,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Setup installs the backend's packages, commits a config rendered
// from settings, enables and restarts the service, and opens the
// firewall port. Re-running setup is safe: packages already present
// are skipped and the previous config is backed up before the commit.
func (o *Orchestrator) Setup(ctx context.Context, settings model.ProxySettings) (err error) {
	defer o.record(ctx, "setup", "", &err)

	if err := settings.Validate(); err != nil {
		return err
	}

	o.logger.Info("installing packages", "backend", o.backend.Kind.String(), "packages", o.backend.Packages)
	if err := o.install.Install(ctx, o.backend.Packages...); err != nil {
		return err
	}

	lock, err := lockfile.Acquire(o.lockPath)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	text, err := o.sync.Render(settings)
	if err != nil {
		return err
	}
	if err := o.sync.Commit(text); err != nil {
		return err
	}
	o.logger.Info("config committed", "path", o.sync.Path(), "port", settings.Port)

	if err := o.service.Enable(ctx); err != nil {
		o.logger.Warn("could not enable service at boot", "error", err)
	}
	if err := o.restartAndConfirm(ctx, settings.Port); err != nil {
		return err
	}

	if o.firewall != nil {
		if err := o.firewall.Allow(ctx, settings.Port); err != nil {
			o.logger.Warn("firewall rule not applied", "port", settings.Port, "error", err)
		}
	}
	return nil
}

// AddUser creates a credential and restarts the service so the backend
// picks it up.
func (o *Orchestrator) AddUser(ctx context.Context, username, secret string) (identity model.Identity, err error) {
	defer o.record(ctx, "user-add", username, &err)

	lock, lerr := lockfile.Acquire(o.lockPath)
	if lerr != nil {
		err = lerr
		return model.Identity{}, err
	}
	defer func() { _ = lock.Release() }()

	identity, err = o.store.Add(ctx, username, secret)
	if err != nil {
		return model.Identity{}, err
	}
	if err = o.reloadAfterCredentialChange(ctx); err != nil {
		return model.Identity{}, err
	}
	return identity, nil
}

// RemoveUser deletes a credential and restarts the service. Removal is
// not idempotent: removing an absent user fails with the store's
// not-found error.
func (o *Orchestrator) RemoveUser(ctx context.Context, username string) (err error) {
	defer o.record(ctx, "user-del", username, &err)

	lock, err := lockfile.Acquire(o.lockPath)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err = o.store.Remove(ctx, username); err != nil {
		return err
	}
	return o.reloadAfterCredentialChange(ctx)
}

// RotatePassword replaces a credential's secret in place and restarts
// the service.
func (o *Orchestrator) RotatePassword(ctx context.Context, username, secret string) (err error) {
	defer o.record(ctx, "user-passwd", username, &err)

	lock, err := lockfile.Acquire(o.lockPath)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err = o.store.Rotate(ctx, username, secret); err != nil {
		return err
	}
	return o.reloadAfterCredentialChange(ctx)
}

// Users lists the backend's identities, orphans included.
func (o *Orchestrator) Users(ctx context.Context) ([]model.Identity, error) {
	return o.store.List(ctx)
}

// Start starts the service.
func (o *Orchestrator) Start(ctx context.Context) (err error) {
	defer o.record(ctx, "start", "", &err)
	return o.service.Start(ctx)
}

// Stop stops the service.
func (o *Orchestrator) Stop(ctx context.Context) (err error) {
	defer o.record(ctx, "stop", "", &err)
	return o.service.Stop(ctx)
}

// Restart restarts the service and confirms it came back.
func (o *Orchestrator) Restart(ctx context.Context) (err error) {
	defer o.record(ctx, "restart", "", &err)

	port, ok := o.sync.ReadCurrentPort()
	if !ok {
		port = o.backend.DefaultPort
	}
	return o.restartAndConfirm(ctx, port)
}

// StatusReport is a snapshot of one backend's lifecycle position.
type StatusReport struct {
	// Backend is the backend kind.
	Backend model.BackendKind

	// State is the coarse lifecycle state.
	State State

	// Port is the configured listen port, zero when not configured.
	Port int

	// PortOpen reports whether the port accepted a TCP connection.
	PortOpen bool

	// Detail is the service manager's status text.
	Detail string
}

// Status inspects packages, config, service, and port to build a
// report. It never mutates anything and takes no lock.
func (o *Orchestrator) Status(ctx context.Context) StatusReport {
	report := StatusReport{Backend: o.backend.Kind, State: StateUninstalled}

	installed := true
	for _, pkg := range o.backend.Packages {
		if !o.install.Installed(ctx, pkg) {
			installed = false
			break
		}
	}
	if !installed {
		return report
	}
	report.State = StateInstalled

	port, ok := o.sync.ReadCurrentPort()
	if !ok {
		if _, err := o.sync.Current(); err != nil {
			return report
		}
		port = o.backend.DefaultPort
	}
	report.State = StateConfigured
	report.Port = port

	if o.service.Active(ctx) {
		report.State = StateRunning
	}
	report.PortOpen = o.probe(probeHost, port)
	report.Detail = o.service.Status(ctx)
	return report
}

// CurrentConfig returns the committed config text, ErrNotConfigured
// when no config has been committed yet.
func (o *Orchestrator) CurrentConfig() (string, error) {
	text, err := o.sync.Current()
	if os.IsNotExist(err) {
		return "", ErrNotConfigured
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// ConfiguredPort recovers the listen port from the committed config
// file. The second return value is false when no config exists or no
// port could be parsed from it.
func (o *Orchestrator) ConfiguredPort() (int, bool) {
	return o.sync.ReadCurrentPort()
}

// Backend returns the backend descriptor.
func (o *Orchestrator) Backend() config.Backend {
	return o.backend
}

// reloadAfterCredentialChange restarts the service so it observes the
// new credential set. The credential files are already committed at
// this point; a restart failure leaves them live on disk, which the
// error makes explicit.
func (o *Orchestrator) reloadAfterCredentialChange(ctx context.Context) error {
	port, ok := o.sync.ReadCurrentPort()
	if !ok {
		port = o.backend.DefaultPort
	}
	if err := o.restartAndConfirm(ctx, port); err != nil {
		return fmt.Errorf("credential change is committed but the service did not confirm it: %w", err)
	}
	return nil
}

// restartAndConfirm restarts the service, waits the settle delay, and
// probes the listen port. An unreachable port after the delay yields
// ErrServiceUnconfirmed rather than a silent success.
func (o *Orchestrator) restartAndConfirm(ctx context.Context, port int) error {
	if err := o.service.Restart(ctx); err != nil {
		return err
	}
	o.sleep(o.settle)

	if !o.probe(probeHost, port) {
		o.logger.Warn("service did not accept connections after restart",
			"backend", o.backend.Kind.String(), "port", port, "settle", o.settle)
		return fmt.Errorf("port %d not reachable after %s: %w", port, o.settle, ErrServiceUnconfirmed)
	}
	o.logger.Info("service confirmed", "backend", o.backend.Kind.String(), "port", port)
	return nil
}

// record appends the operation's outcome to the journal. Journal
// failures are logged and swallowed; the journal is an audit
// convenience, not the source of truth.
func (o *Orchestrator) record(ctx context.Context, operation, username string, opErr *error) {
	if o.journal == nil {
		return
	}
	entry := journal.Entry{
		Backend:   o.backend.Kind.String(),
		Operation: operation,
		Username:  username,
		Succeeded: *opErr == nil,
	}
	if *opErr != nil {
		entry.Detail = (*opErr).Error()
	}
	if _, err := o.journal.Record(ctx, entry); err != nil {
		o.logger.Warn("journal write failed", "operation", operation, "error", err)
	}
}
