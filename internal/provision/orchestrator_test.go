package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/proxyadm/proxyadm/internal/config"
	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/credential"
	"github.com/proxyadm/proxyadm/internal/journal"
	"github.com/proxyadm/proxyadm/internal/model"
)

// stubRenderer produces a minimal deterministic config.
type stubRenderer struct{}

func (stubRenderer) Render(s model.ProxySettings) (string, error) {
	return fmt.Sprintf("port = %d\n", s.Port), nil
}

func (stubRenderer) PortPattern() *regexp.Regexp {
	return regexp.MustCompile(`port = (\d+)`)
}

// fakeInstaller pretends packages are installed once Install ran.
type fakeInstaller struct {
	present  map[string]bool
	installs []string
}

func (f *fakeInstaller) Installed(ctx context.Context, pkg string) bool {
	return f.present[pkg]
}

func (f *fakeInstaller) Install(ctx context.Context, pkgs ...string) error {
	for _, pkg := range pkgs {
		if f.present == nil {
			f.present = make(map[string]bool)
		}
		f.present[pkg] = true
		f.installs = append(f.installs, pkg)
	}
	return nil
}

// fakeService records invocations.
type fakeService struct {
	active     bool
	restartErr error
	calls      []string
}

func (f *fakeService) Start(ctx context.Context) error {
	f.calls = append(f.calls, "start")
	f.active = true
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.calls = append(f.calls, "stop")
	f.active = false
	return nil
}

func (f *fakeService) Restart(ctx context.Context) error {
	f.calls = append(f.calls, "restart")
	if f.restartErr != nil {
		return f.restartErr
	}
	f.active = true
	return nil
}

func (f *fakeService) Enable(ctx context.Context) error {
	f.calls = append(f.calls, "enable")
	return nil
}

func (f *fakeService) Active(ctx context.Context) bool { return f.active }

func (f *fakeService) Status(ctx context.Context) string { return "stub status" }

// fakeFirewall records allowed ports.
type fakeFirewall struct {
	ports []int
}

func (f *fakeFirewall) Allow(ctx context.Context, port int) error {
	f.ports = append(f.ports, port)
	return nil
}

// fakeStore is an in-memory credential store.
type fakeStore struct {
	users []string
}

func (f *fakeStore) Add(ctx context.Context, username, secret string) (model.Identity, error) {
	for _, u := range f.users {
		if u == username {
			return model.Identity{}, credential.ErrAlreadyExists
		}
	}
	f.users = append(f.users, username)
	return model.Identity{Username: username, Backend: model.SocksAuth}, nil
}

func (f *fakeStore) Remove(ctx context.Context, username string) error {
	for i, u := range f.users {
		if u == username {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return credential.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context) ([]model.Identity, error) {
	ids := make([]model.Identity, 0, len(f.users))
	for _, u := range f.users {
		ids = append(ids, model.Identity{Username: u, Backend: model.SocksAuth})
	}
	return ids, nil
}

func (f *fakeStore) Rotate(ctx context.Context, username, secret string) error {
	for _, u := range f.users {
		if u == username {
			return nil
		}
	}
	return credential.ErrNotFound
}

// fakeRecorder captures journal entries.
type fakeRecorder struct {
	entries []journal.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, e journal.Entry) (int64, error) {
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

// testHarness bundles an orchestrator with its fakes.
type testHarness struct {
	orch      *Orchestrator
	installer *fakeInstaller
	service   *fakeService
	firewall  *fakeFirewall
	store     *fakeStore
	recorder  *fakeRecorder
	confPath  string
}

func newHarness(t *testing.T, portOpen bool) *testHarness {
	t.Helper()
	dir := t.TempDir()

	h := &testHarness{
		installer: &fakeInstaller{},
		service:   &fakeService{},
		firewall:  &fakeFirewall{},
		store:     &fakeStore{},
		recorder:  &fakeRecorder{},
		confPath:  filepath.Join(dir, "danted.conf"),
	}

	backend := config.Backend{
		Kind:        model.SocksAuth,
		ConfigPath:  h.confPath,
		Service:     "danted",
		Packages:    []string{"dante-server"},
		DefaultPort: 1080,
	}
	h.orch = New(Deps{
		Backend:      backend,
		Store:        h.store,
		Synchronizer: confsync.New(stubRenderer{}, h.confPath),
		Installer:    h.installer,
		Service:      h.service,
		Firewall:     h.firewall,
		Journal:      h.recorder,
		LockPath:     filepath.Join(dir, "proxyadm.lock"),
		SettleDelay:  2 * time.Second,
	},
		WithSleep(func(time.Duration) {}),
		WithProbe(func(string, int) bool { return portOpen }),
	)
	return h
}

// TestSetupHappyPath verifies install, commit, enable, restart,
// firewall ordering and the journal record.
func TestSetupHappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	settings := model.ProxySettings{Port: 42000, BindAddress: "0.0.0.0"}

	if err := h.orch.Setup(context.Background(), settings); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if len(h.installer.installs) != 1 || h.installer.installs[0] != "dante-server" {
		t.Errorf("installs = %v", h.installer.installs)
	}
	data, err := os.ReadFile(h.confPath)
	if err != nil {
		t.Fatalf("config not committed: %v", err)
	}
	if string(data) != "port = 42000\n" {
		t.Errorf("config = %q", data)
	}
	if len(h.service.calls) != 2 || h.service.calls[0] != "enable" || h.service.calls[1] != "restart" {
		t.Errorf("service calls = %v", h.service.calls)
	}
	if len(h.firewall.ports) != 1 || h.firewall.ports[0] != 42000 {
		t.Errorf("firewall ports = %v", h.firewall.ports)
	}

	if len(h.recorder.entries) != 1 {
		t.Fatalf("journal entries = %d", len(h.recorder.entries))
	}
	if e := h.recorder.entries[0]; e.Operation != "setup" || !e.Succeeded {
		t.Errorf("journal entry = %+v", e)
	}
}

// TestSetupRejectsInvalidSettings verifies validation happens before
// any host change.
func TestSetupRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	err := h.orch.Setup(context.Background(), model.ProxySettings{Port: 0, BindAddress: "0.0.0.0"})
	if !errors.Is(err, model.ErrInvalidPort) {
		t.Fatalf("error = %v, want ErrInvalidPort", err)
	}
	if len(h.installer.installs) != 0 {
		t.Error("packages installed despite invalid settings")
	}
	if _, err := os.Stat(h.confPath); !os.IsNotExist(err) {
		t.Error("config committed despite invalid settings")
	}
}

// TestAddUserRestartsService verifies the credential lands before the
// restart and both are journaled as one operation.
func TestAddUserRestartsService(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	identity, err := h.orch.AddUser(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if identity.Username != "alice" {
		t.Errorf("identity = %+v", identity)
	}
	if len(h.service.calls) != 1 || h.service.calls[0] != "restart" {
		t.Errorf("service calls = %v", h.service.calls)
	}
}

// TestAddUserUnconfirmedService verifies the surfaced commit-vs-restart
// gap: the credential is committed, the error says so, and the journal
// records a failure.
func TestAddUserUnconfirmedService(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false) // probe never succeeds
	_, err := h.orch.AddUser(context.Background(), "alice", "s3cret")
	if !errors.Is(err, ErrServiceUnconfirmed) {
		t.Fatalf("error = %v, want ErrServiceUnconfirmed", err)
	}

	// Credential change survives the unconfirmed restart.
	users, _ := h.store.List(context.Background())
	if len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("users = %v", users)
	}
	if e := h.recorder.entries[0]; e.Succeeded {
		t.Error("journal should record the failure")
	}
}

// TestRemoveUserNotFound verifies removal is not idempotent and does
// not restart anything on failure.
func TestRemoveUserNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	err := h.orch.RemoveUser(context.Background(), "ghost")
	if !errors.Is(err, credential.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(h.service.calls) != 0 {
		t.Errorf("service calls = %v, want none", h.service.calls)
	}
}

// TestStatusLifecycle walks the state machine from uninstalled to
// running.
func TestStatusLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, true)

	if s := h.orch.Status(ctx); s.State != StateUninstalled {
		t.Errorf("state = %v, want uninstalled", s.State)
	}

	h.installer.present = map[string]bool{"dante-server": true}
	if s := h.orch.Status(ctx); s.State != StateInstalled {
		t.Errorf("state = %v, want installed", s.State)
	}

	if err := h.orch.Setup(ctx, model.ProxySettings{Port: 1080, BindAddress: "0.0.0.0"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if s := h.orch.Status(ctx); s.State != StateRunning || s.Port != 1080 || !s.PortOpen {
		t.Errorf("status = %+v, want running on open port 1080", s)
	}

	h.service.active = false
	if s := h.orch.Status(ctx); s.State != StateConfigured {
		t.Errorf("state = %v, want configured", s.State)
	}
}

// TestCurrentConfigNotConfigured verifies the sentinel for a missing
// config file.
func TestCurrentConfigNotConfigured(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true)
	if _, err := h.orch.CurrentConfig(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
