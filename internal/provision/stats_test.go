package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/proxyadm/proxyadm/internal/config"
	"github.com/proxyadm/proxyadm/internal/confsync"
	"github.com/proxyadm/proxyadm/internal/model"
)

func statsOrchestrator(t *testing.T, backend config.Backend) *Orchestrator {
	t.Helper()
	return New(Deps{
		Backend:      backend,
		Store:        &fakeStore{},
		Synchronizer: confsync.New(stubRenderer{}, filepath.Join(t.TempDir(), "conf")),
		Installer:    &fakeInstaller{},
		Service:      &fakeService{},
		LockPath:     filepath.Join(t.TempDir(), "lock"),
		SettleDelay:  time.Second,
	}, WithSleep(func(time.Duration) {}), WithProbe(func(string, int) bool { return true }))
}

// TestStatsFromSquidLog runs the stats path end to end against a real
// access log file.
func TestStatsFromSquidLog(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "access.log")
	log := "1700000000.000 10 10.0.0.5 TCP_MISS/200 100 GET http://a.com/x alice -\n" +
		"1700000060.000 10 10.0.0.5 TCP_MISS/200 200 GET http://a.com/y alice -\n" +
		"1700000120.000 10 10.0.0.5 TCP_MISS/200 300 GET http://b.com/z alice -\n"
	if err := os.WriteFile(logPath, []byte(log), 0600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	backend := config.Backend{
		Kind:        model.HTTPBasicAuth,
		LogPath:     logPath,
		Service:     "squid",
		DefaultPort: 3128,
		LogFormat: config.LogFormat{
			BytesField:         config.DefaultSquidBytesField,
			FallbackBytesField: config.FallbackSquidBytesField,
		},
	}
	orch := statsOrchestrator(t, backend)

	sum, err := orch.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if sum.TotalEvents != 3 || sum.TotalBytes != 600 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Match != model.MatchExact {
		t.Errorf("match = %v, want exact", sum.Match)
	}
}

// TestStatsMissingLogIsNoActivity verifies a missing log file is an
// empty summary, not an error.
func TestStatsMissingLogIsNoActivity(t *testing.T) {
	t.Parallel()

	backend := config.Backend{
		Kind:        model.HTTPBasicAuth,
		LogPath:     filepath.Join(t.TempDir(), "absent.log"),
		DefaultPort: 3128,
	}
	orch := statsOrchestrator(t, backend)

	sum, err := orch.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !sum.NoActivity() {
		t.Errorf("summary = %+v, want no activity", sum)
	}
}

// TestStatsUnsupportedBackend verifies the preshared-secret backend is
// rejected.
func TestStatsUnsupportedBackend(t *testing.T) {
	t.Parallel()

	backend := config.Backend{Kind: model.PresharedSecret, DefaultPort: 8388}
	orch := statsOrchestrator(t, backend)

	if _, err := orch.Stats(context.Background(), "alice"); !errors.Is(err, ErrStatsUnsupported) {
		t.Errorf("error = %v, want ErrStatsUnsupported", err)
	}
}
