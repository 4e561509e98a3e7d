package system

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
)

// fakeRunner records invocations and answers from a canned script.
type fakeRunner struct {
	calls  []string
	stdins []string
	// fail matches a command prefix that should return an error.
	fail string
	// output is returned for every successful call.
	output string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f.RunInput(ctx, "", name, args...)
}

func (f *fakeRunner) RunInput(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, call)
	f.stdins = append(f.stdins, stdin)
	if f.fail != "" && strings.HasPrefix(call, f.fail) {
		return "", errors.New("exit status 1")
	}
	return f.output, nil
}

// TestAptInstallerSkipsInstalled verifies dpkg state short-circuits the
// install.
func TestAptInstallerSkipsInstalled(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	apt := NewAptInstaller(runner)
	if err := apt.Install(context.Background(), "dante-server"); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	for _, call := range runner.calls {
		if strings.HasPrefix(call, "apt-get") {
			t.Errorf("apt-get run for an installed package: %v", runner.calls)
		}
	}
}

// TestAptInstallerInstallsMissing verifies missing packages reach
// apt-get install -y.
func TestAptInstallerInstallsMissing(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fail: "dpkg"}
	apt := NewAptInstaller(runner)
	if err := apt.Install(context.Background(), "squid", "apache2-utils"); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	want := "apt-get install -y squid apache2-utils"
	if runner.calls[len(runner.calls)-1] != want {
		t.Errorf("last call = %q, want %q", runner.calls[len(runner.calls)-1], want)
	}
}

// TestSystemdControllerActive verifies is-active output handling.
func TestSystemdControllerActive(t *testing.T) {
	t.Parallel()

	running := NewSystemdController(&fakeRunner{output: "active\n"}, "danted")
	if !running.Active(context.Background()) {
		t.Error("expected active")
	}

	stopped := NewSystemdController(&fakeRunner{fail: "systemctl is-active"}, "danted")
	if stopped.Active(context.Background()) {
		t.Error("expected inactive")
	}
}

// TestSystemdControllerRestart verifies the restart invocation.
func TestSystemdControllerRestart(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	ctl := NewSystemdController(runner, "squid")
	if err := ctl.Restart(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if runner.calls[0] != "systemctl restart squid" {
		t.Errorf("call = %q", runner.calls[0])
	}
}

// TestOSAccountManagerPasswordOverStdin verifies the secret never
// appears in argv.
func TestOSAccountManagerPasswordOverStdin(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	mgr := NewOSAccountManager(runner)
	if err := mgr.SetPassword(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}

	if runner.calls[0] != "chpasswd" {
		t.Errorf("call = %q", runner.calls[0])
	}
	if runner.stdins[0] != "alice:s3cret\n" {
		t.Errorf("stdin = %q", runner.stdins[0])
	}
	for _, call := range runner.calls {
		if strings.Contains(call, "s3cret") {
			t.Errorf("secret leaked into argv: %q", call)
		}
	}
}

// TestProbePort verifies the probe against a local listener and a
// closed port.
func TestProbePort(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	port := ln.Addr().(*net.TCPAddr).Port
	if !ProbePort("127.0.0.1", port) {
		t.Error("expected open port to probe true")
	}

	_ = ln.Close()
	if ProbePort("127.0.0.1", port) {
		t.Error("expected closed port to probe false")
	}
}
