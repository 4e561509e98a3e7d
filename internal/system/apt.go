package system

import (
	"context"
	"fmt"
)

// AptInstaller installs Debian packages with apt-get. Installed state
// is checked with dpkg so repeated setups skip the download.
type AptInstaller struct {
	runner Runner
}

// NewAptInstaller creates an installer backed by the given runner.
func NewAptInstaller(runner Runner) *AptInstaller {
	return &AptInstaller{runner: runner}
}

// Installed reports whether the package is already present.
func (a *AptInstaller) Installed(ctx context.Context, pkg string) bool {
	_, err := a.runner.Run(ctx, "dpkg", "-s", pkg)
	return err == nil
}

// Install installs the named packages, skipping ones already present.
func (a *AptInstaller) Install(ctx context.Context, pkgs ...string) error {
	var missing []string
	for _, pkg := range pkgs {
		if !a.Installed(ctx, pkg) {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, missing...)
	if _, err := a.runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("failed to install packages %v: %w", missing, err)
	}
	return nil
}
