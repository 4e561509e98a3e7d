package system

import (
	"context"
	"strconv"
)

// UFWFirewall opens ports with ufw. Rule application is best effort:
// hosts without ufw, or with it disabled, are common and not an error
// worth failing setup over, so Allow reports rather than aborts.
type UFWFirewall struct {
	runner Runner
}

// NewUFWFirewall creates a firewall manager backed by the given runner.
func NewUFWFirewall(runner Runner) *UFWFirewall {
	return &UFWFirewall{runner: runner}
}

// Allow opens the TCP port. The returned error is advisory; callers
// log it and continue.
func (f *UFWFirewall) Allow(ctx context.Context, port int) error {
	_, err := f.runner.Run(ctx, "ufw", "allow", strconv.Itoa(port)+"/tcp")
	return err
}
