package model

import (
	"testing"
	"time"
)

// TestUsageSummaryMegabytes verifies the display conversion: division by
// 1024*1024 with two-decimal rounding, and "0.00" for a zero total.
func TestUsageSummaryMegabytes(t *testing.T) {
	t.Parallel()

	t.Run("zero bytes renders 0.00", func(t *testing.T) {
		t.Parallel()
		u := UsageSummary{}
		if got := u.FormatMegabytes(); got != "0.00" {
			t.Errorf("expected 0.00, got %q", got)
		}
	})

	t.Run("600 bytes rounds down to 0.00", func(t *testing.T) {
		t.Parallel()
		u := UsageSummary{TotalBytes: 600}
		if got := u.FormatMegabytes(); got != "0.00" {
			t.Errorf("expected 0.00, got %q", got)
		}
	})

	t.Run("5 MiB renders 5.00", func(t *testing.T) {
		t.Parallel()
		u := UsageSummary{TotalBytes: 5 * 1024 * 1024}
		if got := u.FormatMegabytes(); got != "5.00" {
			t.Errorf("expected 5.00, got %q", got)
		}
	})

	t.Run("fractional volume keeps two decimals", func(t *testing.T) {
		t.Parallel()
		u := UsageSummary{TotalBytes: 1024*1024 + 512*1024} // 1.5 MiB
		if got := u.FormatMegabytes(); got != "1.50" {
			t.Errorf("expected 1.50, got %q", got)
		}
	})
}

// TestUsageSummaryNoActivity verifies the all-zero summary is reported
// as "no activity", which is a valid outcome rather than an error.
func TestUsageSummaryNoActivity(t *testing.T) {
	t.Parallel()

	u := UsageSummary{Identity: "alice"}
	if !u.NoActivity() {
		t.Error("empty summary should report no activity")
	}

	u.TotalEvents = 1
	u.LastSeen = time.Now()
	if u.NoActivity() {
		t.Error("summary with events should not report no activity")
	}
}
