package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// TestDanteReaderParsesSyslogLines verifies timestamp stamping and
// message extraction from Dante's syslog journal.
func TestDanteReaderParsesSyslogLines(t *testing.T) {
	t.Parallel()

	// "now" is mid-December so November lines are in the same year.
	now := time.Date(2023, time.December, 15, 12, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	line := "Nov 14 09:21:07 proxy danted[512]: info: pass(1): tcp/connect [: username%alice@10.0.0.5.51234 -> a.com.443]\n"
	r := NewDanteReader(strings.NewReader(line), WithDanteClock(clock))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if ev.Identity != "" {
		t.Errorf("identity should be empty for syslog sources, got %q", ev.Identity)
	}
	if !strings.Contains(ev.Message, "alice") {
		t.Errorf("message lost: %q", ev.Message)
	}
	if ev.Timestamp.Year() != 2023 || ev.Timestamp.Month() != time.November || ev.Timestamp.Day() != 14 {
		t.Errorf("timestamp = %v", ev.Timestamp)
	}
	if ev.Destination != "a.com.443" {
		t.Errorf("destination = %q", ev.Destination)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

// TestDanteReaderYearRollover verifies a December line read in January
// is stamped with the previous year rather than the future.
func TestDanteReaderYearRollover(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	line := "Dec 31 23:59:01 proxy danted[512]: info: pass(1): tcp/connect\n"
	r := NewDanteReader(strings.NewReader(line), WithDanteClock(clock))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if ev.Timestamp.Year() != 2023 {
		t.Errorf("year = %d, want 2023 (rollover)", ev.Timestamp.Year())
	}
}

// TestDanteReaderSkipsUnparseableLines verifies malformed lines are
// counted and skipped.
func TestDanteReaderSkipsUnparseableLines(t *testing.T) {
	t.Parallel()

	log := strings.Join([]string{
		"completely wrong",
		"Nov 14 09:21:07 proxy danted[512]: info: pass(1): connect",
		"short",
		"",
	}, "\n")

	r := NewDanteReader(strings.NewReader(log))
	count := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
	}
	if count != 1 {
		t.Errorf("events = %d, want 1", count)
	}
	if r.Skipped() != 2 {
		t.Errorf("skipped = %d, want 2", r.Skipped())
	}
}

// TestExtractDestination covers the best-effort arrow parsing.
func TestExtractDestination(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    string
	}{
		{"tcp/connect [: alice -> b.org.443]", "b.org.443"},
		{"tcp/connect -> 10.0.0.9.80 (0 bytes)", "10.0.0.9.80"},
		{"no arrow here", ""},
		{"dangling -> ", ""},
	}
	for _, c := range cases {
		if got := extractDestination(c.message); got != c.want {
			t.Errorf("extractDestination(%q) = %q, want %q", c.message, got, c.want)
		}
	}
}
