package journal

import (
	"context"
	"testing"
)

// TestJournalRecordAndRecent verifies the insert/query round trip and
// the most-recent-first ordering.
func TestJournalRecordAndRecent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ctx := context.Background()
	entries := []Entry{
		{Backend: "socks5", Operation: "setup", Succeeded: true},
		{Backend: "socks5", Operation: "user-add", Username: "alice", Succeeded: true},
		{Backend: "http", Operation: "user-add", Username: "bob", Succeeded: false, Detail: "digest write failed"},
	}
	for _, e := range entries {
		if _, err := j.Record(ctx, e); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	if got[0].Operation != "user-add" || got[0].Backend != "http" {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[0].Succeeded {
		t.Error("failed entry should round-trip as failed")
	}
	if got[0].Detail != "digest write failed" {
		t.Errorf("detail = %q", got[0].Detail)
	}
	if got[2].Operation != "setup" {
		t.Errorf("oldest entry = %+v", got[2])
	}

	if got[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

// TestJournalRecentForBackend verifies per-backend filtering.
func TestJournalRecentForBackend(t *testing.T) {
	t.Parallel()

	j, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ctx := context.Background()
	for _, e := range []Entry{
		{Backend: "socks5", Operation: "user-add", Username: "alice", Succeeded: true},
		{Backend: "http", Operation: "user-add", Username: "bob", Succeeded: true},
	} {
		if _, err := j.Record(ctx, e); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	got, err := j.RecentForBackend(ctx, "http", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("filtered entries = %+v", got)
	}
}

// TestJournalOpenRequiresExisting verifies the read-only open mode
// refuses to create a new database.
func TestJournalOpenRequiresExisting(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false, EnableWAL: true}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error for missing database")
	}
}
