package credential

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/proxyadm/proxyadm/internal/confsync"
)

// rosterFileMode keeps the identity roster owner-readable only.
const rosterFileMode = 0600

// rosterEntry is one line of the roster file: the identity record for a
// multi-user backend, independent of the provisioned credential.
type rosterEntry struct {
	username  string
	createdAt time.Time
}

// readRoster parses the roster file at path. Line format is
// "username<TAB>unix-seconds". Returns entries in file (insertion)
// order. A missing file is returned as-is so callers can distinguish
// "store not initialized" from an empty store.
func readRoster(path string) ([]rosterEntry, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the engine config
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []rosterEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rawTime, _ := strings.Cut(line, "\t")
		createdAt := time.Time{}
		if rawTime != "" {
			if secs, err := strconv.ParseInt(rawTime, 10, 64); err == nil {
				createdAt = time.Unix(secs, 0)
			}
		}
		entries = append(entries, rosterEntry{username: name, createdAt: createdAt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	return entries, nil
}

// writeRoster replaces the roster file atomically, preserving entry
// order. Parent directories are created as needed.
func writeRoster(path string, entries []rosterEntry) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s\t%d\n", e.username, e.createdAt.Unix())
	}

	if err := confsync.WriteFileAtomic(path, []byte(sb.String()), rosterFileMode); err != nil {
		return fmt.Errorf("failed to write roster %s: %w", path, err)
	}
	return nil
}

// findEntry returns the index of username in entries, or -1.
func findEntry(entries []rosterEntry, username string) int {
	for i, e := range entries {
		if e.username == username {
			return i
		}
	}
	return -1
}

// ensureParentDir creates the directory holding path if needed.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
