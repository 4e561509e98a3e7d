// Package journal persists a local history of administrative operations
// in SQLite. The journal is an audit convenience: every entry records
// what was attempted and whether it succeeded, but the proxy
// configuration files remain the source of truth, so journal failures
// never abort the operation they describe.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// journalFileName is the database file created under the journal
// directory.
const journalFileName = "proxyadm.db"

// Journal is an append-mostly SQLite log of administrative operations.
//
// Design decision: one database file for all backends rather than one
// per backend. Cross-backend history queries stay a single SELECT and
// backup is a single file copy.
type Journal struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default journal options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Entry is one recorded operation.
type Entry struct {
	// ID is the database row identifier, assigned on insert.
	ID int64

	// Backend names the backend the operation targeted ("socks5",
	// "http", "shadowsocks").
	Backend string

	// Operation is the verb: "setup", "user-add", "user-del",
	// "user-passwd", "restart", and so on.
	Operation string

	// Username is the affected identity, empty for backend-wide
	// operations.
	Username string

	// Detail is free-text context, such as the error message of a
	// failed attempt.
	Detail string

	// Succeeded reports whether the operation completed.
	Succeeded bool

	// CreatedAt is the insert timestamp.
	CreatedAt time.Time
}

// Open opens or creates a Journal under the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned.
func Open(dir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dir, journalFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// createTables creates the schema if it doesn't exist.
func (j *Journal) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		backend TEXT NOT NULL,
		operation TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		succeeded INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_backend ON operations(backend);
	CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
	`

	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// Record inserts one entry and returns its row ID.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	query := `
	INSERT INTO operations (backend, operation, username, detail, succeeded)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		e.Backend,
		e.Operation,
		e.Username,
		e.Detail,
		boolToInt(e.Succeeded),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record operation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get operation ID: %w", err)
	}
	return id, nil
}

// Recent returns the newest entries, most recent first, at most limit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT id, backend, operation, username, detail, succeeded, created_at
	FROM operations
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	return scanEntries(rows)
}

// RecentForBackend returns the newest entries of one backend, most
// recent first, at most limit.
func (j *Journal) RecentForBackend(ctx context.Context, backend string, limit int) ([]Entry, error) {
	query := `
	SELECT id, backend, operation, username, detail, succeeded, created_at
	FROM operations
	WHERE backend = ?
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, backend, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	return scanEntries(rows)
}

// scanEntries drains an operations result set. Timestamps come back as
// TEXT from the driver and are parsed explicitly.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var succeeded int
		var timestamp string
		if err := rows.Scan(&e.ID, &e.Backend, &e.Operation, &e.Username, &e.Detail, &succeeded, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		e.Succeeded = succeeded != 0
		e.CreatedAt = parseTimestamp(timestamp)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return entries, nil
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format, returning the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
