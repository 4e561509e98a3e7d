// Package ingest parses backend log streams into normalized events.
// Readers are lazy and single-pass: lines are pulled on demand so
// arbitrarily large logs never require full buffering. Lines that fail
// to parse are skipped, and the skip count is surfaced rather than
// hidden, because silent drops are a real data-loss risk for accounting.
package ingest
