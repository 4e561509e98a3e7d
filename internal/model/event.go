package model

import "time"

// LogEvent is one normalized record produced by a log ingestor. Events
// are transient: they are consumed immediately by the aggregator and
// never persisted. Optional fields use zero values for absence.
type LogEvent struct {
	// Timestamp is the event time. Syslog-style sources carry no year,
	// so the ingestor stamps one; see the ingest package for the policy.
	Timestamp time.Time

	// Identity is the authenticated user the line is attributed to.
	// Empty when the source format does not attribute lines reliably
	// (Dante via syslog); matching then degrades to substring search
	// over Message.
	Identity string

	// BytesTransferred is the byte count for the request, zero when the
	// source line carries none.
	BytesTransferred uint64

	// Destination is the requested URL or host:port, empty when unknown.
	Destination string

	// StatusCode is the backend's status/action field (e.g.
	// "TCP_MISS/200"), empty when the source has none.
	StatusCode string

	// Message is the free-text remainder of the source line. Only used
	// for substring identity matching on sources that do not populate
	// Identity.
	Message string
}
