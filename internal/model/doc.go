// Package model defines the core data types shared across the engine:
// backend kinds, identities, proxy settings, normalized log events, and
// derived usage summaries. Types here carry no I/O; persistence and
// parsing live in the packages that own those concerns.
package model
