package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrConfigNotFound is returned when an explicitly requested
	// configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrMissingConfigPath is returned when a backend descriptor has no
	// config file path. Every backend needs one; it is the system of
	// record for rendered settings.
	ErrMissingConfigPath = errors.New("backend descriptor missing config path")

	// ErrMissingCredentialPath is returned when a multi-user backend has
	// no roster path.
	ErrMissingCredentialPath = errors.New("backend descriptor missing credential path")

	// ErrMissingService is returned when a backend descriptor names no
	// service unit for the lifecycle collaborator.
	ErrMissingService = errors.New("backend descriptor missing service name")

	// ErrInvalidBytesField is returned when the access-log bytes column
	// index is negative.
	ErrInvalidBytesField = errors.New("invalid log format: bytes field index must be non-negative")
)
