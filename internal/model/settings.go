package model

import "errors"

// Settings validation errors. Package-level sentinels so callers can use
// errors.Is for programmatic handling.
var (
	// ErrInvalidPort is returned when the port is outside 1..65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrEmptyBindAddress is returned when no bind address is set.
	ErrEmptyBindAddress = errors.New("bind address must not be empty")
)

// DefaultBindAddress is used when the operator does not specify one.
const DefaultBindAddress = "0.0.0.0"

// ProxySettings is the declarative configuration for one backend. It is
// the single source of truth for rendered config files: in-memory copies
// are always re-derived from disk at the start of an operation, never
// cached across invocations.
type ProxySettings struct {
	// Port is the listen port. Must be within 1..65535; validated before
	// any write. Kept as int rather than uint16 so that out-of-range
	// values (0, 65536) survive long enough to be rejected explicitly.
	Port int

	// BindAddress is the listen address, e.g. "0.0.0.0".
	BindAddress string

	// BackendSpecific holds extra renderer inputs keyed by well-known
	// names (e.g. "method" for Shadowsocks, "externalInterface" for
	// Dante). Renderers read only the keys they understand.
	BackendSpecific map[string]string
}

// NewProxySettings returns settings with the backend's default port and
// bind address filled in.
func NewProxySettings(kind BackendKind) ProxySettings {
	return ProxySettings{
		Port:        kind.DefaultPort(),
		BindAddress: DefaultBindAddress,
	}
}

// Validate checks the settings invariants. It returns the first error
// found; fixing one error often makes others irrelevant.
func (s ProxySettings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidPort
	}
	if s.BindAddress == "" {
		return ErrEmptyBindAddress
	}
	return nil
}

// Specific returns the backend-specific value for key, or def when the
// key is absent or empty.
func (s ProxySettings) Specific(key, def string) string {
	if v, ok := s.BackendSpecific[key]; ok && v != "" {
		return v
	}
	return def
}
