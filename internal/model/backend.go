package model

import "fmt"

// BackendKind identifies which proxy backend an identity or operation
// targets. It selects the credential store, config renderer, and log
// ingestor variant once at startup; no other code branches on it.
//
// Design decision: We use iota-based constants rather than string
// constants for efficiency in comparisons and map keys. The String()
// method provides human-readable output when needed.
type BackendKind int

const (
	// SocksAuth is the Dante SOCKS5 backend. Credentials are OS-level
	// accounts tracked in a flat roster file; usage comes from syslog.
	SocksAuth BackendKind = iota

	// HTTPBasicAuth is the Squid HTTP proxy backend. Credentials live in
	// an htpasswd-style digest file; usage comes from the access log.
	HTTPBasicAuth

	// PresharedSecret is the Shadowsocks backend. There is no per-user
	// identity, only a single shared secret stored in the config file.
	PresharedSecret
)

// String returns the canonical CLI name of the backend.
func (k BackendKind) String() string {
	switch k {
	case SocksAuth:
		return "socks5"
	case HTTPBasicAuth:
		return "http"
	case PresharedSecret:
		return "shadowsocks"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(k))
	}
}

// ParseBackendKind converts a CLI backend name into a BackendKind.
// Accepted names are "socks5", "http", and "shadowsocks".
func ParseBackendKind(name string) (BackendKind, error) {
	switch name {
	case "socks5":
		return SocksAuth, nil
	case "http":
		return HTTPBasicAuth, nil
	case "shadowsocks":
		return PresharedSecret, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (expected socks5, http, or shadowsocks)", name)
	}
}

// DefaultPort returns the conventional listen port for the backend.
// Used when no port can be recovered from an existing config file.
func (k BackendKind) DefaultPort() int {
	switch k {
	case SocksAuth:
		return 1080
	case HTTPBasicAuth:
		return 3128
	case PresharedSecret:
		return 8388
	default:
		return 0
	}
}

// MultiUser reports whether the backend supports per-user identities.
// PresharedSecret has exactly one shared credential.
func (k BackendKind) MultiUser() bool {
	return k != PresharedSecret
}

// SupportsUsageStats reports whether usage accounting is available.
// Shadowsocks produces no per-identity log records, so stats are not
// supported for it.
func (k BackendKind) SupportsUsageStats() bool {
	return k != PresharedSecret
}
