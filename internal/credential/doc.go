// Package credential owns the set of proxy identities and their
// backend-specific persistence: a flat roster plus OS accounts for
// Dante, a roster plus htpasswd-style bcrypt digest file for Squid, and
// a singleton preshared secret for Shadowsocks. All writes go through
// write-to-temp-then-rename so a killed process never leaves a store in
// a partially edited state.
package credential
