// Package log provides slog-based logging that masks credential material
// before it reaches any handler. This tool handles proxy passwords and
// preshared secrets on almost every code path, so masking happens at the
// handler layer rather than relying on call sites to remember it.
package log
