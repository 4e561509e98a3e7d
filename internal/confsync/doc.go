// Package confsync renders backend configuration text from declarative
// settings and commits it to disk safely: every commit backs up the
// previous file under a unique timestamped name and replaces the target
// atomically (write-to-temp-then-rename), so a crash mid-write never
// leaves a truncated config visible to the backend process.
package confsync
