// Package config holds the engine configuration: static backend
// descriptors (config/credential/log paths, service units, default
// ports, log-format column mapping) and the optional YAML override file
// that lets an operator relocate any of them. Configuration is loaded
// once per invocation; there is no cross-invocation cached state.
package config
