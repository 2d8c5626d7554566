// Package config loads, normalizes, and validates the TOML configuration
// that drives mixwheel: output/cache/log directories, the download cache
// expiry window, external tool binaries, and encode targets.
package config
