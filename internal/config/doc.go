// Package config loads, validates, and defaults the TOML configuration that
// drives the parkour daemon and CLI.
//
// Load resolves the config location (explicit flag, then
// ~/.config/parkour/config.toml, then ./parkour.toml), decodes it over the
// defaults, expands ~ in every path field, and validates the result. Other
// packages should depend on the returned Config value rather than re-reading
// files or environment variables themselves.
package config
