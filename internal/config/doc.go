// Package config loads, validates, and normalizes scriptcast configuration.
//
// Configuration lives in a TOML file (default ~/.config/scriptcast/config.toml,
// with a project-local scriptcast.toml fallback). YouTube credentials may be
// supplied through the environment instead of the file so tokens stay out of
// dotfiles.
package config
