// Package logging configures slog handlers for the daemon and CLI.
//
// Two output formats are supported: a console handler that renders
// flattened key=value pairs for interactive use, and a JSON handler for
// log shipping. Both can write to stdout and a log file simultaneously.
package logging
