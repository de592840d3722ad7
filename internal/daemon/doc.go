// Package daemon runs the long-lived scriptcast process: it enforces
// single-instance execution, reconciles interrupted uploads at startup, and
// serves the HTTP API the CLI talks to.
package daemon
