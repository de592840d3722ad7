// Package api defines the transport DTOs shared by the daemon's HTTP server
// and the CLI client, plus read-side services over the content store.
package api
