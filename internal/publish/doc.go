// Package publish defines the interface between the lifecycle and the remote
// video platform, together with the error taxonomy upload retry logic keys on.
package publish
