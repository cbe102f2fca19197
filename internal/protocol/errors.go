package protocol

import "errors"

// Sentinel errors for the protocol server.
var (
	// ErrServerClosed indicates Serve returned because Close was called.
	ErrServerClosed = errors.New("protocol: server closed")

	// ErrUnknownCommand indicates a cmd/config name with no registered
	// handler. Surfaced as a failure response, never a dropped
	// connection.
	ErrUnknownCommand = errors.New("protocol: unknown command")
)
