package influxdb

import "errors"

// Sentinel errors for the telemetry sink. Match with errors.Is.
var (
	// ErrDisabled: Connect was called with influxdb disabled in config.
	// Callers treat this as "no sink", not a failure.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrNotConnected: a write or flush was attempted after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed: the startup ping did not reach a healthy
	// server.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed heads the asynchronous write errors surfaced
	// through the SetOnError callback; point writes themselves never
	// block or fail inline.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
