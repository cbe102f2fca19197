// Package telemetry bridges door events to external sinks.
//
// The Bridge subscribes to the engine as a door.Listener and fans
// events out to MQTT topics (petdoor/{door}/...) and InfluxDB
// measurements; both sinks are optional and independently nil-able.
// It also accepts remote commands published to petdoor/{door}/command
// and feeds them through the same engine entry points the protocol
// server uses.
//
// Listener callbacks run on the engine loop, so the bridge only
// enqueues there; a worker goroutine does the actual publishing and
// drops events rather than let a slow broker stall door motion.
package telemetry
