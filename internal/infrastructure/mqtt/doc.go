// Package mqtt wraps paho.mqtt.golang for the pet door's optional
// event bridge.
//
// The telemetry bridge publishes door status, sensor detections and
// battery state to petdoor/{door}/... topics and accepts remote
// commands on petdoor/{door}/command. The connection arms a Last Will
// on petdoor/system/status so subscribers can distinguish a crash from
// a graceful shutdown.
//
// The client auto-reconnects with exponential backoff and restores
// subscriptions after a reconnect. All methods are safe for concurrent
// use.
package mqtt
