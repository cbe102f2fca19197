// Package influxdb provides the pet door's optional telemetry sink.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes, and health monitoring. The
// telemetry bridge records door state transitions, sensor detections,
// battery levels and lifetime counters as time series.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // telemetry is optional; log and continue
//	}
//	defer client.Close()
//
//	client.WriteDoorTransition("front-door", "DOOR_RISING", 33)
//
// # Error Handling
//
// Writes are non-blocking; batch errors surface via SetOnError.
// Connection and health check errors are returned directly.
package influxdb
