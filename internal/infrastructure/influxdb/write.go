package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDoorTransition records a door state change.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - door: The door's name from config (e.g., "front-door")
//   - state: The wire state name (e.g., "DOOR_RISING")
//   - position: Panel position 0-100
func (c *Client) WriteDoorTransition(door, state string, position int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"door_state",
		map[string]string{
			"door":  door,
			"state": state,
		},
		map[string]interface{}{
			"position": position,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSensorEvent records a sensor detection edge.
//
// Parameters:
//   - door: The door's name
//   - sensor: "inside" or "outside"
//   - active: Whether detection went active or cleared
func (c *Client) WriteSensorEvent(door, sensor string, active bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_events",
		map[string]string{
			"door":   door,
			"sensor": sensor,
		},
		map[string]interface{}{
			"active": active,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBattery records the battery level and charging state.
func (c *Client) WriteBattery(door string, percent int, acPresent bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"battery",
		map[string]string{
			"door": door,
		},
		map[string]interface{}{
			"percent":    percent,
			"ac_present": acPresent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCounters records the lifetime open-cycle and autoretract
// counters. Written on change so the series doubles as an event log.
func (c *Client) WriteCounters(door string, openCycles, autoRetracts int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"counters",
		map[string]string{
			"door": door,
		},
		map[string]interface{}{
			"total_open_cycles":   openCycles,
			"total_auto_retracts": autoRetracts,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers don't
// cover.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
