// Package config provides configuration loading for the pet door simulator.
//
// Configuration is loaded from a YAML file with three levels of precedence:
//
//  1. Hardcoded defaults (Default)
//  2. YAML file values
//  3. PETDOOR_* environment variables
//
// # Sections
//
//   - device: door identity, motion phase timing, battery simulation
//   - server: TCP protocol server bind address (default port 3000)
//   - database: SQLite persistence for settings, schedules and counters
//   - mqtt: optional event bridge to an MQTT broker
//   - influxdb: optional telemetry sink
//   - logging: level, format and output destination
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
