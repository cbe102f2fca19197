package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the pet door simulator.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig contains the simulated door's identity and motion timing.
type DeviceConfig struct {
	// Name identifies this simulated door in logs and MQTT topics.
	Name string `yaml:"name"`

	// Timezone is the POSIX TZ string reported over the wire. It is opaque
	// to the engine; schedule evaluation uses the host clock in this zone
	// when the zone is resolvable, UTC otherwise.
	Timezone string `yaml:"timezone"`

	Timing  TimingConfig  `yaml:"timing"`
	Battery BatteryConfig `yaml:"battery"`
}

// TimingConfig controls the duration of each door motion phase.
// The real door's motion is fixed by its motor; the simulator makes the
// phases configurable so tests can run with fast timing.
type TimingConfig struct {
	// RiseMS is how long the door spends in DOOR_RISING (milliseconds).
	RiseMS int `yaml:"rise_ms"`

	// SlowMS is how long the door spends in DOOR_SLOWING before reaching
	// the top (milliseconds).
	SlowMS int `yaml:"slow_ms"`

	// CloseTopMS is the DOOR_CLOSING_TOP_OPEN phase duration (milliseconds).
	CloseTopMS int `yaml:"close_top_ms"`

	// CloseMidMS is the DOOR_CLOSING_MID_OPEN phase duration (milliseconds).
	CloseMidMS int `yaml:"close_mid_ms"`

	// HoldCentiseconds is the initial hold-open time in centiseconds, the
	// protocol's unit. Firmware exposes {200, 400, 600}; the simulator
	// accepts any non-negative value.
	HoldCentiseconds int `yaml:"hold_centiseconds"`

	// TickMS is the engine's timer resolution (milliseconds).
	TickMS int `yaml:"tick_ms"`
}

// Rise returns the rising phase duration.
func (t TimingConfig) Rise() time.Duration { return time.Duration(t.RiseMS) * time.Millisecond }

// Slow returns the slowing phase duration.
func (t TimingConfig) Slow() time.Duration { return time.Duration(t.SlowMS) * time.Millisecond }

// CloseTop returns the closing-from-top phase duration.
func (t TimingConfig) CloseTop() time.Duration { return time.Duration(t.CloseTopMS) * time.Millisecond }

// CloseMid returns the closing-from-mid phase duration.
func (t TimingConfig) CloseMid() time.Duration { return time.Duration(t.CloseMidMS) * time.Millisecond }

// Hold returns the hold-open duration.
func (t TimingConfig) Hold() time.Duration {
	return time.Duration(t.HoldCentiseconds) * 10 * time.Millisecond
}

// Tick returns the engine timer resolution.
func (t TimingConfig) Tick() time.Duration { return time.Duration(t.TickMS) * time.Millisecond }

// BatteryConfig controls the battery charge/discharge simulation.
type BatteryConfig struct {
	// InitialPercent is the battery level at startup (0-100).
	InitialPercent int `yaml:"initial_percent"`

	// ChargeRate is percent gained per minute while on AC. 0 disables charging.
	ChargeRate float64 `yaml:"charge_rate"`

	// DischargeRate is percent lost per minute while off AC. 0 disables discharge.
	DischargeRate float64 `yaml:"discharge_rate"`

	// UpdateIntervalMS is how often the battery simulation advances (milliseconds).
	UpdateIntervalMS int `yaml:"update_interval_ms"`
}

// UpdateInterval returns the battery simulation interval.
func (b BatteryConfig) UpdateInterval() time.Duration {
	return time.Duration(b.UpdateIntervalMS) * time.Millisecond
}

// ServerConfig contains the TCP protocol server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the TCP listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains the optional MQTT event bridge settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains the optional telemetry sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PETDOOR_SECTION_KEY
// For example: PETDOOR_DATABASE_PATH, PETDOOR_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. The motion timings match
// the physical door's observed behaviour; tests substitute faster values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:     "petdoor-sim",
			Timezone: "America/New_York",
			Timing: TimingConfig{
				RiseMS:           1500,
				SlowMS:           300,
				CloseTopMS:       400,
				CloseMidMS:       400,
				HoldCentiseconds: 1000,
				TickMS:           50,
			},
			Battery: BatteryConfig{
				InitialPercent:   85,
				ChargeRate:       0,
				DischargeRate:    0,
				UpdateIntervalMS: 30000,
			},
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Path:        "./data/petdoor.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "petdoor-sim",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PETDOOR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PETDOOR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PETDOOR_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PETDOOR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PETDOOR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PETDOOR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PETDOOR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("PETDOOR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("PETDOOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Device.Timing.HoldCentiseconds < 0 {
		errs = append(errs, "device.timing.hold_centiseconds must be non-negative")
	}
	if c.Device.Timing.TickMS <= 0 {
		errs = append(errs, "device.timing.tick_ms must be positive")
	}
	if c.Device.Battery.InitialPercent < 0 || c.Device.Battery.InitialPercent > 100 {
		errs = append(errs, "device.battery.initial_percent must be between 0 and 100")
	}
	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
