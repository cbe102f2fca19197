// Power Pet Door simulator.
//
// petdoorsim emulates a Power Pet Door appliance: the TCP wire
// protocol on port 3000, the door motion state machine, sensor safety
// policy, schedules, and battery simulation. State persists in SQLite
// across restarts; MQTT and InfluxDB telemetry are optional.
//
// With -scenario it instead runs one declarative test scenario against
// an in-process device and exits 0 on pass, 1 on failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corporategoth/petdoor-core/internal/door"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/config"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/database"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/influxdb"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/logging"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/mqtt"
	"github.com/corporategoth/petdoor-core/internal/protocol"
	"github.com/corporategoth/petdoor-core/internal/scenario"
	"github.com/corporategoth/petdoor-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	scenarioRef := flag.String("scenario", "",
		"run a builtin scenario or scenario file, then exit")
	listScenarios := flag.Bool("list-scenarios", false,
		"list builtin scenario names and exit")
	flag.Parse()

	if *listScenarios {
		for _, name := range scenario.Builtins() {
			fmt.Println(name)
		}
		return
	}

	// Cancel on interrupt signals for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *scenarioRef != "" {
		if err := runScenario(ctx, *scenarioRef); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the long-lived simulator, separated from main for
// testability. It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting petdoorsim",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Restore persisted device state. Settings saved over the wire win
	// over the config file's seed values.
	store := door.NewStore(db)
	settings, err := store.LoadSettings()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	notifications, err := store.LoadNotifications()
	if err != nil {
		return fmt.Errorf("loading notifications: %w", err)
	}
	schedules, err := store.LoadSchedules()
	if err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}
	counters, err := store.LoadCounters()
	if err != nil {
		return fmt.Errorf("loading counters: %w", err)
	}
	log.Info("device state restored",
		"schedules", len(schedules),
		"total_open_cycles", counters.TotalOpenCycles,
	)

	engine := door.New(door.Options{
		Timing:        engineTiming(cfg.Device.Timing),
		Settings:      settings,
		Notifications: notifications,
		Schedules:     schedules,
		Counters:      counters,
		Battery:       initialBattery(cfg.Device.Battery),
		BatterySim:    batterySim(cfg.Device.Battery),
		Store:         store,
		Logger:        log.With("component", "engine"),
	})
	engine.Start()
	defer func() {
		log.Info("stopping engine")
		engine.Stop()
	}()
	log.Info("engine started", "door", cfg.Device.Name)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Fan door events out to whichever telemetry sinks are connected
	if mqttClient != nil || influxClient != nil {
		// Assign through locals so a disabled sink stays a nil interface
		var pub telemetry.Publisher
		if mqttClient != nil {
			pub = mqttClient
		}
		var metrics telemetry.MetricsWriter
		if influxClient != nil {
			metrics = influxClient
		}

		bridge := telemetry.NewBridge(cfg.Device.Name, engine, pub, metrics,
			log.With("component", "telemetry"))
		if startErr := bridge.Start(); startErr != nil {
			return fmt.Errorf("starting telemetry bridge: %w", startErr)
		}
		engine.Subscribe(bridge)
		defer func() {
			log.Info("stopping telemetry bridge")
			engine.Unsubscribe(bridge)
			bridge.Stop()
		}()
		log.Info("telemetry bridge started", "door", cfg.Device.Name)
	}

	// Start the wire protocol server
	srv := protocol.NewServer(engine, log.With("component", "protocol"))
	if listenErr := srv.Listen(cfg.Server.Addr()); listenErr != nil {
		return fmt.Errorf("binding protocol server: %w", listenErr)
	}
	defer func() {
		log.Info("closing protocol server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing protocol server", "error", closeErr)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, protocol.ErrServerClosed) {
			return fmt.Errorf("protocol server: %w", err)
		}
	}

	log.Info("petdoorsim stopped")
	return nil
}

// runScenario executes one scenario against a fresh in-process device
// and returns an error when the scenario fails. No database, protocol
// server, or telemetry is wired up; the runner owns the engine.
func runScenario(ctx context.Context, ref string) error {
	log := logging.Default()

	cfg, err := loadConfigOrDefault(log)
	if err != nil {
		return err
	}
	log = logging.New(cfg.Logging, version)

	sc, err := resolveScenario(ref)
	if err != nil {
		return err
	}
	log.Info("running scenario",
		"scenario", sc.Name,
		"steps", len(sc.Steps),
		"door", cfg.Device.Name,
	)

	settings := door.DefaultSettings()
	if cfg.Device.Timezone != "" {
		settings.Timezone = cfg.Device.Timezone
	}
	if cfg.Device.Timing.HoldCentiseconds > 0 {
		settings.HoldTimeCS = cfg.Device.Timing.HoldCentiseconds
	}

	engine := door.New(door.Options{
		Timing:     engineTiming(cfg.Device.Timing),
		Settings:   settings,
		Battery:    initialBattery(cfg.Device.Battery),
		BatterySim: batterySim(cfg.Device.Battery),
		Logger:     log.With("component", "engine"),
	})
	engine.Start()
	defer engine.Stop()

	runner := scenario.NewRunner(engine, log.With("component", "scenario"))
	result := runner.Run(ctx, sc)
	if !result.Passed {
		return fmt.Errorf("scenario %q failed at step %d/%d: %s",
			result.Scenario, result.FailedStep, result.StepsTotal, result.Failure)
	}

	log.Info("scenario passed",
		"scenario", result.Scenario,
		"steps", result.StepsRun,
		"duration", result.Duration,
	)
	return nil
}

// resolveScenario treats the reference as a builtin name first and a
// file path second.
func resolveScenario(ref string) (scenario.Scenario, error) {
	sc, err := scenario.Builtin(ref)
	if err == nil {
		return sc, nil
	}
	if _, statErr := os.Stat(ref); statErr != nil {
		return scenario.Scenario{}, fmt.Errorf(
			"unknown scenario %q: not a builtin (see -list-scenarios) and not a file", ref)
	}
	return scenario.Load(ref)
}

// loadConfigOrDefault loads the config file, falling back to built-in
// defaults when the file does not exist. Scenario runs should work
// without any setup.
func loadConfigOrDefault(log *logging.Logger) (*config.Config, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no config file, using defaults", "path", path)
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// engineTiming converts the config's millisecond fields to durations,
// keeping factory defaults for anything unset.
func engineTiming(cfg config.TimingConfig) door.Timing {
	t := door.DefaultTiming()
	if cfg.RiseMS > 0 {
		t.Rise = cfg.Rise()
	}
	if cfg.SlowMS > 0 {
		t.Slow = cfg.Slow()
	}
	if cfg.CloseTopMS > 0 {
		t.CloseTop = cfg.CloseTop()
	}
	if cfg.CloseMidMS > 0 {
		t.CloseMid = cfg.CloseMid()
	}
	if cfg.TickMS > 0 {
		t.Tick = cfg.Tick()
	}
	return t
}

// initialBattery translates the config's battery seed into an initial
// battery state. The simulated door always ships with a battery
// installed and AC present.
func initialBattery(cfg config.BatteryConfig) door.BatteryState {
	b := door.BatteryState{Percent: 85, Present: true, ACPresent: true}
	if cfg.InitialPercent > 0 {
		b.Percent = cfg.InitialPercent
	}
	return b
}

// batterySim translates the config's charge/discharge rates.
func batterySim(cfg config.BatteryConfig) door.BatterySim {
	return door.BatterySim{
		ChargeRate:    cfg.ChargeRate,
		DischargeRate: cfg.DischargeRate,
		Interval:      cfg.UpdateInterval(),
	}
}

// getConfigPath returns the configuration file path.
// Uses PETDOOR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PETDOOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections that are wired
// up. MQTT and InfluxDB are both optional and may be nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
