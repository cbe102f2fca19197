package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/corporategoth/petdoor-core/internal/door"
	"github.com/corporategoth/petdoor-core/internal/infrastructure/mqtt"
)

// eventQueueSize bounds the bridge's backlog. The engine loop must
// never block on telemetry, so a full queue drops events instead.
const eventQueueSize = 256

// Device is the engine surface the bridge needs: counters for the
// telemetry worker and motion controls for remote commands.
type Device interface {
	Stats() (door.Counters, error)
	RequestOpen(hold bool)
	RequestClose()
	TriggerSensor(side door.Sensor)
	Obstruct()
}

// Publisher is the MQTT surface the bridge uses. *mqtt.Client
// satisfies it; nil disables the MQTT side.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// MetricsWriter is the time-series surface the bridge uses.
// *influxdb.Client satisfies it; nil disables the InfluxDB side.
type MetricsWriter interface {
	WriteDoorTransition(door, state string, position int)
	WriteSensorEvent(door, sensor string, active bool)
	WriteBattery(door string, percent int, acPresent bool)
	WriteCounters(door string, openCycles, autoRetracts int64)
}

// Logger is the subset of the application logger the bridge needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type eventKind int

const (
	eventStatus eventKind = iota
	eventSensor
	eventBattery
	eventLowBattery
)

type event struct {
	kind    eventKind
	status  door.Status
	side    door.Sensor
	active  bool
	battery door.BatteryState
	percent int
}

// Bridge fans door events out to MQTT topics and InfluxDB
// measurements, and feeds remote MQTT commands back into the engine.
//
// It implements door.Listener. Listener callbacks run on the engine
// loop, so they only enqueue onto a buffered channel drained by the
// bridge's worker goroutine; publishing and counter queries happen
// there.
type Bridge struct {
	door    string
	dev     Device
	mqtt    Publisher
	metrics MetricsWriter
	logger  Logger
	topics  mqtt.Topics

	events chan event
	done   chan struct{}
	wg     sync.WaitGroup

	// lastCounters lets the worker write counter points only on change.
	lastCounters door.Counters
}

// NewBridge creates a bridge for the named door. Either sink may be
// nil; a bridge with both nil is a valid no-op. A nil logger discards
// output.
func NewBridge(doorName string, dev Device, pub Publisher, metrics MetricsWriter, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		door:    doorName,
		dev:     dev,
		mqtt:    pub,
		metrics: metrics,
		logger:  logger,
		events:  make(chan event, eventQueueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the worker and subscribes to the remote command
// topic. The caller registers the bridge on the engine separately.
func (b *Bridge) Start() error {
	if b.mqtt != nil {
		topic := b.topics.Command(b.door)
		if err := b.mqtt.Subscribe(topic, 1, b.handleCommand); err != nil {
			return err
		}
		b.logger.Info("telemetry bridge accepting remote commands", "topic", topic)
	}

	b.wg.Add(1)
	go b.run()
	return nil
}

// Stop drains the worker. Events enqueued after Stop are dropped.
func (b *Bridge) Stop() {
	close(b.done)
	b.wg.Wait()
}

// =========================================================================
// door.Listener (engine-loop side: enqueue only, never block)
// =========================================================================

// DoorStatusChanged implements door.Listener.
func (b *Bridge) DoorStatusChanged(status door.Status) {
	b.enqueue(event{kind: eventStatus, status: status})
}

// SensorEvent implements door.Listener.
func (b *Bridge) SensorEvent(side door.Sensor, active bool) {
	b.enqueue(event{kind: eventSensor, side: side, active: active})
}

// BatteryChanged implements door.Listener.
func (b *Bridge) BatteryChanged(state door.BatteryState) {
	b.enqueue(event{kind: eventBattery, battery: state})
}

// LowBattery implements door.Listener.
func (b *Bridge) LowBattery(percent int) {
	b.enqueue(event{kind: eventLowBattery, percent: percent})
}

func (b *Bridge) enqueue(ev event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Warn("telemetry queue full, dropping event", "door", b.door)
	}
}

// =========================================================================
// Worker
// =========================================================================

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.events:
			b.dispatch(ev)
		case <-b.done:
			return
		}
	}
}

func (b *Bridge) dispatch(ev event) {
	switch ev.kind {
	case eventStatus:
		b.publishStatus(ev.status)
		b.publishCounters()
	case eventSensor:
		b.publishSensor(ev.side, ev.active)
	case eventBattery:
		b.publishBattery(ev.battery)
	case eventLowBattery:
		b.publishLowBattery(ev.percent)
	}
}

func (b *Bridge) publishStatus(status door.Status) {
	if b.metrics != nil {
		b.metrics.WriteDoorTransition(b.door, status.State.String(), status.Position)
	}
	if b.mqtt == nil {
		return
	}
	payload := b.marshal(statusPayload{
		Door:      b.door,
		Status:    status.State.String(),
		Position:  status.Position,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if payload == nil {
		return
	}
	if err := b.mqtt.Publish(b.topics.DoorStatus(b.door), payload, 1, true); err != nil {
		b.logger.Warn("door status publish failed", "door", b.door, "error", err)
	}
}

// publishCounters queries the engine for lifetime counters and writes
// a point when they moved. Runs on the worker goroutine, so calling
// back into the engine is safe here.
func (b *Bridge) publishCounters() {
	if b.metrics == nil {
		return
	}
	counters, err := b.dev.Stats()
	if err != nil {
		return
	}
	if counters == b.lastCounters {
		return
	}
	b.lastCounters = counters
	b.metrics.WriteCounters(b.door, counters.TotalOpenCycles, counters.TotalAutoRetracts)
}

func (b *Bridge) publishSensor(side door.Sensor, active bool) {
	if b.metrics != nil {
		b.metrics.WriteSensorEvent(b.door, side.String(), active)
	}
	if b.mqtt == nil {
		return
	}
	payload := b.marshal(sensorPayload{
		Door:      b.door,
		Sensor:    side.String(),
		Active:    active,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if payload == nil {
		return
	}
	if err := b.mqtt.Publish(b.topics.SensorEvent(b.door), payload, 1, false); err != nil {
		b.logger.Warn("sensor event publish failed", "door", b.door, "error", err)
	}
}

func (b *Bridge) publishBattery(state door.BatteryState) {
	if b.metrics != nil {
		b.metrics.WriteBattery(b.door, state.Percent, state.ACPresent)
	}
	if b.mqtt == nil {
		return
	}
	payload := b.marshal(batteryPayload{
		Door:      b.door,
		Percent:   state.Percent,
		Present:   state.Present,
		ACPresent: state.ACPresent,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if payload == nil {
		return
	}
	if err := b.mqtt.Publish(b.topics.Battery(b.door), payload, 1, true); err != nil {
		b.logger.Warn("battery publish failed", "door", b.door, "error", err)
	}
}

func (b *Bridge) publishLowBattery(percent int) {
	if b.mqtt == nil {
		return
	}
	payload := b.marshal(lowBatteryPayload{
		Door:      b.door,
		Percent:   percent,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if payload == nil {
		return
	}
	if err := b.mqtt.Publish(b.topics.LowBattery(b.door), payload, 1, false); err != nil {
		b.logger.Warn("low battery publish failed", "door", b.door, "error", err)
	}
}

func (b *Bridge) marshal(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("telemetry payload marshal failed", "error", err)
		return nil
	}
	return payload
}
