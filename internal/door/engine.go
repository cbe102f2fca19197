package door

import (
	"sort"
	"sync"
	"time"
)

// LowBatteryThreshold is the percentage at or below which a descending
// battery produces a low-battery event.
const LowBatteryThreshold = 20

// opQueueSize bounds the engine's pending operation queue.
const opQueueSize = 64

// Logger is the minimal logging interface the engine needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener receives engine events. Methods are invoked synchronously on
// the engine's event loop, in the causal order of the state changes
// that produced them; implementations must not block and must not call
// back into the engine.
type Listener interface {
	// DoorStatusChanged fires on every motion phase transition.
	DoorStatusChanged(status Status)

	// SensorEvent fires on each detection transition (on/off) per side.
	SensorEvent(side Sensor, active bool)

	// BatteryChanged fires when the reported battery state changes.
	BatteryChanged(state BatteryState)

	// LowBattery fires once when the percentage crosses the threshold
	// while descending.
	LowBattery(percent int)
}

// Persister is the durable-state interface the engine writes through.
// Failures are logged and never interrupt device behavior.
type Persister interface {
	SaveSettings(settings Settings) error
	SaveNotifications(settings NotificationSettings) error
	UpsertSchedule(schedule Schedule) error
	DeleteSchedule(index int) error
	SaveCounters(counters Counters) error
	RecordEvent(eventType string, state State, detail string) error
}

// BatterySim configures the background charge/discharge simulation.
// Rates are percent per minute; a zero rate disables that direction.
type BatterySim struct {
	ChargeRate    float64
	DischargeRate float64
	Interval      time.Duration
}

// Options configures a new Engine. Zero-valued sections fall back to
// device factory defaults.
type Options struct {
	Timing        Timing
	Settings      Settings
	Notifications NotificationSettings
	Schedules     []Schedule
	Counters      Counters
	Battery       BatteryState
	Hardware      HardwareInfo
	BatterySim    BatterySim
	Store         Persister
	Logger        Logger
}

// Engine is the transition engine: the single owner of all mutable
// device state. Every mutation is serialized through one event loop;
// the timer tick and external requests both enqueue onto it, so no two
// mutations ever interleave.
type Engine struct {
	timing Timing
	store  Persister
	logger Logger

	// All fields below are owned by the run loop.
	settings  Settings
	notif     NotificationSettings
	schedules map[int]Schedule
	counters  Counters
	hw        HardwareInfo

	state         State
	phaseLeft     time.Duration
	holdLeft      time.Duration
	holdRequested bool

	// frozen marks a closing phase whose motor disengaged after an
	// obstruction with autoretract off. No automatic progress until an
	// explicit open or close request.
	frozen bool

	detected    [2]bool
	detectClear [2]time.Time

	batteryLevel   float64
	batteryPresent bool
	acPresent      bool
	batterySim     BatterySim
	lastBatterySim time.Time

	tzLoc *time.Location

	listeners []Listener

	ops      chan func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an engine from the given options. Call Start to begin
// advancing time.
func New(opts Options) *Engine {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}
	if opts.Notifications == (NotificationSettings{}) {
		opts.Notifications = DefaultNotifications()
	}
	if opts.Hardware == (HardwareInfo{}) {
		opts.Hardware = DefaultHardwareInfo()
	}
	if opts.Battery == (BatteryState{}) {
		opts.Battery = BatteryState{Percent: 85, Present: true, ACPresent: true}
	}
	if opts.BatterySim.Interval <= 0 {
		opts.BatterySim.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	e := &Engine{
		timing:         opts.Timing,
		store:          opts.Store,
		logger:         opts.Logger,
		settings:       opts.Settings,
		notif:          opts.Notifications,
		schedules:      make(map[int]Schedule, len(opts.Schedules)),
		counters:       opts.Counters,
		hw:             opts.Hardware,
		state:          StateClosed,
		batteryLevel:   float64(opts.Battery.Percent),
		batteryPresent: opts.Battery.Present,
		acPresent:      opts.Battery.ACPresent,
		batterySim:     opts.BatterySim,
		ops:            make(chan func(), opQueueSize),
		done:           make(chan struct{}),
	}
	for _, s := range opts.Schedules {
		e.schedules[s.Index] = s
	}
	e.reloadLocation()
	return e
}

// Start launches the event loop. The loop runs until Stop is called;
// door timers keep advancing regardless of protocol connectivity.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop terminates the event loop and waits for it to exit. Pending
// synchronous calls return ErrEngineStopped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.timing.Tick)
	defer ticker.Stop()

	last := time.Now()
	e.lastBatterySim = last

	for {
		select {
		case <-e.done:
			return
		case fn := <-e.ops:
			fn()
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			e.tick(now, elapsed)
		}
	}
}

// post enqueues a fire-and-forget mutation.
func (e *Engine) post(fn func()) {
	select {
	case e.ops <- fn:
	case <-e.done:
	}
}

// call enqueues a mutation and waits for the loop to execute it.
func (e *Engine) call(fn func()) error {
	ran := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(ran) }:
	case <-e.done:
		return ErrEngineStopped
	}
	select {
	case <-ran:
		return nil
	case <-e.done:
		return ErrEngineStopped
	}
}

// Subscribe registers a listener for engine events.
func (e *Engine) Subscribe(l Listener) {
	e.post(func() { e.listeners = append(e.listeners, l) })
}

// Unsubscribe removes a previously registered listener.
func (e *Engine) Unsubscribe(l Listener) {
	e.post(func() {
		for i, cur := range e.listeners {
			if cur == l {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	})
}

// =========================================================================
// Timer tick
// =========================================================================

func (e *Engine) tick(now time.Time, elapsed time.Duration) {
	e.expireDetections(now)
	e.simulateBattery(now)
	e.advanceMotion(elapsed)
}

func (e *Engine) expireDetections(now time.Time) {
	for side := SensorInside; side <= SensorOutside; side++ {
		deadline := e.detectClear[side]
		if !deadline.IsZero() && now.After(deadline) {
			e.detectClear[side] = time.Time{}
			e.setDetection(side, false)
		}
	}
}

func (e *Engine) advanceMotion(elapsed time.Duration) {
	switch e.state {
	case StateRising:
		e.phaseLeft -= elapsed
		if e.phaseLeft <= 0 {
			e.transitionTo(StateSlowing)
			e.phaseLeft = e.timing.Slow
		}

	case StateSlowing:
		e.phaseLeft -= elapsed
		if e.phaseLeft <= 0 {
			e.reachTop()
		}

	case StateHolding:
		if e.presenceBlocksClose() {
			// Pet-proximity keep-open: reset rather than decrement
			e.holdLeft = e.settings.HoldTime()
			return
		}
		e.holdLeft -= elapsed
		if e.holdLeft <= 0 {
			e.transitionTo(StateClosingFromTop)
			e.phaseLeft = e.timing.CloseTop
		}

	case StateClosingFromTop:
		if e.frozen {
			return
		}
		e.phaseLeft -= elapsed
		if e.phaseLeft <= 0 {
			if e.maybeRetract() {
				return
			}
			e.transitionTo(StateClosingFromMid)
			e.phaseLeft = e.timing.CloseMid
		}

	case StateClosingFromMid:
		if e.frozen {
			return
		}
		e.phaseLeft -= elapsed
		if e.phaseLeft <= 0 {
			if e.maybeRetract() {
				return
			}
			e.transitionTo(StateClosed)
		}

	case StateClosed, StateKeptUp:
		// No timed progress in these phases
	}
}

// reachTop completes an opening sequence. This is the open-cycle
// counting point.
func (e *Engine) reachTop() {
	if e.holdRequested {
		e.transitionTo(StateKeptUp)
	} else {
		e.transitionTo(StateHolding)
		e.holdLeft = e.settings.HoldTime()
	}
	e.counters.TotalOpenCycles++
	e.persistCounters()
}

// presenceBlocksClose evaluates both sides' current detection against
// the safety policy.
func (e *Engine) presenceBlocksClose() bool {
	return BlocksClose(e.settings, SensorInside, e.detected[SensorInside]) ||
		BlocksClose(e.settings, SensorOutside, e.detected[SensorOutside])
}

// maybeRetract reverses a closing door when a blocking detection is
// present and autoretract is on. Returns true if the door retracted.
func (e *Engine) maybeRetract() bool {
	if !e.presenceBlocksClose() || !e.settings.Autoretract {
		return false
	}
	e.retract("sensor blocking close")
	return true
}

func (e *Engine) retract(detail string) {
	e.logger.Info("auto-retracting", "reason", detail, "state", e.state.String())
	e.setDetection(SensorInside, false)
	e.setDetection(SensorOutside, false)
	e.detectClear[SensorInside] = time.Time{}
	e.detectClear[SensorOutside] = time.Time{}
	e.counters.TotalAutoRetracts++
	e.persistCounters()
	e.recordEvent("autoretract", detail)
	e.holdRequested = false
	e.transitionTo(StateRising)
	e.phaseLeft = e.timing.Rise
}

func (e *Engine) transitionTo(next State) {
	if next == e.state {
		return
	}
	e.logger.Debug("door transition", "from", e.state.String(), "to", next.String())
	e.state = next
	e.frozen = false
	e.recordEvent("status", "")
	for _, l := range e.listeners {
		l.DoorStatusChanged(Status{State: next, Position: next.Position()})
	}
}

// =========================================================================
// Door control
// =========================================================================

// RequestOpen asks the door to open, optionally holding it up until an
// explicit close. With power off the request is accepted but inert,
// matching the physical device taking commands while motor control is
// disabled.
func (e *Engine) RequestOpen(hold bool) {
	e.post(func() { e.open(hold) })
}

func (e *Engine) open(hold bool) {
	if !e.settings.PowerOn {
		e.logger.Info("open request ignored", "reason", "power off")
		return
	}
	switch e.state {
	case StateHolding, StateKeptUp, StateRising, StateSlowing:
		// Already open or opening

	case StateClosingFromTop:
		// Reverse at the equivalent position and continue opening
		e.holdRequested = hold
		e.transitionTo(StateSlowing)
		e.phaseLeft = e.timing.Slow

	case StateClosingFromMid:
		e.holdRequested = hold
		e.transitionTo(StateRising)
		e.phaseLeft = e.timing.Rise

	case StateClosed:
		e.holdRequested = hold
		e.transitionTo(StateRising)
		e.phaseLeft = e.timing.Rise
	}
}

// RequestClose asks the door to close. Closing an already-closed door
// is a no-op with no notification. An explicit close resumes a closing
// phase frozen by an obstruction.
func (e *Engine) RequestClose() {
	e.post(func() { e.closeDoor() })
}

func (e *Engine) closeDoor() {
	if !e.settings.PowerOn {
		e.logger.Info("close request ignored", "reason", "power off")
		return
	}
	switch e.state {
	case StateClosed:
		// Idempotent

	case StateClosingFromTop, StateClosingFromMid:
		if e.frozen {
			// Explicit request re-engages the motor
			e.frozen = false
			e.phaseLeft = e.closingPhaseDuration()
		}

	case StateRising:
		// Reverse at the equivalent position
		e.holdRequested = false
		e.transitionTo(StateClosingFromMid)
		e.phaseLeft = e.timing.CloseMid

	case StateSlowing:
		e.holdRequested = false
		e.transitionTo(StateClosingFromTop)
		e.phaseLeft = e.timing.CloseTop

	case StateHolding, StateKeptUp:
		e.holdRequested = false
		e.transitionTo(StateClosingFromTop)
		e.phaseLeft = e.timing.CloseTop
	}
}

func (e *Engine) closingPhaseDuration() time.Duration {
	if e.state == StateClosingFromTop {
		return e.timing.CloseTop
	}
	return e.timing.CloseMid
}

// TriggerSensor simulates a pet tripping a sensor. Detection raises the
// side's presence flag for the retrigger window and emits a sensor
// event; whether the trigger opens the door is a separate policy
// decision. With power off the device detects nothing.
func (e *Engine) TriggerSensor(side Sensor) {
	e.post(func() { e.triggerSensor(side) })
}

func (e *Engine) triggerSensor(side Sensor) {
	if !e.settings.PowerOn {
		e.logger.Info("sensor trigger ignored", "side", side.String(), "reason", "power off")
		return
	}
	enabled := e.settings.InsideEnabled
	if side == SensorOutside {
		enabled = e.settings.OutsideEnabled
	}
	if !enabled {
		e.logger.Info("sensor trigger ignored", "side", side.String(), "reason", "sensor disabled")
		return
	}

	e.setDetection(side, true)
	e.detectClear[side] = time.Now().Add(e.timing.SensorRetriggerWindow)

	if e.state == StateClosed && CanSensorOpen(e.settings, e.scheduleList(), side, e.localNow()) {
		e.logger.Info("sensor opening door", "side", side.String())
		e.open(false)
	}
}

// Obstruct simulates an obstruction. While opening, the door treats its
// current position as fully open and enters Holding; real firmware
// behavior for this case is undocumented, this matches the emulation's
// documented approximation. While closing it either autoretracts or
// freezes the phase with the motor disengaged. Otherwise it presents as
// a persistent inside detection.
func (e *Engine) Obstruct() {
	e.post(func() { e.obstruct() })
}

func (e *Engine) obstruct() {
	if !e.settings.PowerOn {
		return
	}
	switch {
	case e.state.IsOpening():
		e.recordEvent("obstruction", "while opening")
		e.transitionTo(StateHolding)
		e.holdLeft = e.settings.HoldTime()

	case e.state.IsClosing():
		e.recordEvent("obstruction", "while closing")
		if e.settings.Autoretract {
			e.retract("obstruction")
		} else {
			// Motor disengages; gravity holds the panel where it is
			// until an explicit open or close request.
			e.logger.Info("obstruction with autoretract off, motor disengaged",
				"state", e.state.String())
			e.frozen = true
		}

	default:
		// Closed or held open: the obstruction sits in the doorway
		e.recordEvent("obstruction", "at rest")
		e.setDetection(SensorInside, true)
		e.detectClear[SensorInside] = time.Time{}
	}
}

// SetPetPresence sets a persistent inside-side detection, the lever
// scenarios use to hold the door open past its timer.
func (e *Engine) SetPetPresence(present bool) {
	e.post(func() {
		e.setDetection(SensorInside, present)
		e.detectClear[SensorInside] = time.Time{}
		if present {
			e.setDetection(SensorOutside, false)
			e.detectClear[SensorOutside] = time.Time{}
		}
	})
}

func (e *Engine) setDetection(side Sensor, active bool) {
	if e.detected[side] == active {
		return
	}
	e.detected[side] = active
	for _, l := range e.listeners {
		l.SensorEvent(side, active)
	}
}

// =========================================================================
// Settings
// =========================================================================

// SetFlag updates one boolean setting. Synchronous; the new value is
// visible to every subsequent operation once this returns.
func (e *Engine) SetFlag(flag Setting, value bool) error {
	return e.call(func() {
		if e.settings.Get(flag) == value {
			return
		}
		e.settings.set(flag, value)
		e.logger.Info("setting changed", "setting", flag.String(), "value", value)
		e.persistSettings()
	})
}

// Flag reads one boolean setting.
func (e *Engine) Flag(flag Setting) (bool, error) {
	var v bool
	err := e.call(func() { v = e.settings.Get(flag) })
	return v, err
}

// SetHoldTime updates the hold-open countdown, in centiseconds.
func (e *Engine) SetHoldTime(centiseconds int) error {
	if centiseconds < 0 {
		return ErrInvalidHoldTime
	}
	return e.call(func() {
		e.settings.HoldTimeCS = centiseconds
		e.persistSettings()
	})
}

// SetTimezone updates the device timezone. Accepts an IANA zone name
// or a POSIX TZ string; the value is stored and reported as-is.
func (e *Engine) SetTimezone(name string) error {
	if _, err := locationFor(name); err != nil {
		return err
	}
	return e.call(func() {
		e.settings.Timezone = name
		e.reloadLocation()
		e.persistSettings()
	})
}

// Settings returns a snapshot of the full settings record.
func (e *Engine) Settings() (Settings, error) {
	var s Settings
	err := e.call(func() { s = e.settings })
	return s, err
}

// SetNotifications replaces the notification gates.
func (e *Engine) SetNotifications(n NotificationSettings) error {
	return e.call(func() {
		e.notif = n
		if e.store != nil {
			if err := e.store.SaveNotifications(n); err != nil {
				e.logger.Warn("persisting notifications failed", "error", err)
			}
		}
	})
}

// Notifications returns the current notification gates.
func (e *Engine) Notifications() (NotificationSettings, error) {
	var n NotificationSettings
	err := e.call(func() { n = e.notif })
	return n, err
}

func (e *Engine) reloadLocation() {
	loc, err := locationFor(e.settings.Timezone)
	if err != nil {
		e.logger.Warn("unresolvable timezone, falling back to UTC",
			"timezone", e.settings.Timezone, "error", err)
		loc = time.UTC
	}
	e.tzLoc = loc
}

func (e *Engine) localNow() time.Time {
	return time.Now().In(e.tzLoc)
}

// =========================================================================
// Schedules
// =========================================================================

// UpsertSchedule creates or replaces a schedule entry keyed on its
// index.
func (e *Engine) UpsertSchedule(s Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return e.call(func() {
		e.schedules[s.Index] = s
		e.logger.Info("schedule upserted", "index", s.Index, "side", s.Side().String())
		if e.store != nil {
			if err := e.store.UpsertSchedule(s); err != nil {
				e.logger.Warn("persisting schedule failed", "index", s.Index, "error", err)
			}
		}
	})
}

// DeleteSchedule removes the entry at the given index.
func (e *Engine) DeleteSchedule(index int) error {
	var found bool
	err := e.call(func() {
		if _, found = e.schedules[index]; !found {
			return
		}
		delete(e.schedules, index)
		e.logger.Info("schedule deleted", "index", index)
		if e.store != nil {
			if err := e.store.DeleteSchedule(index); err != nil {
				e.logger.Warn("deleting schedule failed", "index", index, "error", err)
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrScheduleNotFound
	}
	return nil
}

// ScheduleByIndex fetches one schedule entry.
func (e *Engine) ScheduleByIndex(index int) (Schedule, error) {
	var (
		s     Schedule
		found bool
	)
	if err := e.call(func() { s, found = e.schedules[index] }); err != nil {
		return Schedule{}, err
	}
	if !found {
		return Schedule{}, ErrScheduleNotFound
	}
	return s, nil
}

// Schedules returns all entries ordered by index.
func (e *Engine) Schedules() ([]Schedule, error) {
	var list []Schedule
	if err := e.call(func() { list = e.scheduleList() }); err != nil {
		return nil, err
	}
	return list, nil
}

// scheduleList snapshots the schedule map in index order. Loop-owned.
func (e *Engine) scheduleList() []Schedule {
	list := make([]Schedule, 0, len(e.schedules))
	for _, s := range e.schedules {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	return list
}

// =========================================================================
// Battery
// =========================================================================

// SetBatteryPercent sets the battery level directly, emitting a
// low-battery event if the threshold is crossed on the way down.
func (e *Engine) SetBatteryPercent(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidBatteryPercent
	}
	return e.call(func() {
		old := int(e.batteryLevel)
		e.batteryLevel = float64(percent)
		e.notifyBattery()
		if old > LowBatteryThreshold && percent <= LowBatteryThreshold {
			e.notifyLowBattery()
		}
	})
}

// SetACPresent toggles mains power.
func (e *Engine) SetACPresent(present bool) error {
	return e.call(func() {
		if e.acPresent == present {
			return
		}
		e.acPresent = present
		e.logger.Info("AC supply changed", "present", present)
		e.notifyBattery()
	})
}

// SetBatteryPresent toggles the battery pack.
func (e *Engine) SetBatteryPresent(present bool) error {
	return e.call(func() {
		if e.batteryPresent == present {
			return
		}
		e.batteryPresent = present
		e.logger.Info("battery pack changed", "present", present)
		e.notifyBattery()
	})
}

// Battery returns the current battery snapshot. A missing pack reports
// zero percent.
func (e *Engine) Battery() (BatteryState, error) {
	var b BatteryState
	err := e.call(func() { b = e.batterySnapshot() })
	return b, err
}

func (e *Engine) batterySnapshot() BatteryState {
	percent := int(e.batteryLevel)
	if !e.batteryPresent {
		percent = 0
	}
	return BatteryState{Percent: percent, Present: e.batteryPresent, ACPresent: e.acPresent}
}

func (e *Engine) simulateBattery(now time.Time) {
	if now.Sub(e.lastBatterySim) < e.batterySim.Interval {
		return
	}
	minutes := now.Sub(e.lastBatterySim).Minutes()
	e.lastBatterySim = now

	if !e.batteryPresent {
		return
	}
	old := int(e.batteryLevel)

	switch {
	case e.acPresent && e.batterySim.ChargeRate > 0:
		e.batteryLevel = min(100, e.batteryLevel+e.batterySim.ChargeRate*minutes)
	case !e.acPresent && e.batterySim.DischargeRate > 0:
		e.batteryLevel = max(0, e.batteryLevel-e.batterySim.DischargeRate*minutes)
	default:
		return
	}

	if int(e.batteryLevel) == old {
		return
	}
	e.logger.Debug("battery level changed", "from", old, "to", int(e.batteryLevel))
	e.notifyBattery()
	if old > LowBatteryThreshold && int(e.batteryLevel) <= LowBatteryThreshold {
		e.notifyLowBattery()
	}
}

func (e *Engine) notifyBattery() {
	snap := e.batterySnapshot()
	for _, l := range e.listeners {
		l.BatteryChanged(snap)
	}
}

func (e *Engine) notifyLowBattery() {
	percent := int(e.batteryLevel)
	e.logger.Info("low battery", "percent", percent)
	e.recordEvent("low_battery", "")
	for _, l := range e.listeners {
		l.LowBattery(percent)
	}
}

// =========================================================================
// Read-only snapshots
// =========================================================================

// Status returns the current motion phase and position.
func (e *Engine) Status() (Status, error) {
	var s Status
	err := e.call(func() { s = Status{State: e.state, Position: e.state.Position()} })
	return s, err
}

// Stats returns the lifetime counters.
func (e *Engine) Stats() (Counters, error) {
	var c Counters
	err := e.call(func() { c = e.counters })
	return c, err
}

// Hardware returns the static firmware/hardware identity.
func (e *Engine) Hardware() HardwareInfo {
	return e.hw
}

// PetPresent reports whether any side currently detects a pet.
func (e *Engine) PetPresent() (bool, error) {
	var present bool
	err := e.call(func() {
		present = e.detected[SensorInside] || e.detected[SensorOutside]
	})
	return present, err
}

// =========================================================================
// Persistence helpers (loop-owned, never fatal)
// =========================================================================

func (e *Engine) persistSettings() {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSettings(e.settings); err != nil {
		e.logger.Warn("persisting settings failed", "error", err)
	}
}

func (e *Engine) persistCounters() {
	if e.store == nil {
		return
	}
	if err := e.store.SaveCounters(e.counters); err != nil {
		e.logger.Warn("persisting counters failed", "error", err)
	}
}

func (e *Engine) recordEvent(eventType, detail string) {
	if e.store == nil {
		return
	}
	if err := e.store.RecordEvent(eventType, e.state, detail); err != nil {
		e.logger.Warn("recording door event failed", "type", eventType, "error", err)
	}
}
