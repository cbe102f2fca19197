package door

import (
	"sync"
	"testing"
	"time"
)

// testTiming compresses the motion profile so a full cycle completes in
// well under a second.
func testTiming() Timing {
	return Timing{
		Rise:                  40 * time.Millisecond,
		Slow:                  20 * time.Millisecond,
		CloseTop:              30 * time.Millisecond,
		CloseMid:              30 * time.Millisecond,
		Tick:                  5 * time.Millisecond,
		SensorRetriggerWindow: 50 * time.Millisecond,
	}
}

// recordingListener captures engine events for later inspection.
type recordingListener struct {
	mu       sync.Mutex
	statuses []State
	sensors  []string
	lowBatt  []int
}

func (r *recordingListener) DoorStatusChanged(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s.State)
}

func (r *recordingListener) SensorEvent(side Sensor, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := "off"
	if active {
		state = "on"
	}
	r.sensors = append(r.sensors, side.String()+":"+state)
}

func (r *recordingListener) BatteryChanged(BatteryState) {}

func (r *recordingListener) LowBattery(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowBatt = append(r.lowBatt, percent)
}

func (r *recordingListener) statusCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.statuses)
}

func (r *recordingListener) sensorEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sensors...)
}

func newTestEngine(t *testing.T, modify func(*Options)) (*Engine, *recordingListener) {
	t.Helper()
	settings := DefaultSettings()
	settings.HoldTimeCS = 10 // 100ms hold
	opts := Options{
		Timing:   testTiming(),
		Settings: settings,
	}
	if modify != nil {
		modify(&opts)
	}
	e := New(opts)
	listener := &recordingListener{}
	e.Subscribe(listener)
	e.Start()
	t.Cleanup(e.Stop)
	return e, listener
}

func waitForState(t *testing.T, e *Engine, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st, err := e.Status()
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if st.State == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	st, _ := e.Status()
	t.Fatalf("door never reached %s within %v, still %s", want, timeout, st.State)
}

func currentState(t *testing.T, e *Engine) State {
	t.Helper()
	st, err := e.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	return st.State
}

func TestSensorTriggerFullCycle(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.TriggerSensor(SensorInside)

	waitForState(t, e, StateHolding, time.Second)
	waitForState(t, e, StateClosed, time.Second)

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalOpenCycles != 1 {
		t.Errorf("TotalOpenCycles = %d, want 1", stats.TotalOpenCycles)
	}
	if stats.TotalAutoRetracts != 0 {
		t.Errorf("TotalAutoRetracts = %d, want 0", stats.TotalAutoRetracts)
	}
}

func TestPetPresenceHoldsDoorOpen(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.SetPetPresence(true)
	e.RequestOpen(false)
	waitForState(t, e, StateHolding, time.Second)

	// Well past the nominal 100ms hold; presence keeps resetting it
	time.Sleep(300 * time.Millisecond)
	if got := currentState(t, e); got != StateHolding {
		t.Fatalf("door left Holding with pet present, state = %s", got)
	}

	e.SetPetPresence(false)
	waitForState(t, e, StateClosed, time.Second)
}

func TestSafetyLockBlocksOutsideTrigger(t *testing.T) {
	e, listener := newTestEngine(t, func(o *Options) {
		o.Settings.OutsideSafetyLock = true
	})

	e.TriggerSensor(SensorOutside)
	time.Sleep(100 * time.Millisecond)

	if got := currentState(t, e); got != StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", got)
	}
	// Detection still happens for notification purposes
	events := listener.sensorEvents()
	if len(events) == 0 || events[0] != "outside:on" {
		t.Errorf("sensor events = %v, want outside:on first", events)
	}
}

func TestCmdLockoutIgnoresPresence(t *testing.T) {
	e, _ := newTestEngine(t, func(o *Options) {
		o.Settings.CmdLockout = true
	})

	e.TriggerSensor(SensorInside)
	waitForState(t, e, StateHolding, time.Second)

	e.SetPetPresence(true)

	// Lockout mode: the timer always wins, presence is ignored
	waitForState(t, e, StateClosed, time.Second)
}

func TestPowerOffIsInert(t *testing.T) {
	e, listener := newTestEngine(t, func(o *Options) {
		o.Settings.PowerOn = false
	})

	e.TriggerSensor(SensorInside)
	e.RequestOpen(false)
	time.Sleep(100 * time.Millisecond)

	if got := currentState(t, e); got != StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", got)
	}
	if n := listener.statusCount(); n != 0 {
		t.Errorf("status notifications = %d, want 0", n)
	}
	if events := listener.sensorEvents(); len(events) != 0 {
		t.Errorf("sensor events = %v, want none", events)
	}
}

func TestCloseWhileClosedIsNoOp(t *testing.T) {
	e, listener := newTestEngine(t, nil)

	e.RequestClose()
	time.Sleep(50 * time.Millisecond)

	if got := currentState(t, e); got != StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", got)
	}
	if n := listener.statusCount(); n != 0 {
		t.Errorf("status notifications = %d, want 0", n)
	}
	stats, _ := e.Stats()
	if stats.TotalOpenCycles != 0 {
		t.Errorf("TotalOpenCycles = %d, want 0", stats.TotalOpenCycles)
	}
}

func TestOpenAndHoldStaysUp(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.RequestOpen(true)
	waitForState(t, e, StateKeptUp, time.Second)

	// Far past the hold time; no timer runs in KeptUp
	time.Sleep(300 * time.Millisecond)
	if got := currentState(t, e); got != StateKeptUp {
		t.Fatalf("door left KeptUp without a close request, state = %s", got)
	}

	e.RequestClose()
	waitForState(t, e, StateClosed, time.Second)
}

func TestObstructionWhileOpeningEntersHolding(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.RequestOpen(false)
	waitForState(t, e, StateRising, time.Second)

	e.Obstruct()
	waitForState(t, e, StateHolding, time.Second)

	stats, _ := e.Stats()
	if stats.TotalAutoRetracts != 0 {
		t.Errorf("TotalAutoRetracts = %d, want 0 for obstruction while opening",
			stats.TotalAutoRetracts)
	}
}

func TestObstructionWhileClosingAutoretracts(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.RequestOpen(false)
	waitForState(t, e, StateHolding, time.Second)
	waitForState(t, e, StateClosingFromTop, time.Second)

	e.Obstruct()
	waitForState(t, e, StateRising, time.Second)
	waitForState(t, e, StateHolding, time.Second)

	stats, _ := e.Stats()
	if stats.TotalAutoRetracts != 1 {
		t.Errorf("TotalAutoRetracts = %d, want 1", stats.TotalAutoRetracts)
	}
}

func TestObstructionWithAutoretractOffFreezes(t *testing.T) {
	e, _ := newTestEngine(t, func(o *Options) {
		o.Settings.Autoretract = false
	})

	e.RequestOpen(false)
	waitForState(t, e, StateHolding, time.Second)
	waitForState(t, e, StateClosingFromTop, time.Second)

	e.Obstruct()

	// Motor disengaged: the phase must not advance on its own
	time.Sleep(200 * time.Millisecond)
	if got := currentState(t, e); got != StateClosingFromTop {
		t.Fatalf("frozen door advanced to %s", got)
	}

	stats, _ := e.Stats()
	if stats.TotalAutoRetracts != 0 {
		t.Errorf("TotalAutoRetracts = %d, want 0 with autoretract off",
			stats.TotalAutoRetracts)
	}

	// An explicit close re-engages the motor
	e.RequestClose()
	waitForState(t, e, StateClosed, time.Second)
}

func TestOpenReversesClosingDoor(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	e.RequestOpen(false)
	waitForState(t, e, StateHolding, time.Second)
	waitForState(t, e, StateClosingFromTop, time.Second)

	e.RequestOpen(false)

	// Reversal continues from the equivalent opening position
	waitForState(t, e, StateSlowing, time.Second)
	waitForState(t, e, StateHolding, time.Second)
}

func TestDisabledSensorNeverTriggers(t *testing.T) {
	e, listener := newTestEngine(t, func(o *Options) {
		o.Settings.InsideEnabled = false
	})

	e.TriggerSensor(SensorInside)
	time.Sleep(100 * time.Millisecond)

	if got := currentState(t, e); got != StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", got)
	}
	if events := listener.sensorEvents(); len(events) != 0 {
		t.Errorf("sensor events = %v, want none for disabled sensor", events)
	}
}

func TestScheduleUpsertRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	want := Schedule{
		Index:      4,
		Enabled:    true,
		DaysOfWeek: [7]int{0, 1, 1, 1, 1, 1, 0},
		Outside:    true,
		StartHour:  7, StartMin: 15,
		EndHour: 19, EndMin: 45,
	}
	if err := e.UpsertSchedule(want); err != nil {
		t.Fatalf("UpsertSchedule() error = %v", err)
	}

	got, err := e.ScheduleByIndex(4)
	if err != nil {
		t.Fatalf("ScheduleByIndex() error = %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestDeleteScheduleNotFound(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if err := e.DeleteSchedule(9); err != ErrScheduleNotFound {
		t.Errorf("DeleteSchedule(9) error = %v, want ErrScheduleNotFound", err)
	}
}

func TestSetFlagVisibility(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if err := e.SetFlag(SettingSafetyLock, true); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	got, err := e.Flag(SettingSafetyLock)
	if err != nil {
		t.Fatalf("Flag() error = %v", err)
	}
	if !got {
		t.Error("SetFlag(true) not visible to subsequent Flag()")
	}

	settings, err := e.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !settings.OutsideSafetyLock {
		t.Error("safety lock not reflected in settings snapshot")
	}
}

func TestSetBatteryLowNotification(t *testing.T) {
	e, listener := newTestEngine(t, nil)

	if err := e.SetBatteryPercent(50); err != nil {
		t.Fatalf("SetBatteryPercent(50) error = %v", err)
	}
	if err := e.SetBatteryPercent(15); err != nil {
		t.Fatalf("SetBatteryPercent(15) error = %v", err)
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.lowBatt) != 1 || listener.lowBatt[0] != 15 {
		t.Errorf("low battery events = %v, want [15]", listener.lowBatt)
	}
}

func TestSetBatteryPercentValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	if err := e.SetBatteryPercent(-1); err != ErrInvalidBatteryPercent {
		t.Errorf("SetBatteryPercent(-1) error = %v, want ErrInvalidBatteryPercent", err)
	}
	if err := e.SetBatteryPercent(101); err != ErrInvalidBatteryPercent {
		t.Errorf("SetBatteryPercent(101) error = %v, want ErrInvalidBatteryPercent", err)
	}
}

func TestStoppedEngineReturnsError(t *testing.T) {
	e := New(Options{Timing: testTiming()})
	e.Start()
	e.Stop()

	if _, err := e.Status(); err != ErrEngineStopped {
		t.Errorf("Status() after Stop error = %v, want ErrEngineStopped", err)
	}
}
