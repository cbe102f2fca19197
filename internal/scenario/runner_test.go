package scenario

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// fastTiming keeps full motion cycles in the tens of milliseconds so
// runs stay quick.
func fastTiming() door.Timing {
	return door.Timing{
		Rise:                  40 * time.Millisecond,
		Slow:                  20 * time.Millisecond,
		CloseTop:              30 * time.Millisecond,
		CloseMid:              30 * time.Millisecond,
		Tick:                  5 * time.Millisecond,
		SensorRetriggerWindow: 50 * time.Millisecond,
	}
}

func newTestRunner(t *testing.T, modify func(*door.Options)) (*door.Engine, *Runner) {
	t.Helper()

	settings := door.DefaultSettings()
	settings.HoldTimeCS = 10 // 100ms hold
	opts := door.Options{Timing: fastTiming(), Settings: settings}
	if modify != nil {
		modify(&opts)
	}
	e := door.New(opts)
	e.Start()
	t.Cleanup(e.Stop)

	r := NewRunner(e, nil)
	r.PollInterval = 5 * time.Millisecond
	return e, r
}

func TestRunnerFullCycle(t *testing.T) {
	_, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "cycle",
		Steps: []Step{
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 2},
			{Action: ActionAssert, Condition: "door_status", Value: "DOOR_HOLDING"},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 2},
			{Action: ActionAssert, Condition: "total_open_cycles", Value: 1},
		},
	}
	res := r.Run(context.Background(), sc)
	if !res.Passed {
		t.Fatalf("run failed at step %d: %s", res.FailedStep, res.Failure)
	}
	if res.StepsRun != len(sc.Steps) {
		t.Errorf("StepsRun = %d, want %d", res.StepsRun, len(sc.Steps))
	}
	if res.RunID == "" {
		t.Error("RunID should be populated")
	}
}

func TestAssertMismatchAbortsRemainingSteps(t *testing.T) {
	e, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "failing",
		Steps: []Step{
			{Action: ActionAssert, Condition: "door_status", Value: "DOOR_RISING"},
			// Must not run
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 2},
		},
	}
	res := r.Run(context.Background(), sc)

	if res.Passed {
		t.Fatal("run should have failed")
	}
	if res.FailedStep != 1 {
		t.Errorf("FailedStep = %d, want 1", res.FailedStep)
	}
	if res.StepsRun != 1 {
		t.Errorf("StepsRun = %d, want 1 (fail-fast)", res.StepsRun)
	}
	for _, want := range []string{"door_status", "DOOR_RISING", "DOOR_CLOSED"} {
		if !strings.Contains(res.Failure, want) {
			t.Errorf("Failure %q missing %q", res.Failure, want)
		}
	}

	// The aborted trigger step never ran, so the door never moved
	time.Sleep(100 * time.Millisecond)
	st, err := e.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.State != door.StateClosed {
		t.Errorf("door state = %s, want DOOR_CLOSED", st.State)
	}
}

func TestWaitForTimeoutFailsStep(t *testing.T) {
	_, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "stuck",
		Steps: []Step{
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 0.1},
		},
	}
	res := r.Run(context.Background(), sc)
	if res.Passed {
		t.Fatal("run should have timed out")
	}
	if !strings.Contains(res.Failure, "door_open") {
		t.Errorf("Failure %q should name the condition", res.Failure)
	}
}

func TestSetAndToggleSettings(t *testing.T) {
	e, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "settings",
		Steps: []Step{
			{Action: ActionSet, Setting: "safety_lock", Value: "on"},
			{Action: ActionToggle, Setting: "inside"},
			{Action: ActionSet, Setting: "hold_time", Value: 2},
			{Action: ActionSet, Setting: "battery", Value: 55},
			{Action: ActionAssert, Condition: "safety_lock", Value: true},
			{Action: ActionAssert, Condition: "inside", Value: "off"},
			{Action: ActionAssert, Condition: "battery", Value: 55},
		},
	}
	res := r.Run(context.Background(), sc)
	if !res.Passed {
		t.Fatalf("run failed at step %d: %s", res.FailedStep, res.Failure)
	}

	settings, err := e.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.HoldTimeCS != 200 {
		t.Errorf("HoldTimeCS = %d, want 200 (2 seconds)", settings.HoldTimeCS)
	}
	if settings.InsideEnabled {
		t.Error("inside sensor should be toggled off")
	}
}

func TestScheduleStepsRoundTrip(t *testing.T) {
	_, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "schedules",
		Steps: []Step{
			{Action: ActionAssert, Condition: "schedule_count", Value: 0},
			{Action: ActionAddSchedule, Schedule: &ScheduleSpec{
				Index: 1, Side: "inside", Start: "08:00", End: "20:00",
			}},
			{Action: ActionAssert, Condition: "schedule_count", Value: 1},
			{Action: ActionRemoveSchedule, Index: 1},
			{Action: ActionAssert, Condition: "schedule_count", Value: 0},
		},
	}
	res := r.Run(context.Background(), sc)
	if !res.Passed {
		t.Fatalf("run failed at step %d: %s", res.FailedStep, res.Failure)
	}
}

func TestPowerOffScenarioStaysInert(t *testing.T) {
	_, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "inert",
		Steps: []Step{
			{Action: ActionSet, Setting: "power", Value: "off"},
			{Action: ActionOpen},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWait, Seconds: 0.15},
			{Action: ActionAssert, Condition: "door_closed", Value: true},
			{Action: ActionAssert, Condition: "total_open_cycles", Value: 0},
		},
	}
	res := r.Run(context.Background(), sc)
	if !res.Passed {
		t.Fatalf("run failed at step %d: %s", res.FailedStep, res.Failure)
	}
}

func TestUnknownConditionFailsRun(t *testing.T) {
	_, r := newTestRunner(t, nil)

	sc := Scenario{
		Name: "bad-condition",
		Steps: []Step{
			{Action: ActionAssert, Condition: "door_mood", Value: "happy"},
		},
	}
	res := r.Run(context.Background(), sc)
	if res.Passed {
		t.Fatal("run should have failed")
	}
	if !strings.Contains(res.Failure, "door_mood") {
		t.Errorf("Failure %q should name the condition", res.Failure)
	}
}

func TestCancelledContextAbortsWait(t *testing.T) {
	_, r := newTestRunner(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := Scenario{
		Name: "cancelled",
		Steps: []Step{
			{Action: ActionWait, Seconds: 5},
		},
	}
	start := time.Now()
	res := r.Run(ctx, sc)
	if res.Passed {
		t.Fatal("run should have failed")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled wait should return promptly")
	}
}
