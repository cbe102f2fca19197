package scenario

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// Device is the control surface a scenario drives. *door.Engine
// satisfies it.
type Device interface {
	RequestOpen(hold bool)
	RequestClose()
	TriggerSensor(side door.Sensor)
	Obstruct()
	SetPetPresence(present bool)
	SetBatteryPercent(percent int) error
	SetFlag(flag door.Setting, value bool) error
	Flag(flag door.Setting) (bool, error)
	SetHoldTime(centiseconds int) error
	SetTimezone(name string) error
	UpsertSchedule(s door.Schedule) error
	DeleteSchedule(index int) error
	Schedules() ([]door.Schedule, error)
	Settings() (door.Settings, error)
	Status() (door.Status, error)
	Stats() (door.Counters, error)
	Battery() (door.BatteryState, error)
	PetPresent() (bool, error)
}

// Logger is the subset of the application logger the runner needs.
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

// defaultPollInterval is how often wait_for re-checks its condition.
const defaultPollInterval = 50 * time.Millisecond

// Result summarises one scenario run. FailedStep is the 1-based index
// of the step that failed, or 0 when the run passed.
type Result struct {
	RunID      string
	Scenario   string
	Passed     bool
	StepsTotal int
	StepsRun   int
	FailedStep int
	Failure    string
	Duration   time.Duration
}

// Runner executes scenarios against a device. A run owns the device
// exclusively; driving the same engine from a concurrent client while
// a scenario is mid-run makes assertions nondeterministic.
type Runner struct {
	dev    Device
	logger Logger

	// PollInterval overrides the wait_for poll cadence; zero means the
	// 50ms default. Tests shrink it alongside fast engine timing.
	PollInterval time.Duration
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(dev Device, logger Logger) *Runner {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Runner{dev: dev, logger: logger}
}

// Run executes the scenario's steps in order, stopping at the first
// failure. The error inside the Result is also logged step by step.
func (r *Runner) Run(ctx context.Context, sc Scenario) Result {
	res := Result{
		RunID:      uuid.NewString(),
		Scenario:   sc.Name,
		StepsTotal: len(sc.Steps),
	}
	start := time.Now()
	r.logger.Info("scenario starting", "run_id", res.RunID, "scenario", sc.Name, "steps", len(sc.Steps))

	for i, step := range sc.Steps {
		res.StepsRun = i + 1
		r.logger.Debug("scenario step", "run_id", res.RunID, "step", i+1, "action", step.Action)

		if err := r.runStep(ctx, step); err != nil {
			res.FailedStep = i + 1
			res.Failure = err.Error()
			res.Duration = time.Since(start)
			r.logger.Error("scenario failed", "run_id", res.RunID, "scenario", sc.Name,
				"step", i+1, "action", step.Action, "error", err)
			return res
		}
	}

	res.Passed = true
	res.Duration = time.Since(start)
	r.logger.Info("scenario passed", "run_id", res.RunID, "scenario", sc.Name,
		"duration_ms", res.Duration.Milliseconds())
	return res
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	switch step.Action {
	case ActionTriggerSensor:
		side, err := door.ParseSensor(step.Sensor)
		if err != nil {
			return err
		}
		r.dev.TriggerSensor(side)
		return nil

	case ActionOpen:
		r.dev.RequestOpen(step.Hold)
		return nil

	case ActionClose:
		r.dev.RequestClose()
		return nil

	case ActionObstruction:
		r.dev.Obstruct()
		return nil

	case ActionSetPetPresence:
		r.dev.SetPetPresence(step.Present)
		return nil

	case ActionSetBattery:
		return r.dev.SetBatteryPercent(step.Percent)

	case ActionSet:
		return r.applySetting(step.Setting, step.Value)

	case ActionToggle:
		flag, err := door.ParseSetting(step.Setting)
		if err != nil {
			return err
		}
		current, err := r.dev.Flag(flag)
		if err != nil {
			return err
		}
		return r.dev.SetFlag(flag, !current)

	case ActionAddSchedule:
		sched, err := step.Schedule.ToSchedule()
		if err != nil {
			return err
		}
		return r.dev.UpsertSchedule(sched)

	case ActionRemoveSchedule:
		return r.dev.DeleteSchedule(step.Index)

	case ActionWait:
		return r.sleep(ctx, secondsToDuration(step.Seconds))

	case ActionWaitFor:
		return r.waitFor(ctx, step)

	case ActionAssert:
		return r.assert(step)

	case ActionLog:
		r.logger.Info("scenario log", "message", step.Message)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, step.Action)
	}
}

// applySetting dispatches a set step. Most settings are the engine's
// boolean flags; hold_time (seconds), battery (percent) and timezone
// are addressed by their own names.
func (r *Runner) applySetting(name string, value any) error {
	switch name {
	case "hold_time", "holdTime":
		secs, err := toFloat(value)
		if err != nil {
			return fmt.Errorf("%w: hold_time %v", ErrInvalidStep, value)
		}
		return r.dev.SetHoldTime(int(secs * 100))

	case "battery":
		pct, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%w: battery %v", ErrInvalidStep, value)
		}
		return r.dev.SetBatteryPercent(pct)

	case "timezone", "tz":
		tz, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: timezone %v", ErrInvalidStep, value)
		}
		return r.dev.SetTimezone(tz)
	}

	flag, err := door.ParseSetting(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	v, err := toBool(value)
	if err != nil {
		return err
	}
	return r.dev.SetFlag(flag, v)
}

// waitFor polls the condition until it matches, the timeout elapses,
// or the context is cancelled. A missing expected value means true.
func (r *Runner) waitFor(ctx context.Context, step Step) error {
	expect := step.Value
	if expect == nil {
		expect = true
	}
	interval := r.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	deadline := time.Now().Add(secondsToDuration(step.Timeout))

	for {
		actual, err := r.evaluate(step.Condition)
		if err != nil {
			return err
		}
		match, _, _, err := compare(expect, actual)
		if err != nil {
			return err
		}
		if match {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s did not reach %v within %gs (last value %v)",
				ErrTimeout, step.Condition, expect, step.Timeout, actual)
		}
		if err := r.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func (r *Runner) assert(step Step) error {
	actual, err := r.evaluate(step.Condition)
	if err != nil {
		return err
	}
	match, want, got, err := compare(step.Value, actual)
	if err != nil {
		return err
	}
	if !match {
		return &AssertionError{Condition: step.Condition, Expected: want, Actual: got}
	}
	return nil
}

// evaluate resolves a condition name to its current value: a string
// for door_status, a bool for flags and derived states, an integer for
// counters and battery.
func (r *Runner) evaluate(condition string) (any, error) {
	switch condition {
	case "door_status":
		st, err := r.dev.Status()
		if err != nil {
			return nil, err
		}
		return st.State.String(), nil

	case "door_open":
		st, err := r.dev.Status()
		if err != nil {
			return nil, err
		}
		return st.Position == 100, nil

	case "door_closed":
		st, err := r.dev.Status()
		if err != nil {
			return nil, err
		}
		return st.State == door.StateClosed, nil

	case "position":
		st, err := r.dev.Status()
		if err != nil {
			return nil, err
		}
		return int64(st.Position), nil

	case "battery":
		b, err := r.dev.Battery()
		if err != nil {
			return nil, err
		}
		return int64(b.Percent), nil

	case "pet_presence":
		return r.dev.PetPresent()

	case "total_open_cycles":
		c, err := r.dev.Stats()
		if err != nil {
			return nil, err
		}
		return c.TotalOpenCycles, nil

	case "total_auto_retracts":
		c, err := r.dev.Stats()
		if err != nil {
			return nil, err
		}
		return c.TotalAutoRetracts, nil

	case "schedule_count":
		scheds, err := r.dev.Schedules()
		if err != nil {
			return nil, err
		}
		return int64(len(scheds)), nil
	}

	if flag, err := door.ParseSetting(condition); err == nil {
		return r.dev.Flag(flag)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, condition)
}

// compare checks an expected value against an observed one. The
// observed value's type decides the comparison: booleans accept the
// scenario boolean spellings, integers accept numeric strings, and
// anything else compares as exact strings.
func compare(expected, actual any) (match bool, want, got string, err error) {
	switch a := actual.(type) {
	case bool:
		e, err := toBool(expected)
		if err != nil {
			return false, "", "", err
		}
		return e == a, strconv.FormatBool(e), strconv.FormatBool(a), nil

	case int64:
		e, err := toInt(expected)
		if err != nil {
			return false, "", "", err
		}
		return int64(e) == a, strconv.Itoa(e), strconv.FormatInt(a, 10), nil

	default:
		want = fmt.Sprint(expected)
		got = fmt.Sprint(actual)
		return want == got, want, got, nil
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return ParseBoolWord(t)
	default:
		return false, fmt.Errorf("%w: boolean value %v", ErrInvalidStep, v)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("%w: numeric value %q", ErrInvalidStep, t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: numeric value %v", ErrInvalidStep, v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: numeric value %q", ErrInvalidStep, t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: numeric value %v", ErrInvalidStep, v)
	}
}

// sleep waits for d unless the context is cancelled first.
func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
