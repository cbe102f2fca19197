package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// Scenario is an ordered list of steps driven against a live device.
// Steps run strictly sequentially; the first failing step aborts the
// rest of the run.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one scenario action. In YAML a step is either a bare string
// (for parameterless actions, e.g. `- close`) or a map with an
// `action` key plus that action's parameters.
type Step struct {
	Action string `yaml:"action"`

	// trigger_sensor
	Sensor string `yaml:"sensor,omitempty"`

	// open
	Hold bool `yaml:"hold,omitempty"`

	// set_pet_presence
	Present bool `yaml:"present,omitempty"`

	// set_battery
	Percent int `yaml:"percent,omitempty"`

	// set / toggle
	Setting string `yaml:"setting,omitempty"`
	Value   any    `yaml:"value,omitempty"`

	// add_schedule
	Schedule *ScheduleSpec `yaml:"schedule,omitempty"`

	// remove_schedule
	Index int `yaml:"index,omitempty"`

	// wait
	Seconds float64 `yaml:"seconds,omitempty"`

	// wait_for / assert
	Condition string  `yaml:"condition,omitempty"`
	Timeout   float64 `yaml:"timeout,omitempty"`

	// log
	Message string `yaml:"message,omitempty"`
}

// stepAlias avoids UnmarshalYAML recursion.
type stepAlias Step

// UnmarshalYAML accepts both the bare-string and map forms.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Action = node.Value
		return nil
	}
	var aux stepAlias
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*s = Step(aux)
	return nil
}

// Validate checks that the step names a known action and carries the
// parameters that action needs.
func (s Step) Validate() error {
	switch s.Action {
	case ActionTriggerSensor:
		if _, err := door.ParseSensor(s.Sensor); err != nil {
			return err
		}
	case ActionOpen, ActionClose, ActionObstruction, ActionSetPetPresence:
		// Boolean params default to false; nothing further to check
	case ActionSetBattery:
		if s.Percent < 0 || s.Percent > 100 {
			return fmt.Errorf("%w: battery percent %d out of range", ErrInvalidStep, s.Percent)
		}
	case ActionSet:
		if s.Setting == "" {
			return fmt.Errorf("%w: set requires a setting name", ErrInvalidStep)
		}
		if s.Value == nil {
			return fmt.Errorf("%w: set %s requires a value", ErrInvalidStep, s.Setting)
		}
	case ActionToggle:
		if s.Setting == "" {
			return fmt.Errorf("%w: toggle requires a setting name", ErrInvalidStep)
		}
	case ActionAddSchedule:
		if s.Schedule == nil {
			return fmt.Errorf("%w: add_schedule requires a schedule", ErrInvalidStep)
		}
		if _, err := s.Schedule.ToSchedule(); err != nil {
			return err
		}
	case ActionRemoveSchedule:
		if s.Index < 0 {
			return fmt.Errorf("%w: schedule index %d out of range", ErrInvalidStep, s.Index)
		}
	case ActionWait:
		if s.Seconds <= 0 {
			return fmt.Errorf("%w: wait requires positive seconds", ErrInvalidStep)
		}
	case ActionWaitFor:
		if s.Condition == "" {
			return fmt.Errorf("%w: wait_for requires a condition", ErrInvalidStep)
		}
		if s.Timeout <= 0 {
			return fmt.Errorf("%w: wait_for %s requires a positive timeout", ErrInvalidStep, s.Condition)
		}
	case ActionAssert:
		if s.Condition == "" {
			return fmt.Errorf("%w: assert requires a condition", ErrInvalidStep)
		}
		if s.Value == nil {
			return fmt.Errorf("%w: assert %s requires an expected value", ErrInvalidStep, s.Condition)
		}
	case ActionLog:
		// Empty messages are pointless but harmless
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, s.Action)
	}
	return nil
}

// Step action names.
const (
	ActionTriggerSensor  = "trigger_sensor"
	ActionOpen           = "open"
	ActionClose          = "close"
	ActionObstruction    = "obstruction"
	ActionSetPetPresence = "set_pet_presence"
	ActionSetBattery     = "set_battery"
	ActionSet            = "set"
	ActionToggle         = "toggle"
	ActionAddSchedule    = "add_schedule"
	ActionRemoveSchedule = "remove_schedule"
	ActionWait           = "wait"
	ActionWaitFor        = "wait_for"
	ActionAssert         = "assert"
	ActionLog            = "log"
)

// ScheduleSpec is the scenario-facing schedule shape, friendlier than
// the wire's split per-side time fields. Start and End are "HH:MM".
type ScheduleSpec struct {
	Index   int    `yaml:"index"`
	Enabled *bool  `yaml:"enabled,omitempty"`
	Side    string `yaml:"side"`
	Days    []int  `yaml:"days,omitempty"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// ToSchedule converts the spec into a validated door schedule entry.
func (sp ScheduleSpec) ToSchedule() (door.Schedule, error) {
	s := door.Schedule{
		Index:      sp.Index,
		Enabled:    true,
		DaysOfWeek: door.AllWeek(),
	}
	if sp.Enabled != nil {
		s.Enabled = *sp.Enabled
	}

	side, err := door.ParseSensor(sp.Side)
	if err != nil {
		return door.Schedule{}, err
	}
	if side == door.SensorInside {
		s.Inside = true
	} else {
		s.Outside = true
	}

	if sp.Days != nil {
		if len(sp.Days) != 7 {
			return door.Schedule{}, fmt.Errorf("%w: days must have 7 entries, got %d",
				ErrInvalidStep, len(sp.Days))
		}
		copy(s.DaysOfWeek[:], sp.Days)
	}

	if s.StartHour, s.StartMin, err = parseClock(sp.Start); err != nil {
		return door.Schedule{}, err
	}
	if s.EndHour, s.EndMin, err = parseClock(sp.End); err != nil {
		return door.Schedule{}, err
	}

	if err := s.Validate(); err != nil {
		return door.Schedule{}, err
	}
	return s, nil
}

// parseClock parses an "HH:MM" string.
func parseClock(v string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidStep, v)
	}
	if hour, err = strconv.Atoi(hh); err != nil {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidStep, v)
	}
	if minute, err = strconv.Atoi(mm); err != nil {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidStep, v)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: time %q out of range", ErrInvalidStep, v)
	}
	return hour, minute, nil
}
