package scenario

import (
	"fmt"
	"sort"
)

// builtins maps registry names to scenario constructors. Constructors
// return fresh values so callers can mutate steps without poisoning
// the registry.
var builtins = map[string]func() Scenario{
	"basic_cycle":        basicCycle,
	"obstruction_test":   obstructionTest,
	"pet_presence_test":  petPresenceTest,
	"safety_lock_test":   safetyLockTest,
	"power_lockout_test": powerLockoutTest,
	"schedule_test":      scheduleTest,
	"full_test_suite":    fullTestSuite,
}

// Builtin returns the named built-in scenario.
func Builtin(name string) (Scenario, error) {
	ctor, ok := builtins[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return ctor(), nil
}

// Builtins lists the registered scenario names, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func basicCycle() Scenario {
	return Scenario{
		Name:        "basic_cycle",
		Description: "Inside sensor trigger opens the door; it holds, then closes on its own.",
		Steps: []Step{
			{Action: ActionLog, Message: "basic cycle: trigger, hold, close"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionAssert, Condition: "door_status", Value: "DOOR_HOLDING"},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 10},
			{Action: ActionAssert, Condition: "total_open_cycles", Value: 1},
		},
	}
}

func obstructionTest() Scenario {
	return Scenario{
		Name:        "obstruction_test",
		Description: "Obstruction during closing autoretracts the door and bumps the retract counter.",
		Steps: []Step{
			{Action: ActionLog, Message: "obstruction: retract while closing"},
			{Action: ActionSet, Setting: "autoretract", Value: "on"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionOpen},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			// Hold expires after 1s, then the ~0.8s closing run begins
			{Action: ActionWaitFor, Condition: "door_status", Value: "DOOR_CLOSING_TOP_OPEN", Timeout: 5},
			{Action: ActionObstruction},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionAssert, Condition: "total_auto_retracts", Value: 1},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 15},
		},
	}
}

func petPresenceTest() Scenario {
	return Scenario{
		Name:        "pet_presence_test",
		Description: "Pet presence in the doorway keeps the door up past its hold timer.",
		Steps: []Step{
			{Action: ActionLog, Message: "presence: hold extension"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionSetPetPresence, Present: true},
			{Action: ActionWait, Seconds: 2},
			{Action: ActionAssert, Condition: "door_open", Value: true},
			{Action: ActionSetPetPresence, Present: false},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 10},
		},
	}
}

func safetyLockTest() Scenario {
	return Scenario{
		Name:        "safety_lock_test",
		Description: "The outside safety lock blocks outside triggers without disabling the sensor.",
		Steps: []Step{
			{Action: ActionLog, Message: "safety lock: outside trigger blocked"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionSet, Setting: "safety_lock", Value: "on"},
			{Action: ActionTriggerSensor, Sensor: "outside"},
			{Action: ActionWait, Seconds: 0.5},
			{Action: ActionAssert, Condition: "door_closed", Value: true},
			{Action: ActionSet, Setting: "safety_lock", Value: "off"},
			{Action: ActionTriggerSensor, Sensor: "outside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 15},
		},
	}
}

func powerLockoutTest() Scenario {
	return Scenario{
		Name:        "power_lockout_test",
		Description: "Power off makes the device inert; command lockout makes hold ignore presence.",
		Steps: []Step{
			{Action: ActionLog, Message: "power off: requests accepted but inert"},
			{Action: ActionSet, Setting: "power", Value: "off"},
			{Action: ActionOpen},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWait, Seconds: 0.5},
			{Action: ActionAssert, Condition: "door_closed", Value: true},
			{Action: ActionSet, Setting: "power", Value: "on"},
			{Action: ActionLog, Message: "lockout: presence ignored during hold"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionSet, Setting: "cmd_lockout", Value: "on"},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionSetPetPresence, Present: true},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 10},
			{Action: ActionSetPetPresence, Present: false},
			{Action: ActionSet, Setting: "cmd_lockout", Value: "off"},
			{Action: ActionAssert, Condition: "total_open_cycles", Value: 1},
		},
	}
}

func scheduleTest() Scenario {
	enabled := true
	return Scenario{
		Name:        "schedule_test",
		Description: "With timers on, sensors open only inside an enabled schedule window.",
		Steps: []Step{
			{Action: ActionLog, Message: "schedule: all-day window allows, removal denies"},
			{Action: ActionSet, Setting: "hold_time", Value: 1},
			{Action: ActionSet, Setting: "auto", Value: "on"},
			{Action: ActionAddSchedule, Schedule: &ScheduleSpec{
				Index:   0,
				Enabled: &enabled,
				Side:    "inside",
				Start:   "00:00",
				End:     "23:59",
			}},
			{Action: ActionAssert, Condition: "schedule_count", Value: 1},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWaitFor, Condition: "door_open", Timeout: 5},
			{Action: ActionWaitFor, Condition: "door_closed", Timeout: 15},
			{Action: ActionRemoveSchedule, Index: 0},
			{Action: ActionTriggerSensor, Sensor: "inside"},
			{Action: ActionWait, Seconds: 0.5},
			{Action: ActionAssert, Condition: "door_closed", Value: true},
			{Action: ActionSet, Setting: "auto", Value: "off"},
		},
	}
}

// fullTestSuite chains the other built-ins. Each section restores the
// settings it changed so sections stay independent.
func fullTestSuite() Scenario {
	sc := Scenario{
		Name:        "full_test_suite",
		Description: "All built-in scenarios back to back against one device.",
	}
	for _, part := range []func() Scenario{
		basicCycle,
		petPresenceTest,
		safetyLockTest,
		obstructionTest,
		powerLockoutTest,
		scheduleTest,
	} {
		p := part()
		sc.Steps = append(sc.Steps, Step{Action: ActionLog, Message: "suite section: " + p.Name})
		sc.Steps = append(sc.Steps, p.Steps...)
	}
	// Counter asserts assume a fresh device; strip them when chained
	steps := sc.Steps[:0]
	for _, s := range sc.Steps {
		if s.Action == ActionAssert &&
			(s.Condition == "total_open_cycles" || s.Condition == "total_auto_retracts") {
			continue
		}
		steps = append(steps, s)
	}
	sc.Steps = steps
	return sc
}
