package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML scenario document and validates every step.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}
	if sc.Name == "" {
		sc.Name = "unnamed"
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("%w: scenario %q has no steps", ErrInvalidStep, sc.Name)
	}
	for i, step := range sc.Steps {
		if err := step.Validate(); err != nil {
			return Scenario{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return sc, nil
}

// ParseScript decodes the one-line command form, one step per line.
// Blank lines and lines starting with # are skipped.
//
// Examples:
//
//	trigger inside
//	open hold
//	wait 2
//	wait_for door_closed 10
//	assert total_open_cycles 1
func ParseScript(name string, data []byte) (Scenario, error) {
	sc := Scenario{Name: name}
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		step, err := parseScriptLine(line)
		if err != nil {
			return Scenario{}, fmt.Errorf("line %d: %w", n+1, err)
		}
		if err := step.Validate(); err != nil {
			return Scenario{}, fmt.Errorf("line %d: %w", n+1, err)
		}
		sc.Steps = append(sc.Steps, step)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("%w: script %q has no steps", ErrInvalidStep, name)
	}
	return sc, nil
}

func parseScriptLine(line string) (Step, error) {
	fields := strings.Fields(line)
	verb, args := fields[0], fields[1:]

	switch verb {
	case "trigger", ActionTriggerSensor:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: trigger takes a sensor side", ErrInvalidStep)
		}
		return Step{Action: ActionTriggerSensor, Sensor: args[0]}, nil

	case ActionOpen:
		s := Step{Action: ActionOpen}
		switch {
		case len(args) == 0:
		case len(args) == 1 && args[0] == "hold":
			s.Hold = true
		default:
			return Step{}, fmt.Errorf("%w: open takes an optional bare \"hold\"", ErrInvalidStep)
		}
		return s, nil

	case ActionClose, ActionObstruction:
		if len(args) != 0 {
			return Step{}, fmt.Errorf("%w: %s takes no arguments", ErrInvalidStep, verb)
		}
		return Step{Action: verb}, nil

	case "presence", ActionSetPetPresence:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: presence takes on or off", ErrInvalidStep)
		}
		present, err := ParseBoolWord(args[0])
		if err != nil {
			return Step{}, err
		}
		return Step{Action: ActionSetPetPresence, Present: present}, nil

	case "battery", ActionSetBattery:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: battery takes a percentage", ErrInvalidStep)
		}
		pct, err := strconv.Atoi(args[0])
		if err != nil {
			return Step{}, fmt.Errorf("%w: battery percentage %q", ErrInvalidStep, args[0])
		}
		return Step{Action: ActionSetBattery, Percent: pct}, nil

	case ActionSet:
		if len(args) != 2 {
			return Step{}, fmt.Errorf("%w: set takes a setting and a value", ErrInvalidStep)
		}
		return Step{Action: ActionSet, Setting: args[0], Value: args[1]}, nil

	case ActionToggle:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: toggle takes a setting", ErrInvalidStep)
		}
		return Step{Action: ActionToggle, Setting: args[0]}, nil

	case ActionRemoveSchedule:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: remove_schedule takes an index", ErrInvalidStep)
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return Step{}, fmt.Errorf("%w: schedule index %q", ErrInvalidStep, args[0])
		}
		return Step{Action: ActionRemoveSchedule, Index: idx}, nil

	case ActionAddSchedule:
		// Structured data has no one-line form
		return Step{}, fmt.Errorf("%w: add_schedule is only available in YAML scenarios", ErrInvalidStep)

	case ActionWait:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%w: wait takes seconds", ErrInvalidStep)
		}
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Step{}, fmt.Errorf("%w: wait seconds %q", ErrInvalidStep, args[0])
		}
		return Step{Action: ActionWait, Seconds: secs}, nil

	case ActionWaitFor:
		// wait_for <condition> [<value>] <timeout>
		s := Step{Action: ActionWaitFor}
		switch len(args) {
		case 2:
			s.Condition = args[0]
		case 3:
			s.Condition = args[0]
			s.Value = args[1]
		default:
			return Step{}, fmt.Errorf("%w: wait_for takes a condition, optional value, and timeout", ErrInvalidStep)
		}
		secs, err := strconv.ParseFloat(args[len(args)-1], 64)
		if err != nil {
			return Step{}, fmt.Errorf("%w: wait_for timeout %q", ErrInvalidStep, args[len(args)-1])
		}
		s.Timeout = secs
		return s, nil

	case ActionAssert:
		if len(args) < 2 {
			return Step{}, fmt.Errorf("%w: assert takes a condition and an expected value", ErrInvalidStep)
		}
		return Step{
			Action:    ActionAssert,
			Condition: args[0],
			Value:     strings.Join(args[1:], " "),
		}, nil

	case ActionLog:
		return Step{Action: ActionLog, Message: strings.Join(args, " ")}, nil

	default:
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownAction, verb)
	}
}

// Load reads a scenario from a file, choosing the format by extension:
// .yaml/.yml documents, anything else the one-line script form.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data)
	default:
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return ParseScript(name, data)
	}
}

// ParseBoolWord accepts the boolean spellings scenario authors use.
func ParseBoolWord(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "on", "yes", "1", "enabled":
		return true, nil
	case "false", "off", "no", "0", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("%w: boolean value %q", ErrInvalidStep, v)
	}
}
