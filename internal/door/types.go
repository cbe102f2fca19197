package door

import (
	"fmt"
	"time"
)

// State is a door motion phase. Exactly one phase is active at any
// instant; transitions happen only inside the Engine's event loop.
type State int

// Door motion phases, in the order a normal open/close cycle visits them.
const (
	StateClosed State = iota
	StateRising
	StateSlowing
	StateHolding
	StateKeptUp
	StateClosingFromTop
	StateClosingFromMid
)

// stateNames maps phases to their wire-protocol status strings.
var stateNames = map[State]string{
	StateClosed:         "DOOR_CLOSED",
	StateRising:         "DOOR_RISING",
	StateSlowing:        "DOOR_SLOWING",
	StateHolding:        "DOOR_HOLDING",
	StateKeptUp:         "DOOR_KEEPUP",
	StateClosingFromTop: "DOOR_CLOSING_TOP_OPEN",
	StateClosingFromMid: "DOOR_CLOSING_MID_OPEN",
}

// statePositions maps phases to a fixed open-percentage for reporting.
var statePositions = map[State]int{
	StateClosed:         0,
	StateRising:         33,
	StateSlowing:        66,
	StateHolding:        100,
	StateKeptUp:         100,
	StateClosingFromTop: 66,
	StateClosingFromMid: 33,
}

// String returns the wire-protocol status string for the phase.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DOOR_UNKNOWN(%d)", int(s))
}

// Position returns the door's open percentage for the phase.
// Total over all reachable phases.
func (s State) Position() int {
	return statePositions[s]
}

// ParseState resolves a wire status string back to a phase.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return StateClosed, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// IsOpening reports whether the door is moving toward fully open.
func (s State) IsOpening() bool {
	return s == StateRising || s == StateSlowing
}

// IsClosing reports whether the door is moving toward closed.
func (s State) IsClosing() bool {
	return s == StateClosingFromTop || s == StateClosingFromMid
}

// IsOpen reports whether the door is at the top.
func (s State) IsOpen() bool {
	return s == StateHolding || s == StateKeptUp
}

// Sensor identifies which side of the door detected a pet.
type Sensor int

const (
	SensorInside Sensor = iota
	SensorOutside
)

// String returns the lowercase side name used on the wire and in scenarios.
func (s Sensor) String() string {
	if s == SensorOutside {
		return "outside"
	}
	return "inside"
}

// ParseSensor resolves a side name ("inside"/"outside") to a Sensor.
func ParseSensor(name string) (Sensor, error) {
	switch name {
	case "inside":
		return SensorInside, nil
	case "outside":
		return SensorOutside, nil
	default:
		return SensorInside, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
	}
}

// Settings holds the appliance's configurable safety and timing state.
// The boolean flags are independent bits; no combination is invalid,
// they are only interpreted differently by the policy evaluator.
type Settings struct {
	PowerOn           bool
	InsideEnabled     bool
	OutsideEnabled    bool
	TimersEnabled     bool
	OutsideSafetyLock bool
	CmdLockout        bool
	Autoretract       bool

	// HoldTimeCS is the hold-open countdown in centiseconds. The real
	// firmware only offers {200, 400, 600} but any non-negative value
	// is accepted here.
	HoldTimeCS int

	// Timezone is an IANA zone name or POSIX TZ string, reported
	// as-is on the wire.
	Timezone string

	SensorTriggerVoltage      int
	SleepSensorTriggerVoltage int
}

// DefaultSettings returns the factory configuration of a new device.
func DefaultSettings() Settings {
	return Settings{
		PowerOn:                   true,
		InsideEnabled:             true,
		OutsideEnabled:            true,
		TimersEnabled:             false,
		OutsideSafetyLock:         false,
		CmdLockout:                false,
		Autoretract:               true,
		HoldTimeCS:                1000,
		Timezone:                  "America/New_York",
		SensorTriggerVoltage:      100,
		SleepSensorTriggerVoltage: 50,
	}
}

// HoldTime returns the hold-open countdown as a duration.
func (s Settings) HoldTime() time.Duration {
	return time.Duration(s.HoldTimeCS) * 10 * time.Millisecond
}

// Setting is a named boolean flag addressable by scenario set/toggle
// steps and the protocol's enable/disable command pairs.
type Setting int

const (
	SettingPower Setting = iota
	SettingInside
	SettingOutside
	SettingTimers
	SettingSafetyLock
	SettingCmdLockout
	SettingAutoretract
)

// settingNames lists every accepted spelling for each flag. The first
// entry is the canonical name used in log output.
var settingNames = map[Setting][]string{
	SettingPower:       {"power", "powerOn"},
	SettingInside:      {"inside", "insideSensorEnabled"},
	SettingOutside:     {"outside", "outsideSensorEnabled"},
	SettingTimers:      {"auto", "timersEnabled"},
	SettingSafetyLock:  {"outsideSensorSafetyLock", "safety_lock", "safetyLock"},
	SettingCmdLockout:  {"cmdLockout", "cmd_lockout", "commandLockoutEnabled"},
	SettingAutoretract: {"autoretract", "autoretractEnabled"},
}

// String returns the canonical flag name.
func (s Setting) String() string {
	if names, ok := settingNames[s]; ok {
		return names[0]
	}
	return fmt.Sprintf("setting(%d)", int(s))
}

// ParseSetting resolves a flag name, accepting the synonyms used by
// scenarios and the wire protocol.
func ParseSetting(name string) (Setting, error) {
	for s, names := range settingNames {
		for _, n := range names {
			if n == name {
				return s, nil
			}
		}
	}
	return SettingPower, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
}

// Get reads the named flag from a settings snapshot.
func (s Settings) Get(flag Setting) bool {
	switch flag {
	case SettingPower:
		return s.PowerOn
	case SettingInside:
		return s.InsideEnabled
	case SettingOutside:
		return s.OutsideEnabled
	case SettingTimers:
		return s.TimersEnabled
	case SettingSafetyLock:
		return s.OutsideSafetyLock
	case SettingCmdLockout:
		return s.CmdLockout
	case SettingAutoretract:
		return s.Autoretract
	default:
		return false
	}
}

// set writes the named flag on a settings value.
func (s *Settings) set(flag Setting, value bool) {
	switch flag {
	case SettingPower:
		s.PowerOn = value
	case SettingInside:
		s.InsideEnabled = value
	case SettingOutside:
		s.OutsideEnabled = value
	case SettingTimers:
		s.TimersEnabled = value
	case SettingSafetyLock:
		s.OutsideSafetyLock = value
	case SettingCmdLockout:
		s.CmdLockout = value
	case SettingAutoretract:
		s.Autoretract = value
	}
}

// BatteryState describes the power supply at a point in time.
type BatteryState struct {
	Percent   int
	Present   bool
	ACPresent bool
}

// Charging reports whether the battery is taking charge.
func (b BatteryState) Charging() bool {
	return b.ACPresent && b.Percent < 100
}

// Discharging reports whether the battery is draining.
func (b BatteryState) Discharging() bool {
	return !b.ACPresent && b.Present
}

// Counters are lifetime statistics, incremented only by the Engine.
type Counters struct {
	TotalOpenCycles   int64
	TotalAutoRetracts int64
}

// NotificationSettings gate which unsolicited events the protocol
// server pushes to a connected client.
type NotificationSettings struct {
	SensorOnIndoor   bool
	SensorOffIndoor  bool
	SensorOnOutdoor  bool
	SensorOffOutdoor bool
	LowBattery       bool
}

// DefaultNotifications matches the device's factory notification gates.
func DefaultNotifications() NotificationSettings {
	return NotificationSettings{
		SensorOnIndoor:  true,
		SensorOnOutdoor: true,
		LowBattery:      true,
	}
}

// HardwareInfo is the static firmware/hardware identity reported by
// GET_HW_INFO.
type HardwareInfo struct {
	FwMajor    int
	FwMinor    int
	FwPatch    int
	HwVersion  int
	HwRevision int
}

// DefaultHardwareInfo returns the identity the emulation reports.
func DefaultHardwareInfo() HardwareInfo {
	return HardwareInfo{FwMajor: 1, FwMinor: 2, FwPatch: 3, HwVersion: 7, HwRevision: 2}
}

// Status is a read-only snapshot of the door's motion state.
type Status struct {
	State    State
	Position int
}

// Timing holds the motion phase durations the Engine advances through.
// All fields must be positive.
type Timing struct {
	Rise     time.Duration
	Slow     time.Duration
	CloseTop time.Duration
	CloseMid time.Duration

	// Tick is the event-loop timer resolution.
	Tick time.Duration

	// SensorRetriggerWindow is how long a momentary sensor trigger
	// keeps its side's detection flag raised.
	SensorRetriggerWindow time.Duration
}

// DefaultTiming mirrors the physical door's approximate motion profile.
func DefaultTiming() Timing {
	return Timing{
		Rise:                  1500 * time.Millisecond,
		Slow:                  300 * time.Millisecond,
		CloseTop:              400 * time.Millisecond,
		CloseMid:              400 * time.Millisecond,
		Tick:                  50 * time.Millisecond,
		SensorRetriggerWindow: 500 * time.Millisecond,
	}
}
