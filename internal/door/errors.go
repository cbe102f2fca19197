package door

import "errors"

// Sentinel errors for door state and configuration operations.
var (
	// ErrUnknownState indicates an unrecognized door status string.
	ErrUnknownState = errors.New("door: unknown door state")

	// ErrUnknownSensor indicates a side name other than inside/outside.
	ErrUnknownSensor = errors.New("door: unknown sensor side")

	// ErrUnknownSetting indicates a flag name with no known synonym.
	ErrUnknownSetting = errors.New("door: unknown setting")

	// ErrScheduleNotFound indicates a lookup or delete for an index
	// with no stored schedule entry.
	ErrScheduleNotFound = errors.New("door: schedule not found")

	// ErrInvalidSchedule indicates a schedule entry that fails validation.
	ErrInvalidSchedule = errors.New("door: invalid schedule")

	// ErrInvalidHoldTime indicates a negative hold time.
	ErrInvalidHoldTime = errors.New("door: invalid hold time")

	// ErrInvalidBatteryPercent indicates a percentage outside 0-100.
	ErrInvalidBatteryPercent = errors.New("door: invalid battery percent")

	// ErrInvalidTimezone indicates a timezone that is neither an IANA
	// zone name nor a POSIX TZ string.
	ErrInvalidTimezone = errors.New("door: invalid timezone")

	// ErrEngineStopped indicates an operation against a stopped engine.
	ErrEngineStopped = errors.New("door: engine stopped")
)
