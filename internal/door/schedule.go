package door

import (
	"fmt"
	"time"
)

// minutesPerHour converts hour fields to minute-of-day arithmetic.
const minutesPerHour = 60

// Schedule is one time-of-day window governing a single sensor side.
// Entries are keyed by Index and evaluated independently; overlapping
// windows for the same side are fine, any match activates the sensor.
type Schedule struct {
	Index   int
	Enabled bool

	// DaysOfWeek holds 7 active-day flags ordered Sunday-first, the
	// wire protocol's day convention.
	DaysOfWeek [7]int

	// Exactly one of Inside/Outside should be set; the entry controls
	// only that sensor.
	Inside  bool
	Outside bool

	StartHour int
	StartMin  int
	EndHour   int
	EndMin    int
}

// Validate checks field ranges. Index must be non-negative, times must
// be valid clock values, and the entry must govern exactly one side.
func (s Schedule) Validate() error {
	if s.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidSchedule, s.Index)
	}
	if s.Inside == s.Outside {
		return fmt.Errorf("%w: entry must control exactly one sensor side", ErrInvalidSchedule)
	}
	if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("%w: hour out of range", ErrInvalidSchedule)
	}
	if s.StartMin < 0 || s.StartMin > 59 || s.EndMin < 0 || s.EndMin > 59 {
		return fmt.Errorf("%w: minute out of range", ErrInvalidSchedule)
	}
	for i, d := range s.DaysOfWeek {
		if d != 0 && d != 1 {
			return fmt.Errorf("%w: day flag %d must be 0 or 1", ErrInvalidSchedule, i)
		}
	}
	return nil
}

// Side returns which sensor the entry governs.
func (s Schedule) Side() Sensor {
	if s.Outside {
		return SensorOutside
	}
	return SensorInside
}

// ActiveOn reports whether the entry applies on the given weekday.
func (s Schedule) ActiveOn(day time.Weekday) bool {
	if !s.Enabled {
		return false
	}
	// time.Weekday is already Sunday-first, matching DaysOfWeek order
	return s.DaysOfWeek[int(day)] == 1
}

// AllowsSensor reports whether the entry permits a trigger from the
// given side at the given local time. The window is [start, end); a
// start after the end wraps across midnight.
func (s Schedule) AllowsSensor(side Sensor, now time.Time) bool {
	if side == SensorInside && !s.Inside {
		return false
	}
	if side == SensorOutside && !s.Outside {
		return false
	}
	if !s.ActiveOn(now.Weekday()) {
		return false
	}

	current := now.Hour()*minutesPerHour + now.Minute()
	start := s.StartHour*minutesPerHour + s.StartMin
	end := s.EndHour*minutesPerHour + s.EndMin

	if start <= end {
		return start <= current && current < end
	}
	// Window crosses midnight
	return current >= start || current < end
}

// DaysFromBitmask expands the legacy single-integer day encoding
// (bit 0 = Sunday) into the 7-flag array form.
func DaysFromBitmask(mask int) [7]int {
	var days [7]int
	for i := range days {
		days[i] = (mask >> i) & 1
	}
	return days
}

// AllWeek is the every-day flag array.
func AllWeek() [7]int {
	return [7]int{1, 1, 1, 1, 1, 1, 1}
}
