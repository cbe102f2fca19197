package door

import "time"

// CanSensorOpen decides whether a trigger from the given side may open
// the door right now. Pure function of the settings snapshot, schedule
// set, side, and local wall-clock time.
//
// The rules, in order:
//  1. Power off: nothing opens.
//  2. A disabled sensor never triggers, regardless of schedule.
//  3. With schedule mode on, the side needs at least one enabled entry
//     whose active days include today and whose window contains now.
//  4. The safety lock suppresses only the outside sensor's ability to
//     open the door; the sensor still detects for notifications.
func CanSensorOpen(cfg Settings, schedules []Schedule, side Sensor, now time.Time) bool {
	if !cfg.PowerOn {
		return false
	}
	switch side {
	case SensorInside:
		if !cfg.InsideEnabled {
			return false
		}
	case SensorOutside:
		if !cfg.OutsideEnabled {
			return false
		}
		if cfg.OutsideSafetyLock {
			return false
		}
	}
	if cfg.TimersEnabled && !scheduleAllows(schedules, side, now) {
		return false
	}
	return true
}

// scheduleAllows reports whether any enabled entry for the side admits
// the current time. Entries are evaluated independently; overlap is
// not merged.
func scheduleAllows(schedules []Schedule, side Sensor, now time.Time) bool {
	for _, s := range schedules {
		if s.AllowsSensor(side, now) {
			return true
		}
	}
	return false
}

// BlocksClose decides whether a currently-detected pet on the given
// side prevents the door from closing.
//
// "Enabled" governs detection; the lockout and safety-lock flags govern
// whether detection may influence motion. With command lockout on the
// hold timer is authoritative and presence never blocks. The safety
// lock strips only the outside sensor's blocking power.
func BlocksClose(cfg Settings, side Sensor, detected bool) bool {
	if !detected {
		return false
	}
	if cfg.CmdLockout {
		return false
	}
	switch side {
	case SensorInside:
		return cfg.InsideEnabled
	case SensorOutside:
		return cfg.OutsideEnabled && !cfg.OutsideSafetyLock
	default:
		return false
	}
}
