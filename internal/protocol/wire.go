package protocol

import (
	"fmt"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// Envelope field names. Requests carry "msgId"; responses echo it as
// "msgID". The casing difference is a firmware quirk reproduced for
// interoperability.
const (
	fieldCmd       = "cmd"
	fieldConfig    = "config"
	fieldMsgID     = "msgId"
	fieldRespCmd   = "CMD"
	fieldRespMsgID = "msgID"
	fieldDir       = "dir"
	fieldSuccess   = "success"
	fieldReason    = "reason"

	dirPhoneToDoor = "p2d"
	dirDoorToPhone = "d2p"

	successTrue  = "true"
	successFalse = "false"
)

// Data field names.
const (
	fieldDoorStatus = "door_status"
	fieldSettings   = "settings"
	fieldPower      = "power"
	fieldInside     = "inside"
	fieldOutside    = "outside"
	fieldAuto       = "auto"
	fieldSafetyLock = "outsideSensorSafetyLock"
	fieldCmdLockout = "cmdLockout"
	fieldAutoRetr   = "autoretract"
	fieldTZ         = "tz"
	fieldHoldOpen   = "holdOpenTime"
	fieldHoldTime   = "holdTime"
	fieldSensorV    = "sensorTriggerVoltage"
	fieldSleepV     = "sleepSensorTriggerVoltage"

	fieldBatteryPercent = "batteryPercent"
	fieldBatteryPresent = "batteryPresent"
	fieldACPresent      = "acPresent"
	fieldIsCharging     = "isCharging"
	fieldIsDischarging  = "isDischarging"

	fieldTotalOpenCycles = "totalOpenCycles"
	fieldTotalRetracts   = "totalAutoRetracts"

	fieldFwVersion = "fwVersion"
	fieldHwVersion = "hwVersion"

	fieldNotifications = "notifications"
	fieldNotifOnIn     = "sensorOnIndoorNotifications"
	fieldNotifOffIn    = "sensorOffIndoorNotifications"
	fieldNotifOnOut    = "sensorOnOutdoorNotifications"
	fieldNotifOffOut   = "sensorOffOutdoorNotifications"
	fieldNotifLowBatt  = "lowBatteryNotifications"

	fieldSchedules  = "schedules"
	fieldSchedule   = "schedule"
	fieldIndex      = "index"
	fieldEnabled    = "enabled"
	fieldDaysOfWeek = "daysOfWeek"
	fieldInStart    = "in_start_time"
	fieldInEnd      = "in_end_time"
	fieldOutStart   = "out_start_time"
	fieldOutEnd     = "out_end_time"
	fieldHour       = "hour"
	fieldMin        = "min"

	fieldSensor = "sensor"
	fieldActive = "active"
)

// Command names.
const (
	CmdPing = "PING"
	CmdPong = "PONG"

	CmdOpen        = "OPEN"
	CmdOpenAndHold = "OPEN_AND_HOLD"
	CmdClose       = "CLOSE"

	CmdPowerOn           = "POWER_ON"
	CmdPowerOff          = "POWER_OFF"
	CmdEnableInside      = "ENABLE_INSIDE"
	CmdDisableInside     = "DISABLE_INSIDE"
	CmdEnableOutside     = "ENABLE_OUTSIDE"
	CmdDisableOutside    = "DISABLE_OUTSIDE"
	CmdEnableAuto        = "ENABLE_AUTO"
	CmdDisableAuto       = "DISABLE_AUTO"
	CmdEnableSafetyLock  = "ENABLE_OUTSIDE_SENSOR_SAFETY_LOCK"
	CmdDisableSafetyLock = "DISABLE_OUTSIDE_SENSOR_SAFETY_LOCK"
	CmdEnableLockout     = "ENABLE_CMD_LOCKOUT"
	CmdDisableLockout    = "DISABLE_CMD_LOCKOUT"
	CmdEnableRetract     = "ENABLE_AUTORETRACT"
	CmdDisableRetract    = "DISABLE_AUTORETRACT"

	CmdGetDoorStatus = "GET_DOOR_STATUS"
	CmdGetSettings   = "GET_SETTINGS"
	CmdGetSensors    = "GET_SENSORS"
	CmdGetPower      = "GET_POWER"
	CmdGetAuto       = "GET_AUTO"
	CmdGetBattery    = "GET_DOOR_BATTERY"
	CmdGetStats      = "GET_DOOR_OPEN_STATS"
	CmdGetHwInfo     = "GET_HW_INFO"

	CmdGetNotifications = "GET_NOTIFICATIONS"
	CmdSetNotifications = "SET_NOTIFICATIONS"

	CmdGetScheduleList = "GET_SCHEDULE_LIST"
	CmdGetSchedule     = "GET_SCHEDULE"
	CmdSetSchedule     = "SET_SCHEDULE"
	CmdDeleteSchedule  = "DELETE_SCHEDULE"

	CmdGetHoldTime = "GET_HOLD_TIME"
	CmdSetHoldTime = "SET_HOLD_TIME"
	CmdGetTimezone = "GET_TIMEZONE"
	CmdSetTimezone = "SET_TIMEZONE"

	// Unsolicited notification command names.
	NotifyDoorStatus  = "DOOR_STATUS"
	NotifySensorEvent = "SENSOR_EVENT"
	NotifyLowBattery  = "LOW_BATTERY"
)

// message is a decoded or outbound wire object.
type message map[string]any

// boolStr encodes a wire boolean. Every boolean field except the
// envelope's "success" uses "0"/"1".
func boolStr(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// parseBoolStr accepts the wire's "0"/"1" strings plus bare JSON
// booleans, which some client versions emit.
func parseBoolStr(v any) (bool, error) {
	switch t := v.(type) {
	case string:
		switch t {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean string %q", t)
	case bool:
		return t, nil
	default:
		return false, fmt.Errorf("invalid boolean value %v", v)
	}
}

// settingsPayload builds the GET_SETTINGS object.
func settingsPayload(s door.Settings) message {
	return message{
		fieldPower:      boolStr(s.PowerOn),
		fieldInside:     boolStr(s.InsideEnabled),
		fieldOutside:    boolStr(s.OutsideEnabled),
		fieldAuto:       boolStr(s.TimersEnabled),
		fieldSafetyLock: boolStr(s.OutsideSafetyLock),
		fieldCmdLockout: boolStr(s.CmdLockout),
		fieldAutoRetr:   boolStr(s.Autoretract),
		fieldTZ:         s.Timezone,
		fieldHoldOpen:   s.HoldTimeCS,
		fieldSensorV:    s.SensorTriggerVoltage,
		fieldSleepV:     s.SleepSensorTriggerVoltage,
	}
}

// batteryPayload builds the battery status fields. An absent pack
// reports zero percent.
func batteryPayload(b door.BatteryState) message {
	return message{
		fieldBatteryPercent: b.Percent,
		fieldBatteryPresent: boolStr(b.Present),
		fieldACPresent:      boolStr(b.ACPresent),
		fieldIsCharging:     boolStr(b.Charging()),
		fieldIsDischarging:  boolStr(b.Discharging()),
	}
}

// notificationsPayload builds the notification-gate object.
func notificationsPayload(n door.NotificationSettings) message {
	return message{
		fieldNotifOnIn:    boolStr(n.SensorOnIndoor),
		fieldNotifOffIn:   boolStr(n.SensorOffIndoor),
		fieldNotifOnOut:   boolStr(n.SensorOnOutdoor),
		fieldNotifOffOut:  boolStr(n.SensorOffOutdoor),
		fieldNotifLowBatt: boolStr(n.LowBattery),
	}
}

// timeOfDay builds an {hour, min} object.
func timeOfDay(hour, minute int) message {
	return message{fieldHour: hour, fieldMin: minute}
}

// schedulePayload builds the wire shape of one schedule entry. The
// enabled flag is a string-bool while inside/outside are JSON booleans;
// the inactive side's times are zeroed. Another firmware quirk kept
// as-is.
func schedulePayload(s door.Schedule) message {
	days := make([]int, 7)
	copy(days, s.DaysOfWeek[:])

	m := message{
		fieldIndex:      s.Index,
		fieldEnabled:    boolStr(s.Enabled),
		fieldDaysOfWeek: days,
		fieldInside:     s.Inside,
		fieldOutside:    s.Outside,
		fieldInStart:    timeOfDay(0, 0),
		fieldInEnd:      timeOfDay(0, 0),
		fieldOutStart:   timeOfDay(0, 0),
		fieldOutEnd:     timeOfDay(0, 0),
	}
	if s.Inside {
		m[fieldInStart] = timeOfDay(s.StartHour, s.StartMin)
		m[fieldInEnd] = timeOfDay(s.EndHour, s.EndMin)
	}
	if s.Outside {
		m[fieldOutStart] = timeOfDay(s.StartHour, s.StartMin)
		m[fieldOutEnd] = timeOfDay(s.EndHour, s.EndMin)
	}
	return m
}

// parseSchedule decodes a wire schedule object. daysOfWeek accepts
// both the 7-element array and the legacy integer bitmask.
func parseSchedule(raw map[string]any) (door.Schedule, error) {
	s := door.Schedule{Enabled: true, DaysOfWeek: door.AllWeek()}

	idx, err := intField(raw, fieldIndex, true)
	if err != nil {
		return door.Schedule{}, err
	}
	s.Index = idx

	if v, ok := raw[fieldEnabled]; ok {
		enabled, err := parseBoolStr(v)
		if err != nil {
			return door.Schedule{}, fmt.Errorf("%s: %w", fieldEnabled, err)
		}
		s.Enabled = enabled
	}

	switch days := raw[fieldDaysOfWeek].(type) {
	case nil:
	case float64:
		s.DaysOfWeek = door.DaysFromBitmask(int(days))
	case []any:
		if len(days) != 7 {
			return door.Schedule{}, fmt.Errorf("%s must have 7 entries, got %d",
				fieldDaysOfWeek, len(days))
		}
		for i, d := range days {
			f, ok := d.(float64)
			if !ok || (f != 0 && f != 1) {
				return door.Schedule{}, fmt.Errorf("%s entry %d must be 0 or 1", fieldDaysOfWeek, i)
			}
			s.DaysOfWeek[i] = int(f)
		}
	default:
		return door.Schedule{}, fmt.Errorf("%s must be an array or bitmask", fieldDaysOfWeek)
	}

	s.Inside, _ = raw[fieldInside].(bool)
	s.Outside, _ = raw[fieldOutside].(bool)

	// Missing time objects default to 0:00, so a schedule sent without
	// times gets the zero-width window [0:00, 0:00) and never matches.
	// Legacy clients that rely on implicit times must send them.
	var start, end map[string]any
	if s.Inside {
		start, _ = raw[fieldInStart].(map[string]any)
		end, _ = raw[fieldInEnd].(map[string]any)
	} else if s.Outside {
		start, _ = raw[fieldOutStart].(map[string]any)
		end, _ = raw[fieldOutEnd].(map[string]any)
	}
	if start != nil {
		if s.StartHour, err = intField(start, fieldHour, false); err != nil {
			return door.Schedule{}, err
		}
		if s.StartMin, err = intField(start, fieldMin, false); err != nil {
			return door.Schedule{}, err
		}
	}
	if end != nil {
		if s.EndHour, err = intField(end, fieldHour, false); err != nil {
			return door.Schedule{}, err
		}
		if s.EndMin, err = intField(end, fieldMin, false); err != nil {
			return door.Schedule{}, err
		}
	}

	if err := s.Validate(); err != nil {
		return door.Schedule{}, err
	}
	return s, nil
}

// parseNotifications decodes a SET_NOTIFICATIONS payload. Fields not
// present keep their current value.
func parseNotifications(raw map[string]any, current door.NotificationSettings) (door.NotificationSettings, error) {
	out := current
	fields := map[string]*bool{
		fieldNotifOnIn:    &out.SensorOnIndoor,
		fieldNotifOffIn:   &out.SensorOffIndoor,
		fieldNotifOnOut:   &out.SensorOnOutdoor,
		fieldNotifOffOut:  &out.SensorOffOutdoor,
		fieldNotifLowBatt: &out.LowBattery,
	}
	for name, dest := range fields {
		v, ok := raw[name]
		if !ok {
			continue
		}
		b, err := parseBoolStr(v)
		if err != nil {
			return door.NotificationSettings{}, fmt.Errorf("%s: %w", name, err)
		}
		*dest = b
	}
	return out, nil
}

// intField extracts an integer from a decoded JSON object.
func intField(raw map[string]any, name string, required bool) (int, error) {
	v, ok := raw[name]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing field %q", name)
		}
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("field %q must be an integer", name)
	}
	return int(f), nil
}
