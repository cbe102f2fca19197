package protocol

import (
	"errors"
	"fmt"

	"github.com/corporategoth/petdoor-core/internal/door"
)

// Device is the engine surface the protocol server drives. Implemented
// by *door.Engine.
type Device interface {
	RequestOpen(hold bool)
	RequestClose()

	Status() (door.Status, error)
	Settings() (door.Settings, error)
	SetFlag(flag door.Setting, value bool) error
	Flag(flag door.Setting) (bool, error)
	SetHoldTime(centiseconds int) error
	SetTimezone(name string) error

	Notifications() (door.NotificationSettings, error)
	SetNotifications(n door.NotificationSettings) error

	Schedules() ([]door.Schedule, error)
	ScheduleByIndex(index int) (door.Schedule, error)
	UpsertSchedule(s door.Schedule) error
	DeleteSchedule(index int) error

	Battery() (door.BatteryState, error)
	Stats() (door.Counters, error)
	Hardware() door.HardwareInfo

	Subscribe(l door.Listener)
	Unsubscribe(l door.Listener)
}

// handler processes one request. It returns the data fields to merge
// into the success response, or an error that becomes a failure
// response. Door-motion side effects are posted to the engine AFTER the
// connection queues the response, preserving response-before-
// notification ordering; handlers do that by returning a deferred
// action.
type handler func(dev Device, req message) (data message, after func(), err error)

// handlerTable maps command names to handlers. Built once at startup;
// both the "cmd" and "config" envelope keys resolve against it.
var handlerTable = map[string]handler{
	CmdOpen:        handleOpen(false),
	CmdOpenAndHold: handleOpen(true),
	CmdClose:       handleClose,

	CmdPowerOn:           handleSetFlag(door.SettingPower, true, fieldPower),
	CmdPowerOff:          handleSetFlag(door.SettingPower, false, fieldPower),
	CmdEnableInside:      handleSetFlag(door.SettingInside, true, fieldInside),
	CmdDisableInside:     handleSetFlag(door.SettingInside, false, fieldInside),
	CmdEnableOutside:     handleSetFlag(door.SettingOutside, true, fieldOutside),
	CmdDisableOutside:    handleSetFlag(door.SettingOutside, false, fieldOutside),
	CmdEnableAuto:        handleSetFlag(door.SettingTimers, true, fieldAuto),
	CmdDisableAuto:       handleSetFlag(door.SettingTimers, false, fieldAuto),
	CmdEnableSafetyLock:  handleSetFlag(door.SettingSafetyLock, true, fieldSafetyLock),
	CmdDisableSafetyLock: handleSetFlag(door.SettingSafetyLock, false, fieldSafetyLock),
	CmdEnableLockout:     handleSetFlag(door.SettingCmdLockout, true, fieldCmdLockout),
	CmdDisableLockout:    handleSetFlag(door.SettingCmdLockout, false, fieldCmdLockout),
	CmdEnableRetract:     handleSetFlag(door.SettingAutoretract, true, fieldAutoRetr),
	CmdDisableRetract:    handleSetFlag(door.SettingAutoretract, false, fieldAutoRetr),

	CmdGetDoorStatus: handleGetDoorStatus,
	CmdGetSettings:   handleGetSettings,
	CmdGetSensors:    handleGetSensors,
	CmdGetPower:      handleGetFlag(door.SettingPower, fieldPower),
	CmdGetAuto:       handleGetFlag(door.SettingTimers, fieldAuto),
	CmdGetBattery:    handleGetBattery,
	CmdGetStats:      handleGetStats,
	CmdGetHwInfo:     handleGetHwInfo,

	CmdGetNotifications: handleGetNotifications,
	CmdSetNotifications: handleSetNotifications,

	CmdGetScheduleList: handleGetScheduleList,
	CmdGetSchedule:     handleGetSchedule,
	CmdSetSchedule:     handleSetSchedule,
	CmdDeleteSchedule:  handleDeleteSchedule,

	CmdGetHoldTime: handleGetHoldTime,
	CmdSetHoldTime: handleSetHoldTime,
	CmdGetTimezone: handleGetTimezone,
	CmdSetTimezone: handleSetTimezone,
}

// handleOpen builds the OPEN / OPEN_AND_HOLD handler. Command lockout
// rejects explicit door commands outright; with power off the command
// succeeds but the motion request is inert, matching the physical
// device accepting app commands while motor control is disabled.
func handleOpen(hold bool) handler {
	return func(dev Device, _ message) (message, func(), error) {
		lockout, err := dev.Flag(door.SettingCmdLockout)
		if err != nil {
			return nil, nil, err
		}
		if lockout {
			return nil, nil, errors.New("Command lockout is enabled")
		}
		return message{}, func() { dev.RequestOpen(hold) }, nil
	}
}

func handleClose(dev Device, _ message) (message, func(), error) {
	lockout, err := dev.Flag(door.SettingCmdLockout)
	if err != nil {
		return nil, nil, err
	}
	if lockout {
		return nil, nil, errors.New("Command lockout is enabled")
	}
	return message{}, func() { dev.RequestClose() }, nil
}

func handleSetFlag(flag door.Setting, value bool, field string) handler {
	return func(dev Device, _ message) (message, func(), error) {
		if err := dev.SetFlag(flag, value); err != nil {
			return nil, nil, err
		}
		return message{field: boolStr(value)}, nil, nil
	}
}

func handleGetFlag(flag door.Setting, field string) handler {
	return func(dev Device, _ message) (message, func(), error) {
		v, err := dev.Flag(flag)
		if err != nil {
			return nil, nil, err
		}
		return message{field: boolStr(v)}, nil, nil
	}
}

func handleGetDoorStatus(dev Device, _ message) (message, func(), error) {
	st, err := dev.Status()
	if err != nil {
		return nil, nil, err
	}
	return message{fieldDoorStatus: st.State.String()}, nil, nil
}

func handleGetSettings(dev Device, _ message) (message, func(), error) {
	s, err := dev.Settings()
	if err != nil {
		return nil, nil, err
	}
	return message{fieldSettings: settingsPayload(s)}, nil, nil
}

func handleGetSensors(dev Device, _ message) (message, func(), error) {
	s, err := dev.Settings()
	if err != nil {
		return nil, nil, err
	}
	return message{
		fieldInside:  boolStr(s.InsideEnabled),
		fieldOutside: boolStr(s.OutsideEnabled),
	}, nil, nil
}

func handleGetBattery(dev Device, _ message) (message, func(), error) {
	b, err := dev.Battery()
	if err != nil {
		return nil, nil, err
	}
	return batteryPayload(b), nil, nil
}

func handleGetStats(dev Device, _ message) (message, func(), error) {
	c, err := dev.Stats()
	if err != nil {
		return nil, nil, err
	}
	return message{
		fieldTotalOpenCycles: c.TotalOpenCycles,
		fieldTotalRetracts:   c.TotalAutoRetracts,
	}, nil, nil
}

func handleGetHwInfo(dev Device, _ message) (message, func(), error) {
	hw := dev.Hardware()
	return message{
		fieldFwVersion: fmt.Sprintf("%d.%d.%d", hw.FwMajor, hw.FwMinor, hw.FwPatch),
		fieldHwVersion: fmt.Sprintf("%d.%d", hw.HwVersion, hw.HwRevision),
	}, nil, nil
}

func handleGetNotifications(dev Device, _ message) (message, func(), error) {
	n, err := dev.Notifications()
	if err != nil {
		return nil, nil, err
	}
	return message{fieldNotifications: notificationsPayload(n)}, nil, nil
}

func handleSetNotifications(dev Device, req message) (message, func(), error) {
	raw, ok := req[fieldNotifications].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("missing field %q", fieldNotifications)
	}
	current, err := dev.Notifications()
	if err != nil {
		return nil, nil, err
	}
	updated, err := parseNotifications(raw, current)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.SetNotifications(updated); err != nil {
		return nil, nil, err
	}
	return message{fieldNotifications: notificationsPayload(updated)}, nil, nil
}

func handleGetScheduleList(dev Device, _ message) (message, func(), error) {
	list, err := dev.Schedules()
	if err != nil {
		return nil, nil, err
	}
	payloads := make([]message, 0, len(list))
	for _, s := range list {
		payloads = append(payloads, schedulePayload(s))
	}
	return message{fieldSchedules: payloads}, nil, nil
}

func handleGetSchedule(dev Device, req message) (message, func(), error) {
	idx, err := intField(req, fieldIndex, true)
	if err != nil {
		return nil, nil, err
	}
	s, err := dev.ScheduleByIndex(idx)
	if err != nil {
		return nil, nil, err
	}
	return message{fieldSchedule: schedulePayload(s)}, nil, nil
}

func handleSetSchedule(dev Device, req message) (message, func(), error) {
	raw, ok := req[fieldSchedule].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("missing field %q", fieldSchedule)
	}
	s, err := parseSchedule(raw)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.UpsertSchedule(s); err != nil {
		return nil, nil, err
	}
	return message{fieldSchedule: schedulePayload(s)}, nil, nil
}

func handleDeleteSchedule(dev Device, req message) (message, func(), error) {
	idx, err := intField(req, fieldIndex, true)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.DeleteSchedule(idx); err != nil {
		return nil, nil, err
	}
	return message{fieldIndex: idx}, nil, nil
}

func handleGetHoldTime(dev Device, _ message) (message, func(), error) {
	s, err := dev.Settings()
	if err != nil {
		return nil, nil, err
	}
	return message{fieldHoldTime: s.HoldTimeCS}, nil, nil
}

func handleSetHoldTime(dev Device, req message) (message, func(), error) {
	cs, err := intField(req, fieldHoldTime, true)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.SetHoldTime(cs); err != nil {
		return nil, nil, err
	}
	return message{fieldHoldTime: cs}, nil, nil
}

func handleGetTimezone(dev Device, _ message) (message, func(), error) {
	s, err := dev.Settings()
	if err != nil {
		return nil, nil, err
	}
	return message{fieldTZ: s.Timezone}, nil, nil
}

func handleSetTimezone(dev Device, req message) (message, func(), error) {
	tz, ok := req[fieldTZ].(string)
	if !ok || tz == "" {
		return nil, nil, fmt.Errorf("missing field %q", fieldTZ)
	}
	if err := dev.SetTimezone(tz); err != nil {
		return nil, nil, err
	}
	return message{fieldTZ: tz}, nil, nil
}
