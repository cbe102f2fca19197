package door

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/corporategoth/petdoor-core/internal/infrastructure/database"
)

// Counter names used in the counters table.
const (
	counterOpenCycles   = "total_open_cycles"
	counterAutoRetracts = "total_auto_retracts"
)

// Store persists device state to SQLite. It implements Persister and
// additionally loads the saved state back at startup. All writes go
// through the engine's event loop, so no internal locking is needed.
type Store struct {
	db *database.DB
}

// NewStore wraps an open database. The schema must already be migrated.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// LoadSettings returns the persisted settings record, or factory
// defaults when nothing has been saved yet.
func (s *Store) LoadSettings() (Settings, error) {
	var (
		out   = DefaultSettings()
		flags [7]int
	)
	err := s.db.QueryRow(`
SELECT power_on, inside_enabled, outside_enabled, timers_enabled,
       outside_safety_lock, cmd_lockout, autoretract, hold_time_cs, timezone
FROM settings WHERE id = 1`).Scan(
		&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5], &flags[6],
		&out.HoldTimeCS, &out.Timezone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	out.PowerOn = flags[0] != 0
	out.InsideEnabled = flags[1] != 0
	out.OutsideEnabled = flags[2] != 0
	out.TimersEnabled = flags[3] != 0
	out.OutsideSafetyLock = flags[4] != 0
	out.CmdLockout = flags[5] != 0
	out.Autoretract = flags[6] != 0
	return out, nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(settings Settings) error {
	_, err := s.db.Exec(`
INSERT INTO settings (id, power_on, inside_enabled, outside_enabled, timers_enabled,
                      outside_safety_lock, cmd_lockout, autoretract, hold_time_cs,
                      timezone, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(id) DO UPDATE SET
    power_on = excluded.power_on,
    inside_enabled = excluded.inside_enabled,
    outside_enabled = excluded.outside_enabled,
    timers_enabled = excluded.timers_enabled,
    outside_safety_lock = excluded.outside_safety_lock,
    cmd_lockout = excluded.cmd_lockout,
    autoretract = excluded.autoretract,
    hold_time_cs = excluded.hold_time_cs,
    timezone = excluded.timezone,
    updated_at = excluded.updated_at`,
		boolInt(settings.PowerOn), boolInt(settings.InsideEnabled),
		boolInt(settings.OutsideEnabled), boolInt(settings.TimersEnabled),
		boolInt(settings.OutsideSafetyLock), boolInt(settings.CmdLockout),
		boolInt(settings.Autoretract), settings.HoldTimeCS, settings.Timezone,
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// LoadNotifications returns the persisted notification gates, or the
// factory defaults.
func (s *Store) LoadNotifications() (NotificationSettings, error) {
	var raw string
	err := s.db.QueryRow("SELECT notifications FROM settings WHERE id = 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultNotifications(), nil
	}
	if err != nil {
		return NotificationSettings{}, fmt.Errorf("loading notifications: %w", err)
	}
	if raw == "" || raw == "{}" {
		return DefaultNotifications(), nil
	}
	var n NotificationSettings
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return NotificationSettings{}, fmt.Errorf("decoding notifications: %w", err)
	}
	return n, nil
}

// SaveNotifications stores the notification gates alongside settings.
func (s *Store) SaveNotifications(n NotificationSettings) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notifications: %w", err)
	}
	res, err := s.db.Exec(
		"UPDATE settings SET notifications = ?, updated_at = datetime('now') WHERE id = 1",
		string(raw))
	if err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// No settings row yet; create one with defaults plus these gates
		if err := s.SaveSettings(DefaultSettings()); err != nil {
			return err
		}
		_, err = s.db.Exec(
			"UPDATE settings SET notifications = ? WHERE id = 1", string(raw))
		if err != nil {
			return fmt.Errorf("saving notifications: %w", err)
		}
	}
	return nil
}

// LoadSchedules returns every persisted schedule entry.
func (s *Store) LoadSchedules() ([]Schedule, error) {
	rows, err := s.db.Query(`
SELECT idx, enabled, days_of_week, inside, outside,
       in_start_hour, in_start_min, in_end_hour, in_end_min,
       out_start_hour, out_start_min, out_end_hour, out_end_min
FROM schedules ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("loading schedules: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var list []Schedule
	for rows.Next() {
		var (
			sched                  Schedule
			enabled, inside, out   int
			days                   string
			inSH, inSM, inEH, inEM int
			oSH, oSM, oEH, oEM     int
		)
		err := rows.Scan(&sched.Index, &enabled, &days, &inside, &out,
			&inSH, &inSM, &inEH, &inEM, &oSH, &oSM, &oEH, &oEM)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		sched.Enabled = enabled != 0
		sched.Inside = inside != 0
		sched.Outside = out != 0
		sched.DaysOfWeek = parseDays(days)
		if sched.Inside {
			sched.StartHour, sched.StartMin = inSH, inSM
			sched.EndHour, sched.EndMin = inEH, inEM
		} else {
			sched.StartHour, sched.StartMin = oSH, oSM
			sched.EndHour, sched.EndMin = oEH, oEM
		}
		list = append(list, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}
	return list, nil
}

// UpsertSchedule creates or replaces the entry at its index. The
// inactive side's time columns are zeroed, matching the wire shape.
func (s *Store) UpsertSchedule(sched Schedule) error {
	var inSH, inSM, inEH, inEM, oSH, oSM, oEH, oEM int
	if sched.Inside {
		inSH, inSM, inEH, inEM = sched.StartHour, sched.StartMin, sched.EndHour, sched.EndMin
	}
	if sched.Outside {
		oSH, oSM, oEH, oEM = sched.StartHour, sched.StartMin, sched.EndHour, sched.EndMin
	}
	_, err := s.db.Exec(`
INSERT INTO schedules (idx, enabled, days_of_week, inside, outside,
                       in_start_hour, in_start_min, in_end_hour, in_end_min,
                       out_start_hour, out_start_min, out_end_hour, out_end_min,
                       updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(idx) DO UPDATE SET
    enabled = excluded.enabled,
    days_of_week = excluded.days_of_week,
    inside = excluded.inside,
    outside = excluded.outside,
    in_start_hour = excluded.in_start_hour,
    in_start_min = excluded.in_start_min,
    in_end_hour = excluded.in_end_hour,
    in_end_min = excluded.in_end_min,
    out_start_hour = excluded.out_start_hour,
    out_start_min = excluded.out_start_min,
    out_end_hour = excluded.out_end_hour,
    out_end_min = excluded.out_end_min,
    updated_at = excluded.updated_at`,
		sched.Index, boolInt(sched.Enabled), formatDays(sched.DaysOfWeek),
		boolInt(sched.Inside), boolInt(sched.Outside),
		inSH, inSM, inEH, inEM, oSH, oSM, oEH, oEM,
	)
	if err != nil {
		return fmt.Errorf("saving schedule %d: %w", sched.Index, err)
	}
	return nil
}

// DeleteSchedule removes the entry at the given index.
func (s *Store) DeleteSchedule(index int) error {
	_, err := s.db.Exec("DELETE FROM schedules WHERE idx = ?", index)
	if err != nil {
		return fmt.Errorf("deleting schedule %d: %w", index, err)
	}
	return nil
}

// LoadCounters returns the persisted lifetime counters.
func (s *Store) LoadCounters() (Counters, error) {
	var c Counters
	rows, err := s.db.Query("SELECT name, value FROM counters")
	if err != nil {
		return Counters{}, fmt.Errorf("loading counters: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return Counters{}, fmt.Errorf("scanning counter: %w", err)
		}
		switch name {
		case counterOpenCycles:
			c.TotalOpenCycles = value
		case counterAutoRetracts:
			c.TotalAutoRetracts = value
		}
	}
	if err := rows.Err(); err != nil {
		return Counters{}, fmt.Errorf("iterating counters: %w", err)
	}
	return c, nil
}

// SaveCounters upserts both lifetime counters.
func (s *Store) SaveCounters(c Counters) error {
	for name, value := range map[string]int64{
		counterOpenCycles:   c.TotalOpenCycles,
		counterAutoRetracts: c.TotalAutoRetracts,
	} {
		_, err := s.db.Exec(`
INSERT INTO counters (name, value, updated_at)
VALUES (?, ?, datetime('now'))
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			name, value)
		if err != nil {
			return fmt.Errorf("saving counter %s: %w", name, err)
		}
	}
	return nil
}

// RecordEvent appends one row to the door event history.
func (s *Store) RecordEvent(eventType string, state State, detail string) error {
	_, err := s.db.Exec(
		"INSERT INTO door_events (event_type, door_state, detail) VALUES (?, ?, ?)",
		eventType, state.String(), detail)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// EventHistory returns the most recent door events, newest first.
func (s *Store) EventHistory(limit int) ([]Event, error) {
	rows, err := s.db.Query(`
SELECT occurred_at, event_type, door_state, COALESCE(detail, '')
FROM door_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading event history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.OccurredAt, &ev.Type, &ev.DoorState, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// Event is one row of the persisted door history.
type Event struct {
	OccurredAt string
	Type       string
	DoorState  string
	Detail     string
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatDays encodes the 7-flag day array as a comma-separated string.
func formatDays(days [7]int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ",")
}

// parseDays decodes formatDays output; malformed input degrades to
// every-day rather than failing a load.
func parseDays(raw string) [7]int {
	parts := strings.Split(raw, ",")
	if len(parts) != 7 {
		return AllWeek()
	}
	var days [7]int
	for i, p := range parts {
		if strings.TrimSpace(p) == "1" {
			days[i] = 1
		}
	}
	return days
}
