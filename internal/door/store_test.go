package door

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/corporategoth/petdoor-core/internal/infrastructure/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "petdoor.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return NewStore(db)
}

func TestStoreSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := DefaultSettings()
	want.PowerOn = false
	want.OutsideSafetyLock = true
	want.HoldTimeCS = 400
	want.Timezone = "Europe/London"

	if err := store.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err := store.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if got.PowerOn != want.PowerOn ||
		got.OutsideSafetyLock != want.OutsideSafetyLock ||
		got.HoldTimeCS != want.HoldTimeCS ||
		got.Timezone != want.Timezone {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestStoreLoadSettingsEmpty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Errorf("empty store LoadSettings() = %+v, want factory defaults", got)
	}
}

func TestStoreScheduleRoundTrip(t *testing.T) {
	store := newTestStore(t)

	entries := []Schedule{
		{
			Index: 0, Enabled: true, DaysOfWeek: AllWeek(), Inside: true,
			StartHour: 6, StartMin: 30, EndHour: 22, EndMin: 15,
		},
		{
			Index: 3, Enabled: false, DaysOfWeek: [7]int{0, 1, 1, 1, 1, 1, 0},
			Outside: true, StartHour: 8, EndHour: 18,
		},
	}
	for _, s := range entries {
		if err := store.UpsertSchedule(s); err != nil {
			t.Fatalf("UpsertSchedule(%d) error = %v", s.Index, err)
		}
	}

	got, err := store.LoadSchedules()
	if err != nil {
		t.Fatalf("LoadSchedules() error = %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("LoadSchedules() returned %d entries, want %d", len(got), len(entries))
	}
	for i, want := range entries {
		if got[i] != want {
			t.Errorf("schedule %d mismatch:\n got  %+v\n want %+v", want.Index, got[i], want)
		}
	}
}

func TestStoreScheduleUpsertReplaces(t *testing.T) {
	store := newTestStore(t)

	first := Schedule{
		Index: 1, Enabled: true, DaysOfWeek: AllWeek(), Inside: true,
		StartHour: 6, EndHour: 22,
	}
	if err := store.UpsertSchedule(first); err != nil {
		t.Fatalf("UpsertSchedule() error = %v", err)
	}

	replacement := first
	replacement.StartHour = 9
	replacement.Enabled = false
	if err := store.UpsertSchedule(replacement); err != nil {
		t.Fatalf("UpsertSchedule() replace error = %v", err)
	}

	got, err := store.LoadSchedules()
	if err != nil {
		t.Fatalf("LoadSchedules() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("LoadSchedules() returned %d entries, want 1", len(got))
	}
	if got[0] != replacement {
		t.Errorf("replaced schedule = %+v, want %+v", got[0], replacement)
	}
}

func TestStoreDeleteSchedule(t *testing.T) {
	store := newTestStore(t)

	s := Schedule{
		Index: 2, Enabled: true, DaysOfWeek: AllWeek(), Inside: true,
		StartHour: 6, EndHour: 22,
	}
	if err := store.UpsertSchedule(s); err != nil {
		t.Fatalf("UpsertSchedule() error = %v", err)
	}
	if err := store.DeleteSchedule(2); err != nil {
		t.Fatalf("DeleteSchedule() error = %v", err)
	}

	got, err := store.LoadSchedules()
	if err != nil {
		t.Fatalf("LoadSchedules() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadSchedules() after delete returned %d entries, want 0", len(got))
	}
}

func TestStoreCountersRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := Counters{TotalOpenCycles: 42, TotalAutoRetracts: 7}
	if err := store.SaveCounters(want); err != nil {
		t.Fatalf("SaveCounters() error = %v", err)
	}
	got, err := store.LoadCounters()
	if err != nil {
		t.Fatalf("LoadCounters() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadCounters() = %+v, want %+v", got, want)
	}
}

func TestStoreNotificationsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := NotificationSettings{SensorOnIndoor: true, LowBattery: false}
	if err := store.SaveNotifications(want); err != nil {
		t.Fatalf("SaveNotifications() error = %v", err)
	}
	got, err := store.LoadNotifications()
	if err != nil {
		t.Fatalf("LoadNotifications() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadNotifications() = %+v, want %+v", got, want)
	}
}

func TestStoreEventHistory(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordEvent("status", StateRising, ""); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if err := store.RecordEvent("obstruction", StateClosingFromTop, "while closing"); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}

	events, err := store.EventHistory(10)
	if err != nil {
		t.Fatalf("EventHistory() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("EventHistory() returned %d events, want 2", len(events))
	}
	// Newest first
	if events[0].Type != "obstruction" || events[0].DoorState != "DOOR_CLOSING_TOP_OPEN" {
		t.Errorf("newest event = %+v, want obstruction in DOOR_CLOSING_TOP_OPEN", events[0])
	}
	if events[1].Type != "status" || events[1].DoorState != "DOOR_RISING" {
		t.Errorf("oldest event = %+v, want status in DOOR_RISING", events[1])
	}
}
