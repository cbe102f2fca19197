package door

import (
	"testing"
	"time"
)

func TestScheduleValidate(t *testing.T) {
	valid := Schedule{
		Index: 0, Enabled: true, DaysOfWeek: AllWeek(), Inside: true,
		StartHour: 6, EndHour: 22,
	}

	tests := []struct {
		name    string
		modify  func(*Schedule)
		wantErr bool
	}{
		{name: "valid entry", wantErr: false},
		{name: "negative index", modify: func(s *Schedule) { s.Index = -1 }, wantErr: true},
		{name: "no side", modify: func(s *Schedule) { s.Inside = false }, wantErr: true},
		{name: "both sides", modify: func(s *Schedule) { s.Outside = true }, wantErr: true},
		{name: "hour out of range", modify: func(s *Schedule) { s.StartHour = 24 }, wantErr: true},
		{name: "minute out of range", modify: func(s *Schedule) { s.EndMin = 60 }, wantErr: true},
		{name: "bad day flag", modify: func(s *Schedule) { s.DaysOfWeek[2] = 5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			if tt.modify != nil {
				tt.modify(&s)
			}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheduleAllowsSensor(t *testing.T) {
	weekdaysOnly := [7]int{0, 1, 1, 1, 1, 1, 0}

	sched := Schedule{
		Index: 1, Enabled: true, DaysOfWeek: weekdaysOnly, Inside: true,
		StartHour: 8, StartMin: 30, EndHour: 17, EndMin: 0,
	}

	at := func(day time.Weekday, hour, minute int) time.Time {
		// 2026-03-01 is a Sunday
		base := time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
		return base.AddDate(0, 0, int(day))
	}

	tests := []struct {
		name string
		side Sensor
		now  time.Time
		want bool
	}{
		{"inside window on weekday", SensorInside, at(time.Monday, 12, 0), true},
		{"wrong side", SensorOutside, at(time.Monday, 12, 0), false},
		{"inactive day", SensorInside, at(time.Sunday, 12, 0), false},
		{"before start", SensorInside, at(time.Monday, 8, 29), false},
		{"at start inclusive", SensorInside, at(time.Monday, 8, 30), true},
		{"at end exclusive", SensorInside, at(time.Monday, 17, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sched.AllowsSensor(tt.side, tt.now); got != tt.want {
				t.Errorf("AllowsSensor(%s, %v) = %v, want %v",
					tt.side, tt.now, got, tt.want)
			}
		})
	}

	t.Run("disabled entry never allows", func(t *testing.T) {
		disabled := sched
		disabled.Enabled = false
		if disabled.AllowsSensor(SensorInside, at(time.Monday, 12, 0)) {
			t.Error("disabled schedule allowed a trigger")
		}
	})
}

func TestScheduleMidnightWrap(t *testing.T) {
	overnight := Schedule{
		Index: 2, Enabled: true, DaysOfWeek: AllWeek(), Outside: true,
		StartHour: 22, EndHour: 6,
	}

	tests := []struct {
		name string
		hour int
		want bool
	}{
		{"before window", 21, false},
		{"late evening", 23, true},
		{"after midnight", 2, true},
		{"just before end", 5, true},
		{"at end", 6, false},
		{"midday", 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 2, tt.hour, 0, 0, 0, time.UTC)
			if got := overnight.AllowsSensor(SensorOutside, now); got != tt.want {
				t.Errorf("AllowsSensor() at %02d:00 = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestDaysFromBitmask(t *testing.T) {
	tests := []struct {
		mask int
		want [7]int
	}{
		{0x7F, AllWeek()},
		{0x00, [7]int{}},
		{0x01, [7]int{1, 0, 0, 0, 0, 0, 0}}, // Sunday only
		{0x41, [7]int{1, 0, 0, 0, 0, 0, 1}}, // weekend
		{0x3E, [7]int{0, 1, 1, 1, 1, 1, 0}}, // weekdays
	}

	for _, tt := range tests {
		if got := DaysFromBitmask(tt.mask); got != tt.want {
			t.Errorf("DaysFromBitmask(%#x) = %v, want %v", tt.mask, got, tt.want)
		}
	}
}
