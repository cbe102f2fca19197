package door

import (
	"errors"
	"testing"
	"time"
)

func TestParsePosixTZ(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantOK     bool
		wantAbbrev string
		wantOffset int // seconds east of UTC
	}{
		{name: "std with dst rule", in: "EST5EDT,M3.2.0,M11.1.0", wantOK: true, wantAbbrev: "EST", wantOffset: -5 * 3600},
		{name: "std only", in: "UTC0", wantOK: true, wantAbbrev: "UTC", wantOffset: 0},
		{name: "std and dst no rule", in: "CET-1CEST", wantOK: true, wantAbbrev: "CET", wantOffset: 1 * 3600},
		{name: "quoted abbrev", in: "<+07>-7", wantOK: true, wantAbbrev: "+07", wantOffset: 7 * 3600},
		{name: "half hour offset", in: "IST-5:30", wantOK: true, wantAbbrev: "IST", wantOffset: 5*3600 + 30*60},
		{name: "dst with own offset", in: "NST3:30NDT2:30,M3.2.0,M11.1.0", wantOK: true, wantAbbrev: "NST", wantOffset: -(3*3600 + 30*60)},
		{name: "missing offset", in: "EST", wantOK: false},
		{name: "abbrev too short", in: "AB5", wantOK: false},
		{name: "iana name", in: "America/New_York", wantOK: false},
		{name: "garbage", in: "not-a-zone", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := parsePosixTZ(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parsePosixTZ(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			abbrev, offset := time.Now().In(loc).Zone()
			if abbrev != tt.wantAbbrev {
				t.Errorf("abbrev = %q, want %q", abbrev, tt.wantAbbrev)
			}
			if offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func TestLocationForResolvesBothForms(t *testing.T) {
	if _, err := locationFor("America/New_York"); err != nil {
		t.Errorf("locationFor(IANA) error = %v", err)
	}
	if _, err := locationFor("EST5EDT,M3.2.0,M11.1.0"); err != nil {
		t.Errorf("locationFor(POSIX) error = %v", err)
	}
	if _, err := locationFor("not-a-zone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("locationFor(garbage) error = %v, want ErrInvalidTimezone", err)
	}
}

func TestSetTimezonePosixString(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	const posix = "EST5EDT,M3.2.0,M11.1.0"
	if err := e.SetTimezone(posix); err != nil {
		t.Fatalf("SetTimezone(%q) error = %v", posix, err)
	}
	s, err := e.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if s.Timezone != posix {
		t.Errorf("Timezone = %q, want it stored as-is", s.Timezone)
	}

	if err := e.SetTimezone("not-a-zone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("SetTimezone(garbage) error = %v, want ErrInvalidTimezone", err)
	}
}
