package door

import (
	"fmt"
	"strings"
	"time"
)

// locationFor resolves a timezone setting to a location for schedule
// evaluation. IANA names resolve through the zone database; POSIX TZ
// strings such as "EST5EDT,M3.2.0,M11.1.0" resolve to a fixed zone at
// the standard offset. The DST transition rule is not applied.
func locationFor(name string) (*time.Location, error) {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}
	if loc, ok := parsePosixTZ(name); ok {
		return loc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
}

// parsePosixTZ parses the standard abbreviation and offset of a POSIX
// TZ string, e.g. "EST5EDT,M3.2.0,M11.1.0" or "<+07>-7". POSIX offsets
// are west-positive; Go locations count seconds east of UTC.
func parsePosixTZ(s string) (*time.Location, bool) {
	abbrev, rest, ok := parseTZAbbrev(s)
	if !ok {
		return nil, false
	}
	offset, rest, ok := parseTZOffset(rest)
	if !ok {
		return nil, false
	}
	if rest != "" && rest[0] != ',' {
		// DST abbreviation, with an optional offset of its own
		if _, rest, ok = parseTZAbbrev(rest); !ok {
			return nil, false
		}
		if rest != "" && rest[0] != ',' {
			if _, rest, ok = parseTZOffset(rest); !ok {
				return nil, false
			}
		}
	}
	if rest != "" && rest[0] != ',' {
		return nil, false
	}
	return time.FixedZone(abbrev, -offset), true
}

// parseTZAbbrev reads a zone abbreviation: three or more letters, or
// any characters wrapped in angle brackets.
func parseTZAbbrev(s string) (abbrev, rest string, ok bool) {
	if strings.HasPrefix(s, "<") {
		end := strings.IndexByte(s, '>')
		if end < 2 {
			return "", "", false
		}
		return s[1:end], s[end+1:], true
	}
	i := 0
	for i < len(s) && isTZAlpha(s[i]) {
		i++
	}
	if i < 3 {
		return "", "", false
	}
	return s[:i], s[i:], true
}

func isTZAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// parseTZOffset reads [+|-]hh[:mm[:ss]] and returns total seconds.
func parseTZOffset(s string) (seconds int, rest string, ok bool) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	hours, s, ok := parseTZNumber(s, 24)
	if !ok {
		return 0, "", false
	}
	seconds = hours * 3600
	if strings.HasPrefix(s, ":") {
		var mins int
		mins, s, ok = parseTZNumber(s[1:], 59)
		if !ok {
			return 0, "", false
		}
		seconds += mins * 60
		if strings.HasPrefix(s, ":") {
			var secs int
			secs, s, ok = parseTZNumber(s[1:], 59)
			if !ok {
				return 0, "", false
			}
			seconds += secs
		}
	}
	if neg {
		seconds = -seconds
	}
	return seconds, s, true
}

// parseTZNumber reads up to two digits capped at max.
func parseTZNumber(s string, max int) (n int, rest string, ok bool) {
	i := 0
	for i < len(s) && i < 2 && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i == 0 || n > max {
		return 0, "", false
	}
	return n, s[i:], true
}
