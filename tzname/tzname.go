// Package tzname normalizes the many acceptable spellings of a timezone
// identifier into a canonical zone name: IANA names pass through, the
// various UTC aliases, military letters, bare hour offsets, signed offset
// strings and GMT-prefixed offsets map onto fixed-offset pseudo-zones, and
// anything else is tried against the database and then as a POSIX
// abbreviation.
package tzname

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ngrash/go-tzperiod/tzdb"
	"github.com/ngrash/go-tzperiod/tzposix"
)

var (
	// ErrInvalidTimezone is returned for identifiers that cannot be
	// mapped to any known zone.
	ErrInvalidTimezone = errors.New("tzname: invalid timezone")
	// ErrInvalidOffset is returned for malformed numeric offset strings.
	ErrInvalidOffset = errors.New("tzname: invalid offset")
)

// military maps single-letter military timezone designators to their hour
// offset east of UTC. J is deliberately absent: it designates local time.
var military = map[string]int{
	"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6,
	"G": 7, "H": 8, "I": 9, "K": 10, "L": 11, "M": 12,
	"N": -1, "O": -2, "P": -3, "Q": -4, "R": -5, "S": -6,
	"T": -7, "U": -8, "V": -9, "W": -10, "X": -11, "Y": -12,
}

var floatWarn sync.Once

// Canonicalize maps a zone identifier to a canonical zone name. The
// database may be nil, in which case only offset spellings and POSIX
// abbreviations resolve.
func Canonicalize(db tzdb.Database, name string) (string, error) {
	s := strings.TrimSpace(name)

	switch strings.ToUpper(s) {
	case "", ":UTC", "UTC", "Z", "UT", "GMT", "ETC/UTC", "ETC/GMT":
		return "Etc/UTC", nil
	}

	if hours, ok := military[strings.ToUpper(s)]; ok {
		return FixedName(hours * 3600)
	}

	// Bare integer or float hour offset. Positive means east of UTC.
	if hours, err := strconv.Atoi(s); err == nil {
		return FixedName(hours * 3600)
	}
	if hours, err := strconv.ParseFloat(s, 64); err == nil {
		floatWarn.Do(func() {
			logrus.Warnf("tzname: %q: fractional hour offsets are imprecise and deprecated, use a signed HH:MM offset", name)
		})
		return FixedName(int(math.Round(hours * 3600)))
	}

	if s[0] == '+' || s[0] == '-' {
		sec, err := parseSignedOffset(s)
		if err != nil {
			return "", err
		}
		return FixedName(sec)
	}

	// "GMT+2" and friends read intuitively: the sign is the direction
	// from UTC, not the POSIX convention.
	if rest, ok := strings.CutPrefix(s, "GMT"); ok && (rest[0] == '+' || rest[0] == '-') {
		sec, err := parseSignedOffset(rest)
		if err != nil {
			return "", err
		}
		return FixedName(sec)
	}

	// Canonical fixed-offset names are accepted regardless of whether
	// the database carries them as files.
	if _, ok := FixedOffset(s); ok {
		return s, nil
	}

	if db != nil && db.ZoneExists(s) {
		return s, nil
	}
	if _, err := tzposix.Parse(s); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrInvalidTimezone)
}

// FixedName returns the canonical pseudo-zone name for a fixed offset
// given in seconds east of UTC. Whole-hour offsets map to the Etc/GMT
// area, which follows the POSIX sign convention: Etc/GMT-N is N hours
// east of UTC and Etc/GMT+N is N hours west. Everything else maps to a
// "UTC±HH:MM[:SS]" pseudo-zone.
func FixedName(sec int) (string, error) {
	if sec <= -86400 || sec >= 86400 {
		return "", fmt.Errorf("%d seconds: %w", sec, ErrInvalidOffset)
	}
	if sec == 0 {
		return "Etc/UTC", nil
	}
	if sec%3600 == 0 {
		return fmt.Sprintf("Etc/GMT%+d", -sec/3600), nil
	}
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	if sec%60 == 0 {
		return fmt.Sprintf("UTC%s%02d:%02d", sign, sec/3600, sec%3600/60), nil
	}
	return fmt.Sprintf("UTC%s%02d:%02d:%02d", sign, sec/3600, sec%3600/60, sec%60), nil
}

// FixedOffset parses the canonical fixed-offset pseudo-zone names
// produced by FixedName back into seconds east of UTC: "Etc/UTC",
// "Etc/GMT±N" with the POSIX sign convention (GMT-N is N hours east of
// UTC), and "UTC±HH:MM[:SS]" for offsets that are not a whole number of
// hours.
func FixedOffset(name string) (int, bool) {
	switch {
	case name == "Etc/UTC" || name == "Etc/GMT" || name == "UTC":
		return 0, true
	case strings.HasPrefix(name, "Etc/GMT+") || strings.HasPrefix(name, "Etc/GMT-"):
		hours, err := strconv.Atoi(name[len("Etc/GMT"):])
		if err != nil || hours < -24 || hours > 24 {
			return 0, false
		}
		return -hours * 3600, true // POSIX sign inversion
	case strings.HasPrefix(name, "UTC+") || strings.HasPrefix(name, "UTC-"):
		var h, m, s int
		rest := name[len("UTC")+1:]
		switch strings.Count(rest, ":") {
		case 1:
			if _, err := fmt.Sscanf(rest, "%d:%d", &h, &m); err != nil {
				return 0, false
			}
		case 2:
			if _, err := fmt.Sscanf(rest, "%d:%d:%d", &h, &m, &s); err != nil {
				return 0, false
			}
		default:
			return 0, false
		}
		if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
			return 0, false
		}
		sec := h*3600 + m*60 + s
		if name[len("UTC")] == '-' {
			sec = -sec
		}
		return sec, true
	default:
		return 0, false
	}
}

// parseSignedOffset parses ±HH, ±HH:MM or ±HH:MM:SS, with or without a
// leading zero, into seconds east of UTC.
func parseSignedOffset(s string) (int, error) {
	orig := s
	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%q: %w", orig, ErrInvalidOffset)
	}
	limits := [3]int{23, 59, 59}
	scales := [3]int{3600, 60, 1}
	var sec int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("%q: %w", orig, ErrInvalidOffset)
		}
		sec += n * scales[i]
	}
	return sign * sec, nil
}
