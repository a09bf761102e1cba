// Package tzposix parses and evaluates POSIX-style TZ strings such as
// "CST6CDT,M3.2.0,M11.1.0". It covers zones that are not present in the
// IANA database and the rule extension that TZif footers carry.
//
// https://pubs.opengroup.org/onlinepubs/9699919799/basedefs/V1_chap08.html
package tzposix

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/period"
)

// ErrInvalid is returned for strings that do not form a POSIX timezone.
var ErrInvalid = errors.New("tzposix: invalid TZ string")

// RuleKind represents the day encoding of a transition rule.
type RuleKind int

func (k RuleKind) String() string {
	switch k {
	case Julian:
		return "Julian"
	case JulianLeap:
		return "JulianLeap"
	case MonthWeekDay:
		return "MonthWeekDay"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// Julian is the "Jn" encoding: day 1..365 of a calendar in which
	// February 29 never exists, even in leap years.
	Julian RuleKind = iota
	// JulianLeap is the bare "n" encoding: day 0..365, zero-based, of
	// the actual calendar, counting February 29 in leap years.
	JulianLeap
	// MonthWeekDay is the "Mm.w.d" encoding: weekday d of week w in
	// month m, where w=5 means the last occurrence in the month.
	MonthWeekDay
)

// Rule is a yearly transition rule.
type Rule struct {
	Kind RuleKind

	// Day is the day number for the Julian and JulianLeap forms.
	Day int

	// Month, Week and Weekday are defined for the MonthWeekDay form.
	// Week is 1..5 with 5 meaning "last".
	Month   time.Month
	Week    int
	Weekday time.Weekday

	// Time is the transition time as seconds after midnight local time.
	// The tzdata extension permits values outside [0, 86400).
	Time int
}

// Timezone is a parsed POSIX timezone. DstStart and DstEnd are both
// present or both absent.
type Timezone struct {
	Name      string
	StdAbbr   string
	StdOffset int // seconds east of UTC
	DstAbbr   string
	DstOffset int // seconds east of UTC, meaningful only with rules
	DstStart  *Rule
	DstEnd    *Rule
}

// HasDST reports whether the timezone observes daylight saving time.
func (t Timezone) HasDST() bool { return t.DstStart != nil }

// Parse parses a POSIX TZ string.
//
// The numbers in a TZ string are added to local time to get UTC, the
// opposite of the seconds-east convention used everywhere else in this
// module, so offsets are negated on the way in. A missing DST offset
// defaults to one hour ahead of standard time and missing rules default
// to the US rules ",M3.2.0,M11.1.0" as in tzcode.
func Parse(s string) (Timezone, error) {
	tz := Timezone{Name: s}

	rest := s
	if len(rest) > 0 && rest[0] == ':' {
		rest = rest[1:]
	}

	var ok bool
	tz.StdAbbr, rest, ok = parseAbbr(rest)
	if !ok {
		return Timezone{}, fmt.Errorf("%q: standard abbreviation: %w", s, ErrInvalid)
	}
	var off int
	off, rest, ok = parseOffset(rest, 24)
	if !ok {
		return Timezone{}, fmt.Errorf("%q: standard offset: %w", s, ErrInvalid)
	}
	tz.StdOffset = -off

	if len(rest) == 0 {
		return tz, nil // no daylight saving time
	}

	tz.DstAbbr, rest, ok = parseAbbr(rest)
	if !ok {
		return Timezone{}, fmt.Errorf("%q: daylight abbreviation: %w", s, ErrInvalid)
	}
	if len(rest) == 0 || rest[0] == ',' {
		tz.DstOffset = tz.StdOffset + 3600
	} else {
		off, rest, ok = parseOffset(rest, 24)
		if !ok {
			return Timezone{}, fmt.Errorf("%q: daylight offset: %w", s, ErrInvalid)
		}
		tz.DstOffset = -off
	}

	if len(rest) == 0 {
		// Default DST rules per tzcode.
		rest = ",M3.2.0,M11.1.0"
	}
	if rest[0] != ',' && rest[0] != ';' {
		return Timezone{}, fmt.Errorf("%q: expected rules: %w", s, ErrInvalid)
	}

	var start, end Rule
	start, rest, ok = parseRule(rest[1:])
	if !ok || len(rest) == 0 || rest[0] != ',' {
		return Timezone{}, fmt.Errorf("%q: start rule: %w", s, ErrInvalid)
	}
	end, rest, ok = parseRule(rest[1:])
	if !ok || len(rest) != 0 {
		return Timezone{}, fmt.Errorf("%q: end rule: %w", s, ErrInvalid)
	}
	tz.DstStart, tz.DstEnd = &start, &end

	return tz, nil
}

// parseAbbr consumes a zone abbreviation: three or more letters, or an
// arbitrary word of alphanumerics, '+' and '-' in angle brackets.
func parseAbbr(s string) (abbr, rest string, ok bool) {
	if len(s) == 0 {
		return "", "", false
	}
	if s[0] == '<' {
		for i := 1; i < len(s); i++ {
			if s[i] == '>' {
				return s[1:i], s[i+1:], true
			}
		}
		return "", "", false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			continue
		}
		if i < 3 {
			return "", "", false
		}
		return s[:i], s[i:], true
	}
	if len(s) < 3 {
		return "", "", false
	}
	return s, "", true
}

// parseOffset consumes [+|-]hh[:mm[:ss]] and returns it in seconds with
// the sign as written.
func parseOffset(s string, maxHour int) (offset int, rest string, ok bool) {
	if len(s) == 0 {
		return 0, "", false
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		s = s[1:]
		neg = true
	}

	var hours int
	hours, s, ok = parseNum(s, 0, maxHour)
	if !ok {
		return 0, "", false
	}
	offset = hours * 3600

	for _, scale := range []int{60, 1} {
		if len(s) == 0 || s[0] != ':' {
			break
		}
		var n int
		n, s, ok = parseNum(s[1:], 0, 59)
		if !ok {
			return 0, "", false
		}
		offset += n * scale
	}

	if neg {
		offset = -offset
	}
	return offset, s, true
}

// parseRule consumes one transition rule, including the optional "/time"
// suffix which defaults to 02:00 local.
func parseRule(s string) (Rule, string, bool) {
	if len(s) == 0 {
		return Rule{}, "", false
	}
	var (
		r  Rule
		ok bool
	)
	switch {
	case s[0] == 'J':
		r.Kind = Julian
		r.Day, s, ok = parseNum(s[1:], 1, 365)
		if !ok {
			return Rule{}, "", false
		}
	case s[0] == 'M':
		r.Kind = MonthWeekDay
		var mon, week, dow int
		mon, s, ok = parseNum(s[1:], 1, 12)
		if !ok || len(s) == 0 || s[0] != '.' {
			return Rule{}, "", false
		}
		week, s, ok = parseNum(s[1:], 1, 5)
		if !ok || len(s) == 0 || s[0] != '.' {
			return Rule{}, "", false
		}
		dow, s, ok = parseNum(s[1:], 0, 6)
		if !ok {
			return Rule{}, "", false
		}
		r.Month, r.Week, r.Weekday = time.Month(mon), week, time.Weekday(dow)
	default:
		r.Kind = JulianLeap
		r.Day, s, ok = parseNum(s, 0, 365)
		if !ok {
			return Rule{}, "", false
		}
	}

	if len(s) == 0 || s[0] != '/' {
		r.Time = 2 * 3600 // 2am is the default
		return r, s, true
	}
	// tzdata permits transition times up to a week out, POSIX does not.
	t, s, ok := parseOffset(s[1:], 24*7-1)
	if !ok {
		return Rule{}, "", false
	}
	r.Time = t
	return r, s, true
}

// parseNum consumes a decimal between min and max.
func parseNum(s string, min, max int) (num int, rest string, ok bool) {
	if len(s) == 0 {
		return 0, "", false
	}
	for i, r := range s {
		if r < '0' || r > '9' {
			if i == 0 || num < min {
				return 0, "", false
			}
			return num, s[i:], true
		}
		num = num*10 + int(r) - '0'
		if num > max {
			return 0, "", false
		}
	}
	if num < min {
		return 0, "", false
	}
	return num, "", true
}

// daysBefore365[m-1] is the day count before month m in a 365-day year.
var daysBefore365 = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Evaluate resolves the rule against a year, producing a concrete civil
// transition datetime.
func (r Rule) Evaluate(year int) civil.DateTime {
	var date civil.DateTime
	switch r.Kind {
	case Julian:
		// Day of a 365-day calendar: February 29 never counts, even
		// in leap years.
		m := 11
		for m > 0 && daysBefore365[m] >= r.Day {
			m--
		}
		date = civil.Date(year, time.Month(m+1), r.Day-daysBefore365[m], 0, 0, 0)
	case JulianLeap:
		// Zero-based day of the actual calendar.
		day := r.Day
		m := time.January
		for day >= civil.DaysInMonth(year, m) {
			day -= civil.DaysInMonth(year, m)
			m++
		}
		date = civil.Date(year, m, day+1, 0, 0, 0)
	case MonthWeekDay:
		first := civil.Date(year, r.Month, 1, 0, 0, 0).Weekday()
		day := 1 + int((r.Weekday-first+7)%7)
		day += (r.Week - 1) * 7
		if day > civil.DaysInMonth(year, r.Month) {
			// A literal occurrence this late does not exist; the
			// previous one is the last in the month.
			day -= 7
		}
		date = civil.Date(year, r.Month, day, 0, 0, 0)
	default:
		panic(fmt.Errorf("invalid RuleKind: %d", r.Kind))
	}
	return date.AddSeconds(int64(r.Time))
}

// IsDST reports whether the civil instant falls in the timezone's DST
// interval for its year. The interval is half-open: true at exactly the
// start transition, false at exactly the end. Zones south of the equator
// have start after end, with DST wrapping over the year boundary.
func (t Timezone) IsDST(at civil.DateTime) bool {
	if !t.HasDST() {
		return false
	}
	start := t.DstStart.Evaluate(at.Year)
	end := t.DstEnd.Evaluate(at.Year)
	if start.Before(end) {
		return start.Compare(at) <= 0 && at.Before(end)
	}
	return start.Compare(at) <= 0 || at.Before(end)
}

// Period produces the period in force at the reference civil datetime.
// The baseline offset is always the standard offset; during DST the
// difference to the DST offset is carried as the additional offset.
func (t Timezone) Period(at civil.DateTime) period.Period {
	p := period.Period{
		FullName:     t.Name,
		Abbreviation: t.StdAbbr,
		OffsetUTC:    t.StdOffset,
		ValidFrom:    period.Min(),
		ValidUntil:   period.Max(),
	}
	if t.IsDST(at) {
		p.Abbreviation = t.DstAbbr
		p.OffsetSTD = t.DstOffset - t.StdOffset
	}
	return p
}
