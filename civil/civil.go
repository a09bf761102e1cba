// Package civil provides a naive calendar datetime: the reading of a wall
// clock with no timezone attached. It converts between civil fields and a
// seconds count on the proleptic Gregorian calendar without depending on
// time.Location, which would be circular for a package that exists to
// compute timezone data in the first place.
package civil

import (
	"errors"
	"fmt"
	"time"
)

// DateTime is a civil date and time of day. The zero value is the zero
// instant of year 0 and is generally not meaningful; construct values
// with Date.
type DateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Date returns the DateTime with the given fields.
func Date(year int, month time.Month, day, hour, minute, second int) DateTime {
	return DateTime{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", d.Year, int(d.Month), d.Day, d.Hour, d.Minute, d.Second)
}

// Validate reports whether the fields form a real calendar datetime.
func (d DateTime) Validate() error {
	var errs error
	if d.Month < time.January || d.Month > time.December {
		errs = errors.Join(errs, fmt.Errorf("month out of range: %d", int(d.Month)))
	} else if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		errs = errors.Join(errs, fmt.Errorf("day out of range: %d", d.Day))
	}
	if d.Hour < 0 || d.Hour > 23 {
		errs = errors.Join(errs, fmt.Errorf("hour out of range: %d", d.Hour))
	}
	if d.Minute < 0 || d.Minute > 59 {
		errs = errors.Join(errs, fmt.Errorf("minute out of range: %d", d.Minute))
	}
	if d.Second < 0 || d.Second > 59 {
		errs = errors.Join(errs, fmt.Errorf("second out of range: %d", d.Second))
	}
	return errs
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// daysBeforeMonth[m-1] is the number of days in a non-leap year before month m.
var daysBeforeMonth = [12]int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Unix returns the number of seconds between the Unix epoch and d, with d
// read as a UTC clock. Leap seconds are ignored, leap years are not.
func (d DateTime) Unix() int64 {
	days := daysFromCivil(d.Year, int(d.Month), d.Day)
	return days*secondsPerDay + int64(d.Hour)*secondsPerHour + int64(d.Minute)*secondsPerMinute + int64(d.Second)
}

// FromUnix is the inverse of Unix.
func FromUnix(sec int64) DateTime {
	days := floorDiv(sec, secondsPerDay)
	rem := sec - days*secondsPerDay

	y, m, dd := civilFromDays(days)
	return DateTime{
		Year:   y,
		Month:  time.Month(m),
		Day:    dd,
		Hour:   int(rem / secondsPerHour),
		Minute: int(rem % secondsPerHour / secondsPerMinute),
		Second: int(rem % secondsPerMinute),
	}
}

// AddSeconds returns d shifted by the given number of seconds, carrying
// over day, month and year boundaries.
func (d DateTime) AddSeconds(sec int64) DateTime {
	return FromUnix(d.Unix() + sec)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to
// or after o.
func (d DateTime) Compare(o DateTime) int {
	a, b := d.Unix(), o.Unix()
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	default:
		return 0
	}
}

// Before reports whether d is strictly earlier than o.
func (d DateTime) Before(o DateTime) bool { return d.Compare(o) < 0 }

// Weekday returns the day of the week of d's date.
// It uses Zeller's congruence adjusted for the Gregorian calendar.
func (d DateTime) Weekday() time.Weekday {
	day, month, year := d.Day, int(d.Month), d.Year
	if month < 3 {
		month += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + ((13 * (month + 1)) / 5) + k + (k / 4) + (j / 4) + (5 * j)) % 7
	// Zeller counts Saturday as 0; shift to Sunday=0.
	return time.Weekday(((h + 6) % 7))
}

// IsLeap determines if the year is a leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in a given month for a specific year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// daysFromCivil returns the number of days between the Unix epoch
// and the given date. Negative before 1970-01-01.
func daysFromCivil(year, month, day int) int64 {
	d := int64(day-1) + daysBeforeMonth[month-1]
	if month > 2 && IsLeap(year) {
		d++
	}
	// Days from the epoch to the start of the year, counting leap days
	// over 4, 100 and 400 year cycles.
	y := int64(year) - 1970
	d += y * 365
	d += floorDiv(int64(year)-1969, 4) - floorDiv(int64(year)-1901, 100) + floorDiv(int64(year)-1601, 400)
	return d
}

// civilFromDays is the inverse of daysFromCivil, using era arithmetic
// over the 146097-day Gregorian cycle.
func civilFromDays(days int64) (year, month, day int) {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}
