// Package tzdb defines the zone database boundary consumed by the period
// resolver, plus implementations backed by in-memory transition tables
// and by TZif files from an OS zoneinfo directory.
package tzdb

import (
	"errors"
	"math"

	"github.com/ngrash/go-tzperiod/civil"
)

// ErrUnknownZone is returned by Periods for names the database does not
// contain.
var ErrUnknownZone = errors.New("tzdb: unknown zone")

// Alpha and Omega are the beginning and end of time for zone transitions.
const (
	Alpha int64 = math.MinInt64
	Omega int64 = math.MaxInt64
)

// Mode selects how a query instant is interpreted.
type Mode int

func (m Mode) String() string {
	switch m {
	case ModeUTC:
		return "UTC"
	case ModeWall:
		return "Wall"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// ModeUTC reads the instant as an absolute point in time given by
	// its UTC clock reading. A UTC instant matches exactly one period.
	ModeUTC Mode = iota
	// ModeWall reads the instant as a local wall clock reading, which
	// may match zero periods (a gap) or two (a fold).
	ModeWall
)

// Record describes one candidate period returned by a Database query.
type Record struct {
	// UTCOffset is the baseline offset in seconds east of UTC.
	UTCOffset int
	// STDOffset is the additional DST offset, 0 outside DST.
	STDOffset int
	// Abbr is the designation in force, e.g. "CST".
	Abbr string
	// From and Until bound the period in absolute Unix seconds,
	// Alpha and Omega when unbounded.
	From, Until int64
}

// Total is the number of seconds east of UTC the wall clock runs at.
func (r Record) Total() int { return r.UTCOffset + r.STDOffset }

// Database is the set of transition periods for a collection of zones.
// Implementations are immutable after construction and therefore safe
// for unsynchronized concurrent reads.
type Database interface {
	// ZoneExists reports whether the database knows the zone.
	ZoneExists(name string) bool

	// Periods returns the candidate periods overlapping the instant
	// under the given interpretation: exactly one for ModeUTC, zero,
	// one or two for ModeWall. Unknown names yield ErrUnknownZone.
	Periods(name string, at civil.DateTime, mode Mode) ([]Record, error)

	// ZoneNames lists the canonical zone names, sorted.
	ZoneNames() []string
}
