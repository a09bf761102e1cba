// Package tzresolve resolves, for a zone identifier and a point in time,
// the period in effect, reporting the two civil-time pathologies
// explicitly: instants that never occurred (gaps) and instants that
// occurred twice (folds).
package tzresolve

import (
	"errors"
	"fmt"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/period"
	"github.com/ngrash/go-tzperiod/tzdb"
	"github.com/ngrash/go-tzperiod/tzname"
	"github.com/ngrash/go-tzperiod/tzposix"
)

var (
	// ErrCouldNotResolve is returned when a database query yields no
	// usable result for a non-gap reason, e.g. corrupted or
	// incomplete data.
	ErrCouldNotResolve = errors.New("tzresolve: could not resolve timezone")
	// ErrInvalidDatetime is returned for malformed civil fields.
	ErrInvalidDatetime = errors.New("tzresolve: invalid datetime")
)

// GapError reports a wall-clock instant that never occurred in a zone
// because a forward transition skipped over it. It is an error by the
// resolution policy of this package: gaps are never silently shifted.
type GapError struct {
	Zone string
	At   civil.DateTime
}

func (e *GapError) Error() string {
	return fmt.Sprintf("tzresolve: %s does not exist in %s: skipped by clock transition", e.At, e.Zone)
}

// Resolver answers period queries against a zone database, falling back
// to POSIX rule evaluation for zones the database does not cover. All
// methods are pure and safe for concurrent use.
type Resolver struct {
	db tzdb.Database
}

// New returns a Resolver over the given database, which may be nil to
// resolve only fixed-offset pseudo-zones and POSIX timezones.
func New(db tzdb.Database) *Resolver {
	return &Resolver{db: db}
}

// Provider is the period-provider boundary a host calendar library
// consumes: one call per clock interpretation, no ambient state.
type Provider interface {
	ResolveUTC(zone string, at civil.DateTime) (period.Period, error)
	ResolveWall(zone string, at civil.DateTime) (period.Period, *period.Fold, error)
}

var _ Provider = (*Resolver)(nil)

// ResolveUTC resolves the zone at an instant given by its UTC clock
// reading. UTC never repeats, so the result is always a single period.
func (r *Resolver) ResolveUTC(zone string, at civil.DateTime) (period.Period, error) {
	p, _, err := r.Resolve(zone, at, tzdb.ModeUTC)
	return p, err
}

// ResolveWall resolves the zone at a local wall clock reading. Exactly
// one of the three outcomes holds: a single period, a fold with the
// period before and after the backward transition, or an error
// (a GapError when the reading was skipped by a forward transition).
func (r *Resolver) ResolveWall(zone string, at civil.DateTime) (period.Period, *period.Fold, error) {
	return r.Resolve(zone, at, tzdb.ModeWall)
}

// Resolve resolves a canonical zone name at a point in time under the
// given clock interpretation. A Fold is not an error: it is a valid
// third outcome that the caller must disambiguate or propagate.
func (r *Resolver) Resolve(zone string, at civil.DateTime, mode tzdb.Mode) (period.Period, *period.Fold, error) {
	if err := at.Validate(); err != nil {
		return period.Period{}, nil, fmt.Errorf("%s: %w", err, ErrInvalidDatetime)
	}

	// Fixed-offset pseudo-zones are synthesized directly. They have a
	// single unbounded period and are never ambiguous.
	if p, ok := FixedZone(zone); ok {
		return p, nil, nil
	}

	if r.db == nil || !r.db.ZoneExists(zone) {
		if ptz, err := tzposix.Parse(zone); err == nil {
			return checked(ptz.Period(at)), nil, nil
		}
		return period.Period{}, nil, fmt.Errorf("%q: %w", zone, tzname.ErrInvalidTimezone)
	}

	recs, err := r.db.Periods(zone, at, mode)
	if err != nil {
		return period.Period{}, nil, fmt.Errorf("%s at %s: %v: %w", zone, at, err, ErrCouldNotResolve)
	}

	switch len(recs) {
	case 1:
		return checked(recordPeriod(zone, recs[0])), nil, nil

	case 0:
		if mode == tzdb.ModeWall {
			return period.Period{}, nil, &GapError{Zone: zone, At: at}
		}
		return period.Period{}, nil, fmt.Errorf("%s at %s UTC: empty result: %w", zone, at, ErrCouldNotResolve)

	case 2:
		if mode != tzdb.ModeWall {
			return period.Period{}, nil, fmt.Errorf("%s at %s UTC: ambiguous result: %w", zone, at, ErrCouldNotResolve)
		}
		before := checked(recordPeriod(zone, recs[0]))
		after := checked(recordPeriod(zone, recs[1]))
		if recs[1].Until == recs[0].From {
			// A database implementation does not have to order
			// the two candidates; the period ending at the
			// transition boundary comes first.
			before, after = after, before
		}
		fold := period.Fold{Before: before, After: after}
		if fold.Validate() != nil {
			// Equal total offsets mean the wall clock never
			// actually repeated, e.g. an abbreviation-only
			// change recorded as two overlapping records. The
			// UTC interpretation of the same reading picks the
			// record that is real for this exact instant.
			urecs, uerr := r.db.Periods(zone, at, tzdb.ModeUTC)
			if uerr == nil && len(urecs) == 1 {
				return checked(recordPeriod(zone, urecs[0])), nil, nil
			}
			return period.Period{}, nil, fmt.Errorf("%s at %s: degenerate fold: %w", zone, at, ErrCouldNotResolve)
		}
		return period.Period{}, &fold, nil

	default:
		return period.Period{}, nil, fmt.Errorf("%s at %s: %d overlapping periods: %w", zone, at, len(recs), ErrCouldNotResolve)
	}
}

// checked enforces the period invariants. A violation here means the
// database handed out impossible data; abort loudly per policy.
func checked(p period.Period) period.Period {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

// recordPeriod converts a database record into a Period. The record's
// absolute bounds are re-expressed on the period's own wall clock.
func recordPeriod(zone string, rec tzdb.Record) period.Period {
	p := period.Period{
		FullName:     zone,
		Abbreviation: rec.Abbr,
		OffsetUTC:    rec.UTCOffset,
		OffsetSTD:    rec.STDOffset,
		ValidFrom:    period.Min(),
		ValidUntil:   period.Max(),
	}
	if rec.From != tzdb.Alpha {
		p.ValidFrom = period.At(civil.FromUnix(rec.From + int64(rec.Total())))
	}
	if rec.Until != tzdb.Omega {
		p.ValidUntil = period.At(civil.FromUnix(rec.Until + int64(rec.Total())))
	}
	return p
}

// FixedZone recognizes the canonical fixed-offset pseudo-zone names and
// synthesizes their single unbounded period. Name recognition lives in
// tzname.FixedOffset so that Canonicalize accepts the same names.
func FixedZone(name string) (period.Period, bool) {
	sec, ok := tzname.FixedOffset(name)
	if !ok {
		return period.Period{}, false
	}

	return period.Period{
		FullName:     name,
		Abbreviation: fixedAbbr(sec),
		OffsetUTC:    sec,
		ValidFrom:    period.Min(),
		ValidUntil:   period.Max(),
	}, true
}

// fixedAbbr renders the ISO-style abbreviation for a fixed offset, e.g.
// "+02", "-05", "+09:30".
func fixedAbbr(sec int) string {
	if sec == 0 {
		return "UTC"
	}
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	switch {
	case sec%3600 == 0:
		return fmt.Sprintf("%s%02d", sign, sec/3600)
	case sec%60 == 0:
		return fmt.Sprintf("%s%02d:%02d", sign, sec/3600, sec%3600/60)
	default:
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, sec/3600, sec%3600/60, sec%60)
	}
}
