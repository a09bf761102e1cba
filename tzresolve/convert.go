package tzresolve

import (
	"errors"
	"fmt"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/period"
	"github.com/ngrash/go-tzperiod/tzdb"
)

// DateTime couples a civil clock reading with the period in force, which
// pins it to an absolute instant.
type DateTime struct {
	Civil  civil.DateTime
	Period period.Period
}

// Unix returns the absolute instant in Unix seconds.
func (d DateTime) Unix() int64 {
	return d.Civil.Unix() - int64(d.Period.TotalOffset())
}

func (d DateTime) String() string {
	return fmt.Sprintf("%s %s", d.Civil, d.Period.Abbreviation)
}

// AmbiguousInstant is a civil reading paired with both of its candidate
// resolutions. For a fold both candidates share the civil fields and
// differ in offset; for a gap they are the readings interpreted under
// the period before and after the skipping transition.
type AmbiguousInstant struct {
	Before DateTime
	After  DateTime
	Kind   period.AmbiguityKind
}

func (a AmbiguousInstant) String() string {
	return fmt.Sprintf("%s: %s or %s", a.Kind, a.Before, a.After)
}

// At constructs a zoned datetime from civil fields in a zone. A reading
// inside a gap or a fold yields an AmbiguousInstant with both candidate
// resolutions instead of a DateTime; the caller picks Before or After
// explicitly.
func (r *Resolver) At(zone string, at civil.DateTime) (DateTime, *AmbiguousInstant, error) {
	p, fold, err := r.Resolve(zone, at, tzdb.ModeWall)
	if err != nil {
		var gap *GapError
		if !errors.As(err, &gap) {
			return DateTime{}, nil, err
		}
		before, after, gerr := r.gapEdges(zone, at)
		if gerr != nil {
			return DateTime{}, nil, gerr
		}
		return DateTime{}, &AmbiguousInstant{
			Before: DateTime{Civil: at, Period: before},
			After:  DateTime{Civil: at, Period: after},
			Kind:   period.KindGap,
		}, nil
	}
	if fold != nil {
		return DateTime{}, &AmbiguousInstant{
			Before: DateTime{Civil: at, Period: fold.Before},
			After:  DateTime{Civil: at, Period: fold.After},
			Kind:   period.KindFold,
		}, nil
	}
	return DateTime{Civil: at, Period: p}, nil, nil
}

// gapEdges finds the periods on both sides of the transition that
// skipped the reading. Interpreting the reading under either period's
// offset lands inside the other period, so two UTC queries starting from
// the reading taken as a UTC instant converge on the pair.
func (r *Resolver) gapEdges(zone string, at civil.DateTime) (before, after period.Period, err error) {
	p0, err := r.ResolveUTC(zone, at)
	if err != nil {
		return period.Period{}, period.Period{}, err
	}
	p1, err := r.ResolveUTC(zone, at.AddSeconds(-int64(p0.TotalOffset())))
	if err != nil {
		return period.Period{}, period.Period{}, err
	}
	p2, err := r.ResolveUTC(zone, at.AddSeconds(-int64(p1.TotalOffset())))
	if err != nil {
		return period.Period{}, period.Period{}, err
	}
	if p1.TotalOffset() == p2.TotalOffset() {
		return period.Period{}, period.Period{}, fmt.Errorf("%s at %s: gap edges coincide: %w", zone, at, ErrCouldNotResolve)
	}
	if boundBefore(p1.ValidFrom, p2.ValidFrom) {
		return p1, p2, nil
	}
	return p2, p1, nil
}

// boundBefore orders two lower bounds: the past sentinel first, then by
// civil datetime.
func boundBefore(a, b period.Bound) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Kind != period.BoundAt {
		return false
	}
	return a.At.Before(b.At)
}

// FromUnix constructs the zoned datetime for an absolute instant in a
// zone. Absolute instants are never ambiguous.
func (r *Resolver) FromUnix(zone string, sec int64) (DateTime, error) {
	p, err := r.ResolveUTC(zone, civil.FromUnix(sec))
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{Civil: civil.FromUnix(sec + int64(p.TotalOffset())), Period: p}, nil
}

// maxConvertSteps caps the fixed-point iteration in Convert. A single
// civil shift cannot cross more than one transition boundary because
// offsets are bounded under a day, so real-world inputs settle within
// two steps; hitting the cap indicates inconsistent zone data.
const maxConvertSteps = 4

// Convert re-expresses a datetime in another zone while preserving the
// absolute instant. A destination wall clock inside a fold is propagated
// as an AmbiguousInstant rather than silently picking a side.
func (r *Resolver) Convert(dt DateTime, target string) (DateTime, *AmbiguousInstant, error) {
	if dt.Period.FullName == target {
		return dt, nil, nil
	}

	guess, err := r.ResolveUTC(target, civil.FromUnix(dt.Unix()))
	if err != nil {
		return DateTime{}, nil, err
	}

	src := dt.Period.TotalOffset()
	for i := 0; i < maxConvertSteps; i++ {
		candidate := dt.Civil.AddSeconds(int64(guess.TotalOffset() - src))
		p, fold, err := r.Resolve(target, candidate, tzdb.ModeWall)
		if err != nil {
			return DateTime{}, nil, fmt.Errorf("converting %s to %s: %w", dt, target, err)
		}
		if fold != nil {
			return DateTime{}, &AmbiguousInstant{
				Before: DateTime{Civil: candidate, Period: fold.Before},
				After:  DateTime{Civil: candidate, Period: fold.After},
				Kind:   period.KindFold,
			}, nil
		}
		if p.TotalOffset() == guess.TotalOffset() {
			return DateTime{Civil: candidate, Period: p}, nil, nil
		}
		// The shift crossed a transition boundary; redo it with the
		// period that actually covers the candidate.
		guess = p
	}
	return DateTime{}, nil, fmt.Errorf("converting %s to %s: shift did not settle after %d steps: %w", dt, target, maxConvertSteps, ErrCouldNotResolve)
}

// ConvertFixed re-expresses a datetime under an explicit caller-supplied
// period descriptor. The descriptor is passed as a parameter, never
// through ambient state, and since it has no transitions the shift needs
// no iteration.
func (r *Resolver) ConvertFixed(dt DateTime, target period.Period) (DateTime, error) {
	if err := target.Validate(); err != nil {
		return DateTime{}, err
	}
	diff := int64(target.TotalOffset() - dt.Period.TotalOffset())
	return DateTime{Civil: dt.Civil.AddSeconds(diff), Period: target}, nil
}
