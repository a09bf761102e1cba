// Package period defines the data model for timezone periods: maximal
// intervals during which a zone's UTC offset and DST offset are constant,
// and the two civil-time pathologies that transitions between periods
// produce, gaps and folds.
package period

import (
	"fmt"
	"time"

	"github.com/ngrash/go-tzperiod/civil"
)

// BoundKind represents the kind of a period boundary.
type BoundKind int

func (k BoundKind) String() string {
	switch k {
	case BoundMin:
		return "<indefinite past>"
	case BoundAt:
		return "At"
	case BoundMax:
		return "<indefinite future>"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// BoundMin means the boundary lies in the indefinite past.
	BoundMin BoundKind = iota
	// BoundAt means the boundary is a concrete civil datetime.
	BoundAt
	// BoundMax means the boundary lies in the indefinite future.
	BoundMax
)

// Bound is one end of a period's validity interval, expressed on the
// period's own wall clock.
type Bound struct {
	Kind    BoundKind
	Weekday time.Weekday   // defined if Kind is BoundAt
	At      civil.DateTime // defined if Kind is BoundAt
}

// Min returns the unbounded past sentinel.
func Min() Bound { return Bound{Kind: BoundMin} }

// Max returns the unbounded future sentinel.
func Max() Bound { return Bound{Kind: BoundMax} }

// At returns a bound at the given civil datetime.
func At(dt civil.DateTime) Bound {
	return Bound{Kind: BoundAt, Weekday: dt.Weekday(), At: dt}
}

func (b Bound) String() string {
	if b.Kind != BoundAt {
		return b.Kind.String()
	}
	return fmt.Sprintf("%s %s", b.Weekday, b.At)
}

// MaxOffset bounds the magnitude of both offset components, exclusive.
const MaxOffset = 86400

// Period is a maximal time interval during which a zone's UTC offset and
// DST offset are constant.
type Period struct {
	// FullName is the canonical zone name, e.g. "America/Chicago".
	FullName string
	// Abbreviation is the short designation in force, e.g. "CDT".
	Abbreviation string
	// OffsetUTC is the baseline offset from UTC in seconds east.
	OffsetUTC int
	// OffsetSTD is the additional DST offset applied on top of
	// OffsetUTC during this period, 0 when not in DST.
	OffsetSTD int

	ValidFrom  Bound
	ValidUntil Bound
}

// TotalOffset is the number of seconds east of UTC the zone's wall clock
// runs at during this period.
func (p Period) TotalOffset() int { return p.OffsetUTC + p.OffsetSTD }

// IsDST reports whether the period applies a daylight saving correction.
func (p Period) IsDST() bool { return p.OffsetSTD != 0 }

func (p Period) String() string {
	return fmt.Sprintf("%s (%s, UTC%+ds) from %s until %s", p.FullName, p.Abbreviation, p.TotalOffset(), p.ValidFrom, p.ValidUntil)
}

// Validate checks the period's structural invariants: both offset
// components lie in the open interval (-MaxOffset, MaxOffset), the lower
// bound is never the future sentinel and the upper bound is never the
// past sentinel.
func (p Period) Validate() error {
	if p.OffsetUTC <= -MaxOffset || p.OffsetUTC >= MaxOffset {
		return fmt.Errorf("period %s: utc offset out of range: %d", p.FullName, p.OffsetUTC)
	}
	if p.OffsetSTD <= -MaxOffset || p.OffsetSTD >= MaxOffset {
		return fmt.Errorf("period %s: std offset out of range: %d", p.FullName, p.OffsetSTD)
	}
	if p.ValidFrom.Kind == BoundMax {
		return fmt.Errorf("period %s: valid-from bound is the future sentinel", p.FullName)
	}
	if p.ValidUntil.Kind == BoundMin {
		return fmt.Errorf("period %s: valid-until bound is the past sentinel", p.FullName)
	}
	return nil
}

// Fold pairs the two periods matching a civil instant that occurred twice
// due to a backward clock transition. Before is the period in force
// immediately prior to the transition, After the one immediately after.
type Fold struct {
	Before Period
	After  Period
}

// Validate checks the fold invariant: the two periods must disagree on
// the total offset, otherwise the instant was never ambiguous.
func (f Fold) Validate() error {
	if f.Before.TotalOffset() == f.After.TotalOffset() {
		return fmt.Errorf("fold %s: periods share total offset %d", f.Before.FullName, f.Before.TotalOffset())
	}
	return nil
}

// AmbiguityKind tags the two civil-time pathologies.
type AmbiguityKind int

const (
	// KindGap marks a wall-clock instant that never occurred because
	// clocks skipped over it.
	KindGap AmbiguityKind = iota
	// KindFold marks a wall-clock instant that occurred twice because
	// clocks were set back over it.
	KindFold
)

func (k AmbiguityKind) String() string {
	switch k {
	case KindGap:
		return "Gap"
	case KindFold:
		return "Fold"
	default:
		return "<UNDEFINED>"
	}
}
