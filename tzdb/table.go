package tzdb

import (
	"fmt"
	"sort"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/tzposix"
)

// Zone is one local time type of a zone's transition table.
type Zone struct {
	Abbr      string
	UTCOffset int // baseline seconds east of UTC
	STDOffset int // additional DST seconds, 0 for standard types
}

// Total is the number of seconds east of UTC the wall clock runs at.
func (z Zone) Total() int { return z.UTCOffset + z.STDOffset }

// Transition activates the zone at Zones[Index] at an absolute instant.
type Transition struct {
	When  int64 // Unix seconds, Alpha for the initial pseudo-transition
	Index int
}

// ZoneTable is the transition history of a single zone: local time types
// plus the sorted instants at which they take effect. It is immutable
// after construction.
type ZoneTable struct {
	Name  string
	Zones []Zone
	Tx    []Transition

	// Extend describes how to handle instants after the last
	// transition, parsed from a TZif footer. May be nil.
	Extend *tzposix.Timezone
}

// NewZoneTable validates and assembles a transition table. An empty
// transition list gets the single pseudo-transition covering all time.
func NewZoneTable(name string, zones []Zone, tx []Transition) (*ZoneTable, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("zone %s: no local time types", name)
	}
	if len(tx) == 0 {
		tx = []Transition{{When: Alpha, Index: 0}}
	}
	for i, t := range tx {
		if t.Index < 0 || t.Index >= len(zones) {
			return nil, fmt.Errorf("zone %s: transition %d references type %d of %d", name, i, t.Index, len(zones))
		}
		if i > 0 && tx[i-1].When >= t.When {
			return nil, fmt.Errorf("zone %s: transitions not strictly increasing at %d", name, i)
		}
	}
	return &ZoneTable{Name: name, Zones: zones, Tx: tx}, nil
}

// lookup returns the index into Tx of the span containing the absolute
// instant, together with the span's bounds.
// Binary search for the entry with the largest time <= sec.
func (t *ZoneTable) lookup(sec int64) (i int, start, end int64) {
	tx := t.Tx
	end = Omega
	lo, hi := 0, len(tx)
	for hi-lo > 1 {
		m := int(uint(lo+hi) >> 1)
		if sec < tx[m].When {
			end = tx[m].When
			hi = m
		} else {
			lo = m
		}
	}
	return lo, tx[lo].When, end
}

// span returns the absolute bounds of the i-th transition span.
func (t *ZoneTable) span(i int) (start, end int64) {
	start = t.Tx[i].When
	end = Omega
	if i+1 < len(t.Tx) {
		end = t.Tx[i+1].When
	}
	return start, end
}

// record builds the Record for the i-th transition span.
func (t *ZoneTable) record(i int) Record {
	z := t.Zones[t.Tx[i].Index]
	start, end := t.span(i)
	return Record{
		UTCOffset: z.UTCOffset,
		STDOffset: z.STDOffset,
		Abbr:      z.Abbr,
		From:      start,
		Until:     end,
	}
}

// utcRecords resolves an absolute instant to its single period. Past the
// last transition the footer rules take over when present.
func (t *ZoneTable) utcRecords(sec int64) []Record {
	i, start, _ := t.lookup(sec)
	if i == len(t.Tx)-1 && t.Extend != nil {
		if !t.Extend.HasDST() {
			return []Record{t.footerRecord(false, start, Omega)}
		}
		year := civil.FromUnix(sec + int64(t.Extend.StdOffset)).Year
		for _, rec := range t.footerRecords(year) {
			if rec.From <= sec && sec < rec.Until {
				return []Record{rec}
			}
		}
	}
	return []Record{t.record(i)}
}

// footerRecords synthesizes the records the footer rules imply around
// the given year, clamped at the last explicit transition. Rule times
// are written on the wall clock in effect before each transition: the
// start rule under the standard offset, the end rule under the DST
// offset. The adjacent years are included so that the spans bracketing
// any instant of the requested year carry their real bounds.
func (t *ZoneTable) footerRecords(year int) []Record {
	e := t.Extend
	last := t.Tx[len(t.Tx)-1].When

	type boundary struct {
		when int64
		dst  bool
	}
	var bs []boundary
	for y := year - 1; y <= year+1; y++ {
		bs = append(bs,
			boundary{e.DstStart.Evaluate(y).Unix() - int64(e.StdOffset), true},
			boundary{e.DstEnd.Evaluate(y).Unix() - int64(e.DstOffset), false},
		)
	}
	sort.Slice(bs, func(i, j int) bool { return bs[i].when < bs[j].when })

	var recs []Record
	if bs[0].when > last {
		recs = append(recs, t.footerRecord(!bs[0].dst, last, bs[0].when))
	}
	for i, b := range bs {
		until := Omega
		if i+1 < len(bs) {
			until = bs[i+1].when
		}
		if until <= last {
			continue
		}
		from := b.when
		if from < last {
			from = last
		}
		recs = append(recs, t.footerRecord(b.dst, from, until))
	}
	return recs
}

// footerRecord builds the record for one footer-governed span.
func (t *ZoneTable) footerRecord(dst bool, from, until int64) Record {
	e := t.Extend
	if dst {
		return Record{
			UTCOffset: e.StdOffset,
			STDOffset: e.DstOffset - e.StdOffset,
			Abbr:      e.DstAbbr,
			From:      from,
			Until:     until,
		}
	}
	return Record{UTCOffset: e.StdOffset, Abbr: e.StdAbbr, From: from, Until: until}
}

// wallWindow bounds how many spans around the binary search hit are
// examined for a wall-clock match. Offsets are under a day, so the true
// span is never further away than that.
const wallWindow = 3

// wallRecords resolves a wall clock reading, given as seconds on the
// civil line, to the periods whose local interval contains it: none for
// a gap, one normally, two for a fold.
func (t *ZoneTable) wallRecords(wall int64) []Record {
	i, _, _ := t.lookup(wall)

	lo := i - wallWindow
	if lo < 0 {
		lo = 0
	}
	last := len(t.Tx) - 1
	hi := i + wallWindow
	if hi > last {
		hi = last
	}

	footer := t.Extend != nil && t.Extend.HasDST()

	var recs []Record
	for j := lo; j <= hi; j++ {
		if j == last && footer {
			// The final span is governed by the footer rules below.
			continue
		}
		start, end := t.span(j)
		off := int64(t.Zones[t.Tx[j].Index].Total())
		localStart, localEnd := saturatingAdd(start, off), saturatingAdd(end, off)
		if localStart <= wall && wall < localEnd {
			recs = append(recs, t.record(j))
		}
	}
	if footer && hi == last {
		for _, rec := range t.footerRecords(civil.FromUnix(wall).Year) {
			off := int64(rec.Total())
			localStart, localEnd := saturatingAdd(rec.From, off), saturatingAdd(rec.Until, off)
			if localStart <= wall && wall < localEnd {
				recs = append(recs, rec)
			}
		}
	}
	return recs
}

func saturatingAdd(sec, off int64) int64 {
	if sec == Alpha || sec == Omega {
		return sec
	}
	return sec + off
}

// Memory is a Database over a fixed set of ZoneTables, handy for tests
// and for callers that assemble transition data themselves.
type Memory struct {
	tables map[string]*ZoneTable
}

// NewMemory builds a Memory database from the given tables.
func NewMemory(tables ...*ZoneTable) *Memory {
	m := &Memory{tables: make(map[string]*ZoneTable, len(tables))}
	for _, t := range tables {
		m.tables[t.Name] = t
	}
	return m
}

// ZoneExists implements Database.
func (m *Memory) ZoneExists(name string) bool {
	_, ok := m.tables[name]
	return ok
}

// Periods implements Database.
func (m *Memory) Periods(name string, at civil.DateTime, mode Mode) ([]Record, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownZone)
	}
	return queryTable(t, at, mode)
}

// ZoneNames implements Database.
func (m *Memory) ZoneNames() []string {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func queryTable(t *ZoneTable, at civil.DateTime, mode Mode) ([]Record, error) {
	switch mode {
	case ModeUTC:
		return t.utcRecords(at.Unix()), nil
	case ModeWall:
		return t.wallRecords(at.Unix()), nil
	default:
		return nil, fmt.Errorf("invalid query mode: %d", mode)
	}
}
