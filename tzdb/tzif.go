package tzdb

import (
	"encoding/binary"
	"fmt"

	"github.com/ngrash/go-tzperiod/tzposix"
)

// NOTE: All multi-octet integer values in a TZif file are stored in
// network octet order (RFC 8536, section 3).
var order = binary.BigEndian

var magic = [4]byte{'T', 'Z', 'i', 'f'}

// header counts, in file order.
const (
	nIsUT = iota
	nIsStd
	nLeap
	nTime
	nType
	nChar
)

// ParseTZif builds a ZoneTable from the contents of a TZif file as found
// under /usr/share/zoneinfo. For version 2+ files the 64-bit data block
// is used; the footer TZ string, if present and well-formed, becomes the
// table's Extend rules.
func ParseTZif(name string, data []byte) (*ZoneTable, error) {
	r := reader{buf: data}

	version, counts, err := readHeader(&r)
	if err != nil {
		return nil, fmt.Errorf("zone %s: %w", name, err)
	}

	size := 4
	if version > 1 {
		// Skip the 32-bit data block and the second header; the
		// 64-bit block describes a broader range of dates.
		r.skip(counts[nTime]*5 + counts[nType]*6 + counts[nChar] + counts[nLeap]*8 + counts[nIsStd] + counts[nIsUT])
		if _, counts, err = readHeader(&r); err != nil {
			return nil, fmt.Errorf("zone %s: second header: %w", name, err)
		}
		size = 8
	}

	txTimes := make([]int64, counts[nTime])
	for i := range txTimes {
		if size == 8 {
			txTimes[i] = r.int64()
		} else {
			txTimes[i] = int64(r.int32())
		}
	}
	txTypes := r.bytes(counts[nTime])

	type localType struct {
		offset int
		isDST  bool
		abbr   string
	}
	types := make([]localType, counts[nType])
	abbrevIdx := make([]int, counts[nType])
	for i := range types {
		types[i].offset = int(r.int32())
		types[i].isDST = r.byte() != 0
		abbrevIdx[i] = int(r.byte())
	}
	chars := r.bytes(counts[nChar])
	r.skip(counts[nLeap] * (size + 4))
	r.skip(counts[nIsStd])
	r.skip(counts[nIsUT])
	if r.err != nil {
		return nil, fmt.Errorf("zone %s: truncated data block: %w", name, r.err)
	}
	for i := range types {
		if abbrevIdx[i] >= len(chars) {
			return nil, fmt.Errorf("zone %s: abbreviation index out of range", name)
		}
		types[i].abbr = nulTerminated(chars[abbrevIdx[i]:])
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("zone %s: no local time types", name)
	}

	tx := make([]Transition, 0, len(txTimes)+1)
	for i, when := range txTimes {
		if int(txTypes[i]) >= len(types) {
			return nil, fmt.Errorf("zone %s: transition type out of range", name)
		}
		tx = append(tx, Transition{When: when, Index: int(txTypes[i])})
	}

	// The DST add-on is not part of the format; derive it for each DST
	// type from the standard type active right before it switches in.
	zones := make([]Zone, len(types))
	for i, lt := range types {
		zones[i] = Zone{Abbr: lt.abbr, UTCOffset: lt.offset}
		if !lt.isDST {
			continue
		}
		std, found := 0, false
		for k := 1; k < len(tx) && !found; k++ {
			if tx[k].Index == i && !types[tx[k-1].Index].isDST {
				std, found = types[tx[k-1].Index].offset, true
			}
		}
		for j := 0; j < len(types) && !found; j++ {
			if !types[j].isDST {
				std, found = types[j].offset, true
			}
		}
		if !found {
			std = lt.offset - 3600 // permanently-DST zone, assume the usual hour
		}
		zones[i].UTCOffset = std
		zones[i].STDOffset = lt.offset - std
	}

	// Fixed zones like Etc/GMT+5 carry no transitions; cover all time
	// with the first type.
	if len(tx) == 0 {
		tx = []Transition{{When: Alpha, Index: 0}}
	} else if tx[0].When != Alpha {
		// Times before the first transition use the first standard
		// type, per the tzcode reference behavior.
		first := 0
		for i, lt := range types {
			if !lt.isDST {
				first = i
				break
			}
		}
		tx = append([]Transition{{When: Alpha, Index: first}}, tx...)
	}

	table, err := NewZoneTable(name, zones, tx)
	if err != nil {
		return nil, err
	}

	if version > 1 {
		if footer := readFooter(&r); footer != "" {
			if ext, err := tzposix.Parse(footer); err == nil {
				table.Extend = &ext
			}
		}
	}
	return table, nil
}

func readHeader(r *reader) (version int, counts [6]int, err error) {
	var m [4]byte
	copy(m[:], r.bytes(4))
	if r.err != nil || m != magic {
		return 0, counts, fmt.Errorf("not a TZif file")
	}
	switch v := r.byte(); v {
	case 0:
		version = 1
	case '2':
		version = 2
	case '3':
		version = 3
	case '4':
		version = 4
	default:
		return 0, counts, fmt.Errorf("unsupported version octet %#x", v)
	}
	r.skip(15)
	for i := range counts {
		counts[i] = int(r.uint32())
	}
	if r.err != nil {
		return 0, counts, fmt.Errorf("truncated header: %w", r.err)
	}
	return version, counts, nil
}

// readFooter extracts the TZ string between the two NL octets that
// enclose a version 2+ footer.
func readFooter(r *reader) string {
	if r.err != nil || len(r.buf) < 2 || r.buf[0] != '\n' {
		return ""
	}
	for i := 1; i < len(r.buf); i++ {
		if r.buf[i] == '\n' {
			return string(r.buf[1:i])
		}
	}
	return ""
}

func nulTerminated(p []byte) string {
	for i := range p {
		if p[i] == 0 {
			return string(p[:i])
		}
	}
	return string(p)
}

// reader is a cursor over the raw file with a sticky error.
type reader struct {
	buf []byte
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n || n < 0 {
		r.err = fmt.Errorf("unexpected end of data")
		return nil
	}
	p := r.buf[:n]
	r.buf = r.buf[n:]
	return p
}

func (r *reader) skip(n int) { r.bytes(n) }

func (r *reader) byte() byte {
	p := r.bytes(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *reader) uint32() uint32 {
	p := r.bytes(4)
	if p == nil {
		return 0
	}
	return order.Uint32(p)
}

func (r *reader) int32() int32 { return int32(r.uint32()) }

func (r *reader) int64() int64 {
	p := r.bytes(8)
	if p == nil {
		return 0
	}
	return int64(order.Uint64(p))
}
