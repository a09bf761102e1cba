package tzdb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTZifHeader appends a TZif header. Counts are in file order:
// isutcnt, isstdcnt, leapcnt, timecnt, typecnt, charcnt.
func writeTZifHeader(buf *bytes.Buffer, version byte, counts [6]uint32) {
	buf.WriteString("TZif")
	buf.WriteByte(version)
	buf.Write(make([]byte, 15))
	for _, c := range counts {
		binary.Write(buf, binary.BigEndian, c)
	}
}

// tzifV1Fixed is a version 1 file with a single fixed local time type and
// no transitions.
func tzifV1Fixed(abbr string, offset int32) []byte {
	var buf bytes.Buffer
	chars := abbr + "\x00"
	writeTZifHeader(&buf, 0, [6]uint32{0, 0, 0, 0, 1, uint32(len(chars))})
	binary.Write(&buf, binary.BigEndian, offset)
	buf.WriteByte(0) // isdst
	buf.WriteByte(0) // abbreviation index
	buf.WriteString(chars)
	return buf.Bytes()
}

// tzifV2Chicago is a version 2 file carrying a slice of the
// America/Chicago history around 2016/2017 plus the usual footer. The
// 32-bit block is left empty; only the 64-bit block carries data.
func tzifV2Chicago() []byte {
	var buf bytes.Buffer
	writeTZifHeader(&buf, '2', [6]uint32{})

	chars := "CST\x00CDT\x00"
	writeTZifHeader(&buf, '2', [6]uint32{0, 0, 0, 3, 2, uint32(len(chars))})
	for _, when := range []int64{1457856000, 1478415600, 1489305600} {
		binary.Write(&buf, binary.BigEndian, when)
	}
	buf.Write([]byte{1, 0, 1}) // transition types

	binary.Write(&buf, binary.BigEndian, int32(-21600)) // CST
	buf.Write([]byte{0, 0})
	binary.Write(&buf, binary.BigEndian, int32(-18000)) // CDT
	buf.Write([]byte{1, 4})
	buf.WriteString(chars)

	buf.WriteString("\nCST6CDT,M3.2.0,M11.1.0\n")
	return buf.Bytes()
}

func TestParseTZifV1(t *testing.T) {
	zt, err := ParseTZif("Etc/GMT-1", tzifV1Fixed("+01", 3600))
	require.NoError(t, err)

	assert.Equal(t, "Etc/GMT-1", zt.Name)
	assert.Equal(t, []Zone{{Abbr: "+01", UTCOffset: 3600}}, zt.Zones)
	assert.Equal(t, []Transition{{When: Alpha, Index: 0}}, zt.Tx)
	assert.Nil(t, zt.Extend)
}

func TestParseTZifV2(t *testing.T) {
	zt, err := ParseTZif("America/Chicago", tzifV2Chicago())
	require.NoError(t, err)

	assert.Equal(t, []Zone{
		{Abbr: "CST", UTCOffset: -21600},
		{Abbr: "CDT", UTCOffset: -21600, STDOffset: 3600},
	}, zt.Zones)

	// A pseudo-transition to the first standard type covers the time
	// before the recorded history.
	assert.Equal(t, []Transition{
		{When: Alpha, Index: 0},
		{When: 1457856000, Index: 1},
		{When: 1478415600, Index: 0},
		{When: 1489305600, Index: 1},
	}, zt.Tx)

	require.NotNil(t, zt.Extend)
	assert.Equal(t, "CST", zt.Extend.StdAbbr)
	assert.Equal(t, -21600, zt.Extend.StdOffset)
	assert.Equal(t, "CDT", zt.Extend.DstAbbr)
	assert.Equal(t, -18000, zt.Extend.DstOffset)
	require.NotNil(t, zt.Extend.DstStart)
	require.NotNil(t, zt.Extend.DstEnd)
}

func TestParseTZifErrors(t *testing.T) {
	v1 := tzifV1Fixed("UTC", 0)

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOPE\x00")},
		{"unsupported version", append([]byte("TZif9"), make([]byte, 39)...)},
		{"truncated header", v1[:20]},
		{"truncated data block", v1[:len(v1)-3]},
		{"no local time types", func() []byte {
			var buf bytes.Buffer
			writeTZifHeader(&buf, 0, [6]uint32{})
			return buf.Bytes()
		}()},
		{"abbreviation index out of range", func() []byte {
			var buf bytes.Buffer
			writeTZifHeader(&buf, 0, [6]uint32{0, 0, 0, 0, 1, 1})
			binary.Write(&buf, binary.BigEndian, int32(0))
			buf.Write([]byte{0, 9}) // index past charcnt
			buf.WriteByte(0)
			return buf.Bytes()
		}()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseTZif("Test/Zone", c.data)
			assert.Error(t, err)
		})
	}
}
