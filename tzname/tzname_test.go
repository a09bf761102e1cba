package tzname

import (
	"errors"
	"testing"

	"github.com/ngrash/go-tzperiod/civil"
	"github.com/ngrash/go-tzperiod/tzdb"
)

// stubDB knows a fixed set of zone names and nothing else.
type stubDB map[string]bool

func (db stubDB) ZoneExists(name string) bool { return db[name] }
func (db stubDB) Periods(string, civil.DateTime, tzdb.Mode) ([]tzdb.Record, error) {
	return nil, tzdb.ErrUnknownZone
}
func (db stubDB) ZoneNames() []string { return nil }

func TestCanonicalize(t *testing.T) {
	db := stubDB{"America/Chicago": true, "Etc/GMT-2": true}

	cases := []struct {
		in   string
		want string
	}{
		{"", "Etc/UTC"},
		{"UTC", "Etc/UTC"},
		{":UTC", "Etc/UTC"},
		{"utc", "Etc/UTC"},
		{"Z", "Etc/UTC"},
		{"UT", "Etc/UTC"},
		{"GMT", "Etc/UTC"},
		{"Etc/UTC", "Etc/UTC"},
		{"etc/gmt", "Etc/UTC"},
		{" UTC ", "Etc/UTC"},

		// Military designators. J is local time and must not resolve.
		{"A", "Etc/GMT-1"},
		{"m", "Etc/GMT-12"},
		{"N", "Etc/GMT+1"},
		{"Y", "Etc/GMT+12"},

		// Bare hour offsets, positive east.
		{"2", "Etc/GMT-2"},
		{"-9", "Etc/GMT+9"},
		{"0", "Etc/UTC"},

		// Fractional hours round to seconds.
		{"9.5", "UTC+09:30"},
		{"-3.5", "UTC-03:30"},

		// Signed offset strings.
		{"+02:00", "Etc/GMT-2"},
		{"-09:30", "UTC-09:30"},
		{"+5", "Etc/GMT-5"},
		{"+00:00", "Etc/UTC"},
		{"+10:30:30", "UTC+10:30:30"},

		// GMT-prefixed offsets use the intuitive sign.
		{"GMT+2", "Etc/GMT-2"},
		{"GMT-6", "Etc/GMT+6"},

		// Database names pass through unchanged.
		{"America/Chicago", "America/Chicago"},
		{"Etc/GMT-2", "Etc/GMT-2"},

		// POSIX TZ strings pass through when the database has no match.
		{"CST6CDT", "CST6CDT"},
		{"CST6CDT,M3.2.0,M11.1.0", "CST6CDT,M3.2.0,M11.1.0"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := Canonicalize(db, c.in)
			if err != nil {
				t.Fatalf("Canonicalize(%q) error: %v", c.in, err)
			}
			if got != c.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCanonicalizeNilDatabase(t *testing.T) {
	got, err := Canonicalize(nil, "EST5EDT")
	if err != nil {
		t.Fatalf("Canonicalize error: %v", err)
	}
	if got != "EST5EDT" {
		t.Errorf("Canonicalize(EST5EDT) = %q, want EST5EDT", got)
	}

	if _, err := Canonicalize(nil, "America/Chicago"); !errors.Is(err, ErrInvalidTimezone) {
		t.Errorf("Canonicalize(America/Chicago) without db = %v, want ErrInvalidTimezone", err)
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"J", ErrInvalidTimezone},
		{"Not/A/Zone", ErrInvalidTimezone},
		{"+25:00", ErrInvalidOffset},
		{"+02:60", ErrInvalidOffset},
		{"+1:2:3:4", ErrInvalidOffset},
		{"GMT+99", ErrInvalidOffset},
		{"99", ErrInvalidOffset},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if _, err := Canonicalize(nil, c.in); !errors.Is(err, c.want) {
				t.Errorf("Canonicalize(%q) = %v, want %v", c.in, err, c.want)
			}
		})
	}
}

func TestCanonicalizeFixedNames(t *testing.T) {
	// Names the package itself produces must canonicalize to themselves
	// even when the database has no file for them.
	db := stubDB{"America/Chicago": true}

	for _, sec := range []int{0, 3600, -3600, 7200, 43200, 34200, -34200, 20700, 3661} {
		name, err := FixedName(sec)
		if err != nil {
			t.Fatalf("FixedName(%d) error: %v", sec, err)
		}
		for _, d := range []struct {
			label string
			db    stubDB
		}{{"nil db", nil}, {"db without fixed zones", db}} {
			got, err := Canonicalize(d.db, name)
			if err != nil {
				t.Errorf("%s: Canonicalize(%q) error: %v", d.label, name, err)
				continue
			}
			if got != name {
				t.Errorf("%s: Canonicalize(%q) = %q, want the name itself", d.label, name, got)
			}
		}
	}
}

func TestFixedOffset(t *testing.T) {
	cases := []struct {
		name string
		want int
		ok   bool
	}{
		{"Etc/UTC", 0, true},
		{"Etc/GMT", 0, true},
		{"Etc/GMT-2", 7200, true},
		{"Etc/GMT+6", -21600, true},
		{"UTC+09:30", 34200, true},
		{"UTC-00:25:21", -1521, true},
		{"America/Chicago", 0, false},
		{"Etc/GMT-99", 0, false},
		{"UTC+24:00", 0, false},
		{"UTC+02", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := FixedOffset(c.name)
		if ok != c.ok || got != c.want {
			t.Errorf("FixedOffset(%q) = %d, %t, want %d, %t", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestFixedName(t *testing.T) {
	cases := []struct {
		sec  int
		want string
	}{
		{0, "Etc/UTC"},
		{3600, "Etc/GMT-1"},
		{-3600, "Etc/GMT+1"},
		{43200, "Etc/GMT-12"},
		{34200, "UTC+09:30"},
		{-34200, "UTC-09:30"},
		{20700, "UTC+05:45"},
		{3661, "UTC+01:01:01"},
	}
	for _, c := range cases {
		got, err := FixedName(c.sec)
		if err != nil {
			t.Fatalf("FixedName(%d) error: %v", c.sec, err)
		}
		if got != c.want {
			t.Errorf("FixedName(%d) = %q, want %q", c.sec, got, c.want)
		}
	}

	for _, sec := range []int{86400, -86400, 100000} {
		if _, err := FixedName(sec); !errors.Is(err, ErrInvalidOffset) {
			t.Errorf("FixedName(%d) = %v, want ErrInvalidOffset", sec, err)
		}
	}
}
