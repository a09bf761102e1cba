package tzdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngrash/go-tzperiod/civil"
)

// testDir populates a temporary zoneinfo directory with generated TZif
// files plus a non-TZif file that must be ignored.
func testDir(t *testing.T) *Dir {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "America"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "America", "Chicago"), tzifV2Chicago(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "UTC"), tzifV1Fixed("UTC", 0), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "zone.tab"), []byte("# not a TZif file\n"), 0o644))

	d, err := OpenDir(root)
	require.NoError(t, err)
	return d
}

func TestOpenDirErrors(t *testing.T) {
	_, err := OpenDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = OpenDir(file)
	assert.Error(t, err)
}

func TestDirZoneExists(t *testing.T) {
	d := testDir(t)

	assert.True(t, d.ZoneExists("America/Chicago"))
	assert.True(t, d.ZoneExists("UTC"))
	assert.False(t, d.ZoneExists("Mars/Olympus"))
	assert.False(t, d.ZoneExists("America")) // a directory, not a zone
	assert.False(t, d.ZoneExists("../etc/passwd"))
	assert.False(t, d.ZoneExists("/UTC"))
	assert.False(t, d.ZoneExists(""))
}

func TestDirPeriods(t *testing.T) {
	d := testDir(t)

	recs, err := d.Periods("America/Chicago", civil.Date(2016, time.July, 1, 12, 0, 0), ModeUTC)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "CDT", recs[0].Abbr)
	assert.Equal(t, -18000, recs[0].Total())

	// Second query hits the cache and must agree.
	again, err := d.Periods("America/Chicago", civil.Date(2016, time.July, 1, 12, 0, 0), ModeUTC)
	require.NoError(t, err)
	assert.Equal(t, recs, again)

	_, err = d.Periods("Mars/Olympus", civil.Date(2016, time.July, 1, 12, 0, 0), ModeUTC)
	assert.ErrorIs(t, err, ErrUnknownZone)

	_, err = d.Periods("../Chicago", civil.Date(2016, time.July, 1, 12, 0, 0), ModeUTC)
	assert.ErrorIs(t, err, ErrUnknownZone)
}

func TestDirZoneNames(t *testing.T) {
	d := testDir(t)
	assert.Equal(t, []string{"America/Chicago", "UTC"}, d.ZoneNames())
}

func TestDirRejectsCorruptFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Broken"), []byte("TZif"), 0o644))
	d, err := OpenDir(root)
	require.NoError(t, err)

	_, err = d.Periods("Broken", civil.Date(2016, time.July, 1, 0, 0, 0), ModeUTC)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownZone))
}
