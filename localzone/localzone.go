// Package localzone detects the zone name the operating system is
// configured with. The probe performs OS I/O, so its result is memoized
// for the lifetime of the process: the underlying configuration does not
// change within it.
package localzone

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/xerrors"
)

// Detector memoizes a local zone probe. The zero value uses the default
// OS probe.
type Detector struct {
	// Probe overrides the OS probe. Must be set before the first call
	// to Detect.
	Probe func() (string, error)

	mu   sync.Mutex
	done bool
	name string
	err  error
}

// Detect returns the local zone name, running the probe on first use.
// Concurrent first callers serialize on one probe run.
func (d *Detector) Detect() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.done {
		probe := d.Probe
		if probe == nil {
			probe = osProbe
		}
		d.name, d.err = probe()
		d.done = true
	}
	return d.name, d.err
}

// Override pins the detected name, bypassing the probe. It exists for
// tests; production code never mutates a Detector after first use.
func (d *Detector) Override(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name, d.err, d.done = name, nil, true
}

// Default is the process-wide detector used by Detect.
var Default Detector

// Detect returns the process-wide local zone name.
func Detect() (string, error) { return Default.Detect() }

// osProbe consults the TZ environment variable and then the
// /etc/localtime symlink. TZ set but empty means UTC.
func osProbe() (string, error) {
	if tz, found := os.LookupEnv("TZ"); found {
		if tz == "" {
			return "Etc/UTC", nil
		}
		return strings.TrimPrefix(tz, ":"), nil
	}

	link, err := os.Readlink("/etc/localtime")
	if err != nil {
		return "", xerrors.Errorf("probe local zone: %w", err)
	}
	if i := strings.Index(link, "zoneinfo/"); i >= 0 {
		return link[i+len("zoneinfo/"):], nil
	}
	return "", xerrors.Errorf("probe local zone: unexpected localtime target %q", link)
}
