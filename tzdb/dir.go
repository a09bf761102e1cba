package tzdb

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ngrash/go-tzperiod/civil"
)

// Dir is a Database backed by an OS zoneinfo directory such as
// /usr/share/zoneinfo. Files are parsed lazily on first query and cached;
// the parsed tables themselves are immutable.
type Dir struct {
	path string

	mu    sync.RWMutex
	cache map[string]*ZoneTable
}

// OpenDir opens a zoneinfo directory.
func OpenDir(path string) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open zoneinfo: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open zoneinfo: %s is not a directory", path)
	}
	return &Dir{path: path, cache: make(map[string]*ZoneTable)}, nil
}

// validName rejects names that would escape the directory. No valid IANA
// zone name contains a dot or begins with a slash.
func validName(name string) bool {
	return name != "" && name[0] != '/' && name[0] != '\\' && !strings.Contains(name, "..")
}

// ZoneExists implements Database.
func (d *Dir) ZoneExists(name string) bool {
	if !validName(name) {
		return false
	}
	d.mu.RLock()
	_, cached := d.cache[name]
	d.mu.RUnlock()
	if cached {
		return true
	}
	info, err := os.Stat(filepath.Join(d.path, name))
	return err == nil && info.Mode().IsRegular()
}

// Periods implements Database.
func (d *Dir) Periods(name string, at civil.DateTime, mode Mode) ([]Record, error) {
	t, err := d.table(name)
	if err != nil {
		return nil, err
	}
	return queryTable(t, at, mode)
}

func (d *Dir) table(name string) (*ZoneTable, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownZone)
	}

	d.mu.RLock()
	t, ok := d.cache[name]
	d.mu.RUnlock()
	if ok {
		return t, nil
	}

	data, err := os.ReadFile(filepath.Join(d.path, name))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownZone)
	}
	t, err = ParseTZif(name, data)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	// A concurrent caller may have parsed the same file; both results
	// are identical, keep the first.
	if prev, ok := d.cache[name]; ok {
		t = prev
	} else {
		d.cache[name] = t
	}
	d.mu.Unlock()
	return t, nil
}

// ZoneNames implements Database. It walks the directory and lists every
// regular file that starts with the TZif magic.
func (d *Dir) ZoneNames() []string {
	var names []string
	_ = filepath.WalkDir(d.path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(d.path, path)
		if err != nil || strings.Contains(rel, ".") {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		var head [4]byte
		_, rerr := f.Read(head[:])
		_ = f.Close()
		if rerr == nil && head == magic {
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(names)
	return names
}
