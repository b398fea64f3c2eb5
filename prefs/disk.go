// This file is part of TK2000emu.
//
// TK2000emu is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// TK2000emu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with TK2000emu.  If not, see <https://www.gnu.org/licenses/>.

package prefs

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gvelo/tk2000/curated"
)

// WarningBoilerPlate is written as the first line of every preferences file.
const WarningBoilerPlate = "# this file is written by tk2000emu. do not edit by hand."

// DefaultPrefsFile is the filename used when no other name is given.
const DefaultPrefsFile = "prefs.tk2000"

// NoPrefsFile is the curated.Is() pattern returned by Load() when the
// preferences file does not exist. Callers are expected to treat this as
// "use defaults", not a fatal error.
const NoPrefsFile = "prefs: no prefs file"

// Disk is a registry of named pref values that can be loaded from, and saved
// to, a single flat file on disk.
type Disk struct {
	crit     sync.Mutex
	filename string
	entries  map[string]pref
	order    []string
}

// NewDisk is the preferred method of initialisation for the Disk type. It
// does not load or create the file; call Load() or Save() explicitly.
func NewDisk(filename string) (*Disk, error) {
	if filename == "" {
		return nil, curated.Errorf("prefs: empty filename")
	}
	return &Disk{
		filename: filename,
		entries:  make(map[string]pref),
	}, nil
}

// Add registers a pref value under the given key. The key must be unique
// within this Disk instance.
func (d *Disk) Add(key string, p pref) error {
	d.crit.Lock()
	defer d.crit.Unlock()

	if _, ok := d.entries[key]; ok {
		return curated.Errorf("prefs: duplicate key (%s)", key)
	}
	d.entries[key] = p
	d.order = append(d.order, key)
	return nil
}

// String renders the registry in the same "key :: value" form that Save()
// writes to disk.
func (d *Disk) String() string {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.render()
}

func (d *Disk) render() string {
	keys := make([]string, len(d.order))
	copy(keys, d.order)
	sort.Strings(keys)

	s := strings.Builder{}
	for _, k := range keys {
		fmt.Fprintf(&s, "%s :: %s\n", k, d.entries[k].String())
	}
	return s.String()
}

// readRawLines parses the existing preferences file, if any, into a
// key->rawvalue map. Used by Save() so that writing one Disk instance's
// values never clobbers keys owned by a different Disk instance sharing the
// same file.
func (d *Disk) readRawLines() map[string]string {
	raw := make(map[string]string)

	f, err := os.Open(d.filename)
	if err != nil {
		return raw
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " :: ", 2)
		if len(parts) != 2 {
			continue
		}
		raw[parts[0]] = parts[1]
	}

	return raw
}

// Save writes every registered value to the Disk's file, merging with any
// keys already present in the file that this Disk instance does not own.
func (d *Disk) Save() error {
	d.crit.Lock()
	raw := d.readRawLines()
	for k, p := range d.entries {
		raw[k] = p.String()
	}
	filename := d.filename
	d.crit.Unlock()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if isDefunct(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := strings.Builder{}
	for _, k := range keys {
		fmt.Fprintf(&body, "%s :: %s\n", k, raw[k])
	}

	f, err := os.Create(filename)
	if err != nil {
		return curated.Errorf("prefs: %v", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n%s", WarningBoilerPlate, body.String()); err != nil {
		return curated.Errorf("prefs: %v", err)
	}

	return nil
}

// Load reads the Disk's file and applies each "key :: value" line to the
// matching registered pref. Unrecognised keys are ignored. If ignoreMissing
// is false and the file does not exist, a NoPrefsFile error is returned
// (testable with curated.Is).
func (d *Disk) Load(ignoreMissing bool) error {
	f, err := os.Open(d.filename)
	if err != nil {
		if os.IsNotExist(err) {
			if ignoreMissing {
				return nil
			}
			return curated.Errorf(NoPrefsFile)
		}
		return curated.Errorf("prefs: %v", err)
	}
	defer f.Close()

	d.crit.Lock()
	defer d.crit.Unlock()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, " :: ", 2)
		if len(parts) != 2 || isDefunct(parts[0]) {
			continue
		}

		p, ok := d.entries[parts[0]]
		if !ok {
			continue
		}
		if err := p.Set(parts[1]); err != nil {
			return curated.Errorf("prefs: %v", err)
		}
	}

	return scanner.Err()
}
