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

// Package preferences collates the disk-backed tunables read by the
// hardware package: the video color mode, the speaker and tape-passthrough
// enable flags, the tape's CA_CYCLES threshold, and the power-on RAM
// randomization state and seed.
package preferences

import (
	"sync/atomic"

	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/paths"
	"github.com/gvelo/tk2000/prefs"
)

// defaultCACycles is the number of 502/502-cycle leader half-cycle pairs Tape
// emits for each CA chunk, absent any persisted override.
const defaultCACycles = 500

// colorModeColor and colorModeMono are the string values ColorMode is
// persisted as on disk.
const (
	colorModeColor = "color"
	colorModeMono  = "mono"
)

// Preferences collates every tunable read by the hardware package.
type Preferences struct {
	dsk *prefs.Disk

	// VideoColorMode selects COLOR or MONO hi-res rendering. Set/Get take
	// and return "color" or "mono".
	VideoColorMode *prefs.Generic

	// SoundEnabled mutes the speaker sink entirely when false.
	SoundEnabled prefs.Bool

	// TapeSoundEnabled passes the tape's bitstream through to the speaker
	// while a tape is playing, the way a real cassette deck's monitor
	// output would.
	TapeSoundEnabled prefs.Bool

	// TapeCACycles is the number of leader half-cycle pairs Tape emits for
	// each CA chunk of a tape inserted afterwards.
	TapeCACycles prefs.Int

	// RandomState initializes RAM from the deterministic random source on
	// power-up instead of zeroing it.
	RandomState prefs.Bool

	// RandSeed overrides the random package's base seed (see
	// random.SetBaseSeed) when nonzero, so that two runs with the same
	// persisted seed reproduce the same power-on RAM fill. Zero means "use
	// the random package's own time-seeded default".
	RandSeed prefs.Int

	colorMode atomic.Value // string, backing VideoColorMode
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. It loads persisted values from disk, or silently
// falls back to defaults if no preferences file exists yet.
func NewPreferences() (*Preferences, error) {
	p := &Preferences{}
	p.colorMode.Store(colorModeMono)
	p.VideoColorMode = prefs.NewGeneric(p.setColorMode, p.getColorMode)

	if err := p.TapeCACycles.Set(defaultCACycles); err != nil {
		return nil, err
	}

	pth := paths.ResourcePath(prefs.DefaultPrefsFile)
	dsk, err := prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	p.dsk = dsk

	if err := p.dsk.Add("video.colorMode", p.VideoColorMode); err != nil {
		return nil, err
	}
	if err := p.dsk.Add("sound.enabled", &p.SoundEnabled); err != nil {
		return nil, err
	}
	if err := p.dsk.Add("tape.soundEnabled", &p.TapeSoundEnabled); err != nil {
		return nil, err
	}
	if err := p.dsk.Add("tape.caCycles", &p.TapeCACycles); err != nil {
		return nil, err
	}
	if err := p.dsk.Add("hardware.randstate", &p.RandomState); err != nil {
		return nil, err
	}
	if err := p.dsk.Add("hardware.randseed", &p.RandSeed); err != nil {
		return nil, err
	}

	if err := p.dsk.Load(true); err != nil {
		if !curated.Is(err, prefs.NoPrefsFile) {
			return nil, err
		}
	}

	return p, nil
}

func (p *Preferences) setColorMode(v prefs.Value) error {
	p.colorMode.Store(v.(string))
	return nil
}

func (p *Preferences) getColorMode() prefs.Value {
	return p.colorMode.Load().(string)
}

// ColorModeIsColor reports whether the persisted color mode is "color"
// rather than "mono".
func (p *Preferences) ColorModeIsColor() bool {
	return p.colorMode.Load().(string) == colorModeColor
}

// SetColorModeColor persists the COLOR hi-res rendering mode.
func (p *Preferences) SetColorModeColor() error {
	return p.VideoColorMode.Set(colorModeColor)
}

// SetColorModeMono persists the MONO hi-res rendering mode.
func (p *Preferences) SetColorModeMono() error {
	return p.VideoColorMode.Set(colorModeMono)
}

// Load re-reads current preference values from disk.
func (p *Preferences) Load() error {
	return p.dsk.Load(false)
}

// Save writes current preference values to disk.
func (p *Preferences) Save() error {
	return p.dsk.Save()
}

// String returns the rendered contents of the preferences file.
func (p *Preferences) String() string {
	return p.dsk.String()
}
