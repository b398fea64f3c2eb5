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

// Package keyboard implements the machine's 8x8 keyboard scan matrix – the
// direct variant, which tracks a single active key rather than a queue of
// pending events.
package keyboard

import (
	"sync"
	"unicode"
)

// SpecialKey identifies a non-printable key that has its own matrix cell.
type SpecialKey int

const (
	SpecialNone SpecialKey = iota
	SpecialUp
	SpecialDown
	SpecialLeft
	SpecialRight
	SpecialEnter
	SpecialBackspace
	SpecialSpace
)

// Event describes a single key press, either a printable rune or one of the
// SpecialKey cases (Rune is ignored when Special is set).
type Event struct {
	Rune    rune
	Special SpecialKey
	Ctrl    bool
}

type cell struct {
	row, column int
	shift       bool
}

// runeTable maps an uppercased printable key to its matrix cell. Symbols
// that share a cell with a digit or letter assert the SHIFT line.
var runeTable = map[rune]cell{
	'A': {1, 5, false}, 'B': {0, 1, false}, 'C': {0, 3, false}, 'D': {1, 3, false},
	'E': {2, 3, false}, 'F': {1, 2, false}, 'G': {1, 1, false}, 'H': {6, 1, false},
	'I': {5, 3, false}, 'J': {6, 2, false}, 'K': {6, 3, false}, 'L': {6, 4, false},
	'M': {7, 2, false}, 'N': {7, 1, false}, 'O': {5, 4, false}, 'P': {5, 5, false},
	'Q': {2, 5, false}, 'R': {2, 2, false}, 'S': {1, 4, false}, 'T': {2, 1, false},
	'U': {5, 2, false}, 'V': {0, 2, false}, 'W': {2, 4, false}, 'X': {0, 4, false},
	'Y': {5, 1, false}, 'Z': {0, 5, false},

	'1': {3, 5, false}, '2': {3, 4, false}, '3': {3, 3, false}, '4': {3, 2, false},
	'5': {3, 1, false}, '6': {4, 1, false}, '7': {4, 2, false}, '8': {4, 3, false},
	'9': {4, 4, false}, '0': {4, 5, false},

	',': {7, 3, false}, '.': {7, 4, false}, ':': {6, 5, false}, '?': {7, 5, false},

	'!': {3, 5, true}, '"': {3, 4, true}, '#': {3, 3, true}, '$': {3, 2, true},
	'%': {3, 1, true}, '&': {4, 1, true}, '/': {4, 2, true}, '(': {4, 3, true},
	')': {4, 4, true}, '=': {5, 4, true}, '-': {5, 3, true}, '+': {5, 5, true},
	'*': {4, 5, true}, '^': {6, 3, true}, '@': {6, 4, true},
}

// specialTable maps the non-printable keys to their matrix cell. All of
// them live in column 0 of their row.
var specialTable = map[SpecialKey]cell{
	SpecialUp:        {6, 0, false},
	SpecialDown:      {5, 0, false},
	SpecialLeft:      {3, 0, false},
	SpecialRight:     {4, 0, false},
	SpecialEnter:     {7, 0, false},
	SpecialBackspace: {3, 0, false},
	SpecialSpace:     {2, 0, false},
}

// Keyboard is the memory-mapped scan matrix device.
type Keyboard struct {
	mu sync.Mutex

	ctrl, shift, clear bool
	row, column        int

	kbIn     uint8
	kbInCtrl bool
}

// NewKeyboard is the preferred method of initialisation for the Keyboard
// type. No key is considered pressed until PushKey is called.
func NewKeyboard() *Keyboard {
	return &Keyboard{clear: true}
}

// PushKey maps ev onto the matrix and makes it the single active key,
// replacing whatever was previously held. A key with no matrix mapping
// clears the active key, matching real hardware's "nothing pressed" state.
func (k *Keyboard) PushKey(ev Event) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.ctrl = ev.Ctrl
	k.shift = false
	k.clear = false

	var c cell
	var ok bool

	if ev.Special != SpecialNone {
		c, ok = specialTable[ev.Special]
	} else {
		c, ok = runeTable[unicode.ToUpper(ev.Rune)]
	}

	if !ok {
		k.clear = true
		return
	}

	k.row = c.row
	k.column = c.column
	k.shift = c.shift
}

// ReleaseKey clears the active key.
func (k *Keyboard) ReleaseKey() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.clear = true
}

// Read returns the KBOUT / control-line value for addr.
func (k *Keyboard) Read(addr uint16) uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.clear {
		return 0
	}

	if k.kbInCtrl && k.ctrl {
		return 1
	}

	if k.kbIn == 1 && k.shift {
		return 1
	}

	if k.kbIn == 1<<uint(k.row) {
		return 1 << uint(k.column)
	}

	return 0
}

// Write sets the KBIN row selector, or arms the control-line query mode for
// the next read when addr is the control-line address.
func (k *Keyboard) Write(addr uint16, value uint8) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.kbInCtrl = false

	if addr == 0xC05F {
		k.kbInCtrl = true
		return
	}

	k.kbIn = value
}
