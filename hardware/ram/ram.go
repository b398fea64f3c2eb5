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

// Package ram implements the machine's 64KiB linear memory store.
package ram

import (
	"github.com/gvelo/tk2000/logger"
	"github.com/gvelo/tk2000/random"
)

// RAM is a flat 64KiB byte store, addressable over the whole 16-bit range.
// The bus is responsible for only ever mapping it over the ranges it should
// actually back.
type RAM struct {
	mem [0x10000]byte

	// rnd, when non-nil and Randomize is true, is the source of fill bytes
	// used by Clear instead of zero – a debugging aid that surfaces
	// uninitialised-memory bugs in loaded software the same way real
	// silicon's indeterminate power-on state would, while staying
	// reproducible across runs that share a seed.
	rnd       *random.Random
	Randomize bool
}

// NewRAM is the preferred method of initialisation for the RAM type. rnd may
// be nil if power-on randomization will never be enabled.
func NewRAM(rnd *random.Random) *RAM {
	return &RAM{rnd: rnd}
}

// Read returns the stored byte at addr.
func (r *RAM) Read(addr uint16) uint8 {
	return r.mem[addr]
}

// Write stores value at addr.
func (r *RAM) Write(addr uint16, value uint8) {
	r.mem[addr] = value
}

// Peek returns the stored byte at addr without side effects – RAM has none,
// so this is identical to Read.
func (r *RAM) Peek(addr uint16) uint8 {
	return r.mem[addr]
}

// Clear fills all 64KiB with zero, or, when Randomize is set and a random
// source was supplied at construction, with that source's output.
func (r *RAM) Clear() {
	if r.Randomize && r.rnd != nil {
		for i := range r.mem {
			r.mem[i] = byte(r.rnd.NoRewind(256))
		}
		logger.Log(logger.Allow, "ram", "cleared with randomized fill")
		return
	}

	for i := range r.mem {
		r.mem[i] = 0
	}
	logger.Log(logger.Allow, "ram", "cleared")
}
