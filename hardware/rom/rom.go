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

// Package rom implements the machine's 16KiB read-only memory image, mapped
// at 0xC100-0xFFFF (0xC000-0xFFFF including the BankSW-hidden first page).
package rom

import (
	"io"
	"os"

	"github.com/gvelo/tk2000/curated"
)

// Size is the fixed size of a TK2000 ROM image.
const Size = 16 * 1024

// ErrBadImage is the curated.Is pattern returned when a ROM image is missing,
// truncated, or the wrong size.
const ErrBadImage = "rom: bad image: %v"

// ROM is a fixed 16KiB read-only memory image. Its addressing is relative to
// 0xC000 regardless of where the bus actually maps it.
type ROM struct {
	mem [Size]byte
}

// NewROM is the preferred method of initialisation for the ROM type. It
// loads image bytes from the reader and expects exactly Size bytes.
func NewROM(r io.Reader) (*ROM, error) {
	rom := &ROM{}

	if _, err := io.ReadFull(r, rom.mem[:]); err != nil {
		return nil, curated.Errorf(ErrBadImage, err)
	}

	return rom, nil
}

// LoadROM is a convenience wrapper around NewROM that loads the image from a
// file path.
func LoadROM(path string) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, curated.Errorf(ErrBadImage, err)
	}
	defer f.Close()

	return NewROM(f)
}

// Read returns the ROM byte at addr, relative to a 0xC000 base.
func (r *ROM) Read(addr uint16) uint8 {
	return r.mem[addr-0xC000]
}

// Write is a no-op: ROM is immutable after load.
func (r *ROM) Write(addr uint16, value uint8) {}

// Peek returns the ROM byte at addr without side effects – ROM has none, so
// this is identical to Read.
func (r *ROM) Peek(addr uint16) uint8 {
	return r.mem[addr-0xC000]
}
