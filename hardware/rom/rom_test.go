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

package rom_test

import (
	"bytes"
	"testing"

	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/hardware/rom"
)

func makeImage() []byte {
	img := make([]byte, rom.Size)
	img[0] = 0xAA
	img[1] = 0xBB
	img[rom.Size-1] = 0xCC
	return img
}

func TestReadIsRelativeToC000(t *testing.T) {
	r, err := rom.NewROM(bytes.NewReader(makeImage()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := r.Read(0xC000); got != 0xAA {
		t.Errorf("got %#02x, want 0xaa", got)
	}
	if got := r.Read(0xC001); got != 0xBB {
		t.Errorf("got %#02x, want 0xbb", got)
	}
	if got := r.Read(0xFFFF); got != 0xCC {
		t.Errorf("got %#02x, want 0xcc", got)
	}
}

func TestWriteIsNoop(t *testing.T) {
	r, err := rom.NewROM(bytes.NewReader(makeImage()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Write(0xC000, 0xFF)
	if got := r.Read(0xC000); got != 0xAA {
		t.Errorf("write should have been a no-op, got %#02x", got)
	}
}

func TestShortImageIsRejected(t *testing.T) {
	_, err := rom.NewROM(bytes.NewReader(make([]byte, 10)))
	if err == nil {
		t.Fatal("expected an error for a short image")
	}
	if !curated.Is(err, rom.ErrBadImage) {
		t.Errorf("expected curated.Is(err, rom.ErrBadImage) to be true")
	}
}
