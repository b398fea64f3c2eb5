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

package keyboard_test

import (
	"testing"

	"github.com/gvelo/tk2000/hardware/keyboard"
)

func TestNoKeyPressedReadsZero(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.Write(0xC000, 0x01)
	if got := k.Read(0xC000); got != 0 {
		t.Errorf("got %#02x, want 0x00", got)
	}
}

func TestLetterKeyRoundTrip(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Rune: 'A'})

	// A maps to row 1, column 5
	k.Write(0xC000, 1<<1)
	if got := k.Read(0xC000); got != 1<<5 {
		t.Errorf("got %#02x, want %#02x", got, uint8(1<<5))
	}

	k.Write(0xC000, 1<<2)
	if got := k.Read(0xC000); got != 0 {
		t.Errorf("expected wrong row to read 0, got %#02x", got)
	}
}

func TestYAndZMapToDistinctCells(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Rune: 'Y'})

	// Y maps to row 5, column 1
	k.Write(0xC000, 1<<5)
	if got := k.Read(0xC000); got != 1<<1 {
		t.Errorf("got %#02x, want %#02x", got, uint8(1<<1))
	}

	k.ReleaseKey()
	k.PushKey(keyboard.Event{Rune: 'Z'})

	// Z maps to row 0, column 5
	k.Write(0xC000, 1<<0)
	if got := k.Read(0xC000); got != 1<<5 {
		t.Errorf("got %#02x, want %#02x", got, uint8(1<<5))
	}
}

func TestShiftedSymbol(t *testing.T) {
	k := keyboard.NewKeyboard()
	// '!' shares the cell of '1' (row 3, col 5) with SHIFT asserted
	k.PushKey(keyboard.Event{Rune: '!'})

	k.Write(0xC000, 0x01)
	if got := k.Read(0xC000); got != 1 {
		t.Errorf("expected SHIFT line (KBIN==0x01) to read 1, got %#02x", got)
	}
}

func TestControlLineQuery(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Rune: 'Q', Ctrl: true})

	k.Write(0xC05F, 0)
	if got := k.Read(0xC05F); got != 1 {
		t.Errorf("expected control-line query with CTRL held to read 1, got %#02x", got)
	}
}

func TestReleaseKeyClears(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Rune: 'A'})
	k.ReleaseKey()

	k.Write(0xC000, 1<<1)
	if got := k.Read(0xC000); got != 0 {
		t.Errorf("expected cleared key to read 0, got %#02x", got)
	}
}

func TestSpecialKeyMapsToColumnZero(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Special: keyboard.SpecialEnter})

	k.Write(0xC000, 1<<7)
	if got := k.Read(0xC000); got != 1 {
		t.Errorf("expected Enter (row 7, col 0) to read 1, got %#02x", got)
	}
}

func TestUnmappedKeyClears(t *testing.T) {
	k := keyboard.NewKeyboard()
	k.PushKey(keyboard.Event{Rune: '~'})

	k.Write(0xC000, 0xFF)
	if got := k.Read(0xC000); got != 0 {
		t.Errorf("expected unmapped key to behave as no key pressed, got %#02x", got)
	}
}
