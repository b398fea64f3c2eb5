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

package main

import (
	"bufio"
	"errors"

	"github.com/gvelo/tk2000/hardware/keyboard"
)

// errQuit is returned by readKey when the user presses the quit key (Ctrl-C,
// which a raw terminal delivers as a plain byte rather than as SIGINT).
var errQuit = errors.New("quit requested")

// readKey decodes the next keystroke from r into a keyboard.Event. Arrow keys
// arrive as a three-byte ANSI escape sequence; everything else is a single
// byte.
func readKey(r *bufio.Reader) (keyboard.Event, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyboard.Event{}, err
	}

	switch {
	case b == 0x03:
		return keyboard.Event{}, errQuit
	case b == 0x1b:
		return readEscapeSequence(r)
	case b == '\r' || b == '\n':
		return keyboard.Event{Special: keyboard.SpecialEnter}, nil
	case b == 0x7f || b == 0x08:
		return keyboard.Event{Special: keyboard.SpecialBackspace}, nil
	case b == ' ':
		return keyboard.Event{Special: keyboard.SpecialSpace}, nil
	case b < 0x20:
		return keyboard.Event{Rune: rune('a' + b - 1), Ctrl: true}, nil
	default:
		return keyboard.Event{Rune: rune(b)}, nil
	}
}

// readEscapeSequence decodes the remainder of a "CSI direction" escape
// sequence (the ESC byte has already been consumed). Any sequence that isn't
// a recognised arrow key is silently dropped, matching a key with no matrix
// mapping.
func readEscapeSequence(r *bufio.Reader) (keyboard.Event, error) {
	b, err := r.ReadByte()
	if err != nil {
		return keyboard.Event{}, err
	}
	if b != '[' {
		return keyboard.Event{}, nil
	}

	b, err = r.ReadByte()
	if err != nil {
		return keyboard.Event{}, err
	}

	switch b {
	case 'A':
		return keyboard.Event{Special: keyboard.SpecialUp}, nil
	case 'B':
		return keyboard.Event{Special: keyboard.SpecialDown}, nil
	case 'C':
		return keyboard.Event{Special: keyboard.SpecialRight}, nil
	case 'D':
		return keyboard.Event{Special: keyboard.SpecialLeft}, nil
	default:
		return keyboard.Event{}, nil
	}
}
