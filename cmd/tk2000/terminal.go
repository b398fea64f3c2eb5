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
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// rawTerminal puts stdin into raw mode for the duration of a run, so
// keystrokes reach the emulator one byte at a time instead of being
// line-buffered and echoed by the host terminal driver.
type rawTerminal struct {
	fd      uintptr
	canAttr unix.Termios
	rawAttr unix.Termios
}

// newRawTerminal captures stdin's current mode so it can be restored later.
func newRawTerminal() (*rawTerminal, error) {
	t := &rawTerminal{fd: os.Stdin.Fd()}

	if err := termios.Tcgetattr(t.fd, &t.canAttr); err != nil {
		return nil, err
	}
	t.rawAttr = t.canAttr
	termios.Cfmakeraw(&t.rawAttr)

	return t, nil
}

// Enable switches stdin into raw mode.
func (t *rawTerminal) Enable() error {
	return termios.Tcsetattr(t.fd, termios.TCIFLUSH, &t.rawAttr)
}

// Restore switches stdin back to the mode it was in before Enable.
func (t *rawTerminal) Restore() error {
	return termios.Tcsetattr(t.fd, termios.TCIFLUSH, &t.canAttr)
}
