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

// Command tk2000 is a headless, terminal-driven front end for the TK2000
// emulator: it wires a ROM image and an optional cassette image onto a
// machine, forwards raw keystrokes from stdin to the keyboard, and tears
// everything down cleanly on exit.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gvelo/tk2000/hardware/keyboard"
	"github.com/gvelo/tk2000/hardware/machine"
	"github.com/gvelo/tk2000/hardware/sound"
	"github.com/gvelo/tk2000/logger"
	"github.com/gvelo/tk2000/version"
	"github.com/gvelo/tk2000/wavwriter"
)

// keyHoldTime is how long a decoded keystroke stays asserted on the matrix
// before being released, approximating the dwell of a real keypress. A
// terminal gives us no key-up event to drive this from directly.
const keyHoldTime = 40 * time.Millisecond

func main() {
	romPath := flag.String("rom", "", "path to a 16KiB ROM image (required)")
	tapePath := flag.String("tape", "", "path to a .ct2 cassette image to insert at startup")
	color := flag.Bool("color", false, "start in artifact-color mode instead of mono")
	mute := flag.Bool("mute", false, "start with the speaker disabled")
	wavPath := flag.String("wav", "", "record speaker output to this WAV file")
	flag.Parse()

	if err := run(*romPath, *tapePath, *wavPath, *color, *mute); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(romPath, tapePath, wavPath string, color, mute bool) error {
	if romPath == "" {
		return fmt.Errorf("tk2000: -rom is required")
	}

	ver, rev, _ := version.Version()
	fmt.Printf("TK2000emu %s (%s)\n", ver, rev)

	var sink sound.Sink
	if wavPath != "" {
		w, err := wavwriter.New(wavPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
		sink = w
	}

	romFile, err := os.Open(romPath)
	if err != nil {
		return err
	}
	defer romFile.Close()

	m, err := machine.NewMachine(romFile, sink)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	if color {
		if err := m.SetColorMode(true); err != nil {
			return err
		}
	}
	if mute {
		if err := m.SetSoundEnabled(false); err != nil {
			return err
		}
	}

	if tapePath != "" {
		tapeFile, err := os.Open(tapePath)
		if err != nil {
			return err
		}
		err = m.InsertTape(tapeFile)
		tapeFile.Close()
		if err != nil {
			return err
		}
		m.Tape().Play()
	}

	term, err := newRawTerminal()
	if err != nil {
		return err
	}
	if err := term.Enable(); err != nil {
		return err
	}
	defer term.Restore()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM)

	m.PowerOn()
	fmt.Println("machine powered on, press Ctrl-C to quit")

	done := make(chan struct{})
	go func() {
		defer close(done)
		readKeys(m.Keyboard())
	}()

	select {
	case <-sig:
	case <-done:
	}

	m.PowerOff()
	logger.Log(logger.Allow, "tk2000", "shutting down")
	return nil
}

// readKeys reads and forwards keystrokes from stdin until the quit key is
// pressed or stdin is closed.
func readKeys(kbd *keyboard.Keyboard) {
	r := bufio.NewReader(os.Stdin)

	for {
		ev, err := readKey(r)
		if err != nil {
			return
		}
		if ev == (keyboard.Event{}) {
			continue
		}

		kbd.PushKey(ev)
		time.AfterFunc(keyHoldTime, kbd.ReleaseKey)
	}
}
