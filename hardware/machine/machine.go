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

// Package machine wires every hardware device onto a single bus, matching
// the memory map of a real TK2000 II, and owns the CPU execution thread and
// video refresh task that drive it.
package machine

import (
	"io"
	"sync"
	"time"

	"github.com/gvelo/tk2000/hardware/bankswitch"
	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/hardware/cpu"
	"github.com/gvelo/tk2000/hardware/keyboard"
	"github.com/gvelo/tk2000/hardware/preferences"
	"github.com/gvelo/tk2000/hardware/ram"
	"github.com/gvelo/tk2000/hardware/rom"
	"github.com/gvelo/tk2000/hardware/sound"
	"github.com/gvelo/tk2000/hardware/tape"
	"github.com/gvelo/tk2000/hardware/video"
	"github.com/gvelo/tk2000/logger"
	"github.com/gvelo/tk2000/random"
)

// videoRefreshInterval is how often the video thread redraws the
// framebuffer from the currently selected hi-res page.
const videoRefreshInterval = 100 * time.Millisecond

// Machine is the fully wired computer: every device attached to its bus,
// plus the CPU execution thread and video refresh task that drive it.
type Machine struct {
	mu sync.Mutex

	Prefs *preferences.Preferences

	bus      *bus.Bus
	cpu      *cpu.CPU
	ram      *ram.RAM
	rom      *rom.ROM
	keyboard *keyboard.Keyboard
	tape     *tape.Tape
	sound    *sound.Sound
	video    *video.Video
	bankSW   *bankswitch.BankSW

	cpuStop   chan struct{}
	cpuDone   chan struct{}
	videoStop chan struct{}

	on bool
}

// NewMachine builds the device graph and wires it to the bus exactly as a
// real TK2000 II's memory map does. romImage must supply rom.Size bytes.
// sink may be nil, in which case the speaker is silently disabled.
func NewMachine(romImage io.Reader, sink sound.Sink) (*Machine, error) {
	prefs, err := preferences.NewPreferences()
	if err != nil {
		return nil, err
	}

	romDev, err := rom.NewROM(romImage)
	if err != nil {
		return nil, err
	}

	b := bus.NewBus()
	c := cpu.NewCPU(b)

	rnd := random.NewRandom(c)
	if seed := prefs.RandSeed.Get().(int); seed != 0 {
		random.SetBaseSeed(int64(seed))
	}
	ramDev := ram.NewRAM(rnd)
	ramDev.Randomize = prefs.RandomState.Get().(bool)

	// RAM starts zeroed by Go; clear it explicitly so the very first
	// power-on also draws its fill from the random source when enabled,
	// matching every later PowerOff's behaviour.
	ramDev.Clear()

	kbd := keyboard.NewKeyboard()
	tapeDev := tape.NewTape(b, c)
	tapeDev.SetSound(prefs.TapeSoundEnabled.Get().(bool))
	tapeDev.SetCACycles(prefs.TapeCACycles.Get().(int))

	soundDev := sound.NewSound(c, sink)
	soundDev.SetEnabled(prefs.SoundEnabled.Get().(bool))

	videoDev := video.NewVideo(b)
	bankSW := bankswitch.NewBankSW(b, ramDev, romDev)

	m := &Machine{
		Prefs:    prefs,
		bus:      b,
		cpu:      c,
		ram:      ramDev,
		rom:      romDev,
		keyboard: kbd,
		tape:     tapeDev,
		sound:    soundDev,
		video:    videoDev,
		bankSW:   bankSW,
	}

	m.wire()

	if prefs.ColorModeIsColor() {
		b.Read(0xC050)
	} else {
		b.Read(0xC051)
	}

	video.PowerOnFill(b)

	m.videoStop = make(chan struct{})
	go m.runVideo(m.videoStop)

	return m, nil
}

// wire attaches every device to its address range, matching the memory map
// of a real TK2000 II.
func (m *Machine) wire() {
	b := m.bus

	b.Attach(0x0000, 0xBFFF, m.ram, bus.Replace)
	b.Attach(0xC000, 0xC01F, m.keyboard, bus.Replace)
	b.Attach(0xC010, 0xC010, m.tape, bus.Add)
	b.Attach(0xC020, 0xC02F, m.tape, bus.Replace)
	b.Attach(0xC030, 0xC03F, m.sound, bus.Replace)
	b.Attach(0xC050, 0xC051, m.video, bus.Replace)
	b.Attach(0xC052, 0xC053, m.tape, bus.Replace)
	b.Attach(0xC054, 0xC055, m.video, bus.Replace)
	b.Attach(0xC056, 0xC057, m.tape, bus.Replace)
	b.Attach(0xC05A, 0xC05B, m.bankSW, bus.Replace)
	b.Attach(0xC05E, 0xC05F, m.keyboard, bus.Replace)
	b.Attach(0xC070, 0xC071, m.tape, bus.Replace)
	b.Attach(0xC080, 0xC08B, m.bankSW, bus.Replace)
	b.Attach(0xC100, 0xFFFF, m.rom, bus.Replace)
}

// Bus returns the machine's address bus, for a debugger or a cartridge
// loader to attach to directly.
func (m *Machine) Bus() *bus.Bus {
	return m.bus
}

// CPU returns the machine's CPU, for a debugger to inspect directly.
func (m *Machine) CPU() *cpu.CPU {
	return m.cpu
}

// Video returns the machine's video device, for a host render loop to pull
// framebuffers from.
func (m *Machine) Video() *video.Video {
	return m.video
}

// Keyboard returns the machine's keyboard, for a host input loop to push
// key events into.
func (m *Machine) Keyboard() *keyboard.Keyboard {
	return m.keyboard
}

// Tape returns the machine's cassette deck, for a host to insert and play
// tape images through.
func (m *Machine) Tape() *tape.Tape {
	return m.tape
}

// Reset re-selects the ROM bank, video page 1, and MONO mode, then asserts
// CPU reset.
func (m *Machine) Reset() {
	m.bus.Read(bankswitch.BankROM)
	m.bus.Read(0xC054)
	m.bus.Read(0xC051)
	m.cpu.AssertReset()
}

// PowerOn starts the CPU execution thread. It is a no-op if the machine is
// already on. The video refresh task is started once, at construction, and
// outlives PowerOn/PowerOff cycles.
func (m *Machine) PowerOn() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.on {
		return
	}
	m.on = true

	m.cpuStop = make(chan struct{})
	m.cpuDone = make(chan struct{})

	m.Reset()

	cpuStop, cpuDone := m.cpuStop, m.cpuDone
	go func() {
		defer close(cpuDone)
		m.cpu.Run(cpuStop)
	}()

	logger.Log(logger.Allow, "machine", "powered on")
}

// PowerOff stops the CPU execution thread and clears RAM. The video refresh
// task keeps running, redrawing an unchanging (zeroed) framebuffer, exactly
// as a real TK2000 II's screen goes dark rather than blank the instant power
// is cut.
func (m *Machine) PowerOff() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.on {
		return
	}
	m.on = false

	close(m.cpuStop)
	<-m.cpuDone
	m.ram.Clear()

	logger.Log(logger.Allow, "machine", "powered off")
}

// Shutdown stops the CPU thread (if running) and the video refresh task,
// releasing every goroutine the machine owns. It is intended for process
// exit; the machine should not be used again afterwards.
func (m *Machine) Shutdown() {
	m.PowerOff()
	close(m.videoStop)
}

// runVideo redraws the framebuffer from the currently selected hi-res page
// at videoRefreshInterval until stop is closed.
func (m *Machine) runVideo(stop <-chan struct{}) {
	ticker := time.NewTicker(videoRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.video.Refresh()
		}
	}
}

// SetColorMode persists and applies the hi-res color mode.
func (m *Machine) SetColorMode(color bool) error {
	if color {
		if err := m.Prefs.SetColorModeColor(); err != nil {
			return err
		}
		m.bus.Read(0xC050)
	} else {
		if err := m.Prefs.SetColorModeMono(); err != nil {
			return err
		}
		m.bus.Read(0xC051)
	}
	return nil
}

// SetSoundEnabled persists and applies the speaker enable flag.
func (m *Machine) SetSoundEnabled(enabled bool) error {
	if err := m.Prefs.SoundEnabled.Set(enabled); err != nil {
		return err
	}
	m.sound.SetEnabled(enabled)
	return nil
}

// SetTapeSoundEnabled persists and applies the speaker click played on each
// edge of the tape signal.
func (m *Machine) SetTapeSoundEnabled(enabled bool) error {
	if err := m.Prefs.TapeSoundEnabled.Set(enabled); err != nil {
		return err
	}
	m.tape.SetSound(enabled)
	return nil
}

// SetCACycles persists and applies the tape leader length. It affects tapes
// inserted after this call, not a tape already loaded.
func (m *Machine) SetCACycles(cycles int) error {
	if err := m.Prefs.TapeCACycles.Set(cycles); err != nil {
		return err
	}
	m.tape.SetCACycles(cycles)
	return nil
}

// InsertTape loads r as a .ct2 image, ready for Tape().Play().
func (m *Machine) InsertTape(r io.Reader) error {
	return m.tape.InsertTape(r)
}
