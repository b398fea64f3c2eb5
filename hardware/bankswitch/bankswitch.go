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

// Package bankswitch implements the softswitch that selects whether RAM or
// ROM is mapped into the 0xC100-0xFFFF window.
package bankswitch

import (
	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/logger"
)

// Addresses that trigger a bank switch. The machine also attaches BankSW
// across the mirror range 0xC080-0xC08B, but only these two addresses switch
// banks; an access to any other attached address does nothing.
const (
	BankROM uint16 = 0xC05A
	BankRAM uint16 = 0xC05B
)

// probeAddr is read to determine whether a cartridge is occupying
// 0xC100-0xC1FF: if the device mapped there is the bank we're switching away
// from, no cartridge is present and the whole 0xC100-0xFFFF window is
// remapped; otherwise only 0xC200-0xFFFF is touched.
const probeAddr uint16 = 0xC101

// Mode is the currently selected memory bank.
type Mode int

const (
	ModeROM Mode = iota
	ModeRAM
)

// BankSW is the softswitch device itself. Any access – read or write – to
// one of its addresses triggers a switch; the value written is ignored.
type BankSW struct {
	bus  *bus.Bus
	ram  bus.Device
	rom  bus.Device
	mode Mode
}

// NewBankSW is the preferred method of initialisation for the BankSW type.
// The bank starts selected to ROM, matching power-on/reset behavior.
func NewBankSW(b *bus.Bus, ram, rom bus.Device) *BankSW {
	return &BankSW{
		bus:  b,
		ram:  ram,
		rom:  rom,
		mode: ModeROM,
	}
}

// Mode returns the currently selected bank.
func (s *BankSW) Mode() Mode {
	return s.mode
}

// Read triggers the same switch a write would and returns 0xFF.
func (s *BankSW) Read(addr uint16) uint8 {
	s.Write(addr, 0)
	return 0xFF
}

// Write switches the active bank according to addr. Switching to the bank
// that is already active is a no-op.
func (s *BankSW) Write(addr uint16, value uint8) {
	switch addr {
	case BankROM:
		if s.mode == ModeROM {
			return
		}
		s.mode = ModeROM
		logger.Log(logger.Allow, "bankswitch", "switching to ROM")
		s.remap(s.ram, s.rom)

	case BankRAM:
		if s.mode == ModeRAM {
			return
		}
		s.mode = ModeRAM
		logger.Log(logger.Allow, "bankswitch", "switching to RAM")
		s.remap(s.rom, s.ram)
	}
}

// remap installs target over the 0xC100-0xFFFF window, narrowing to
// 0xC200-0xFFFF if a cartridge is detected occupying 0xC100-0xC1FF (the
// probe address is not currently mapped to the bank being switched away
// from).
func (s *BankSW) remap(other, target bus.Device) {
	if s.cartridgePresent(other) {
		s.bus.Attach(0xC200, 0xFFFF, target, bus.Replace)
		return
	}
	s.bus.Attach(0xC100, 0xFFFF, target, bus.Replace)
}

func (s *BankSW) cartridgePresent(other bus.Device) bool {
	devs := s.bus.DevicesAt(probeAddr)
	if len(devs) != 1 {
		return true
	}
	return devs[0] != other
}
