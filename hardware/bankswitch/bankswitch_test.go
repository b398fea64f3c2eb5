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

package bankswitch_test

import (
	"testing"

	"github.com/gvelo/tk2000/hardware/bankswitch"
	"github.com/gvelo/tk2000/hardware/bus"
)

type fakeMem struct {
	mem map[uint16]uint8
}

func newFakeMem() *fakeMem {
	return &fakeMem{mem: make(map[uint16]uint8)}
}

func (f *fakeMem) Read(addr uint16) uint8 {
	return f.mem[addr]
}

func (f *fakeMem) Write(addr uint16, value uint8) {
	f.mem[addr] = value
}

func setup() (*bus.Bus, *fakeMem, *fakeMem, *bankswitch.BankSW) {
	b := bus.NewBus()
	ram := newFakeMem()
	rom := newFakeMem()
	rom.mem[0xD000] = 0x77

	b.Attach(0xC100, 0xFFFF, rom, bus.Replace)

	sw := bankswitch.NewBankSW(b, ram, rom)
	b.Attach(bankswitch.BankROM, bankswitch.BankROM, sw, bus.Replace)
	b.Attach(bankswitch.BankRAM, bankswitch.BankRAM, sw, bus.Replace)

	return b, ram, rom, sw
}

func TestStartsOnROM(t *testing.T) {
	_, _, _, sw := setup()
	if sw.Mode() != bankswitch.ModeROM {
		t.Errorf("expected initial mode to be ROM")
	}
}

func TestSwitchToRAMAndBack(t *testing.T) {
	b, ram, rom, sw := setup()

	b.Read(bankswitch.BankRAM)
	if sw.Mode() != bankswitch.ModeRAM {
		t.Fatalf("expected mode RAM after switch")
	}

	b.Write(0xD000, 0xDE)
	if ram.mem[0xD000] != 0xDE {
		t.Errorf("expected write to land in RAM after switching")
	}

	b.Read(bankswitch.BankROM)
	if sw.Mode() != bankswitch.ModeROM {
		t.Fatalf("expected mode ROM after switch back")
	}
	if got := b.Read(0xD000); got != rom.mem[0xD000] {
		t.Errorf("expected to read ROM content after switching back, got %#02x", got)
	}
}

func TestNoopWhenAlreadySelected(t *testing.T) {
	b, _, _, sw := setup()
	b.Read(bankswitch.BankROM)
	if sw.Mode() != bankswitch.ModeROM {
		t.Errorf("expected mode to remain ROM")
	}
}
