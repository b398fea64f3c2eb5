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

// Package bus implements the machine's 64KiB address-mapped I/O bus. Every
// device the machine wires up (RAM, ROM, the keyboard matrix, the tape
// player, the speaker, the video softswitches) is attached to a range of
// addresses on a Bus; the CPU never talks to a device directly.
package bus

// Device is anything that can be mapped onto the bus.
type Device interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Peeker is an optional interface a Device can implement to support Peek –
// reading a value without triggering the side effects a normal Read would
// have (advancing a tape playhead, toggling the speaker, and so on). Devices
// that don't implement it are peeked by calling Read, which is the best a
// debugger-style accessor can do against a device with no side-effect-free
// path.
type Peeker interface {
	Peek(addr uint16) uint8
}

// AttachMode controls how Attach behaves when a device is already mapped in
// the requested range.
type AttachMode int

const (
	// Add appends the device to the range, building a wired-OR read / fan-out
	// write cell alongside whatever is already there.
	Add AttachMode = iota

	// Replace discards any device already mapped in the range before
	// attaching the new one.
	Replace
)

// Bus is a 64KiB address space; each address maps to zero, one, or several
// devices.
type Bus struct {
	table [0x10000][]Device
}

// NewBus is the preferred method of initialisation for the Bus type.
func NewBus() *Bus {
	return &Bus{}
}

// Attach maps dev onto every address in [low, high], inclusive, according to
// mode.
func (b *Bus) Attach(low, high uint16, dev Device, mode AttachMode) {
	// the loop is inclusive on both ends and addr is 16-bit, so guard the
	// upper bound explicitly rather than relying on wraparound
	for addr := uint32(low); addr <= uint32(high); addr++ {
		a := uint16(addr)
		switch mode {
		case Replace:
			b.table[a] = []Device{dev}
		default:
			b.table[a] = append(b.table[a], dev)
		}
	}
}

// DevicesAt returns the devices currently mapped at addr, in attachment
// order. The returned slice must not be modified.
func (b *Bus) DevicesAt(addr uint16) []Device {
	return b.table[addr]
}

// Read dispatches a read to whatever is mapped at addr. An unmapped address
// reads as 0xFF (open-bus convention). Multiple devices mapped to the same
// address are combined with a bitwise OR, modelling a wired-OR bus.
func (b *Bus) Read(addr uint16) uint8 {
	devs := b.table[addr]
	switch len(devs) {
	case 0:
		return 0xFF
	case 1:
		return devs[0].Read(addr)
	}

	var result uint8
	for _, d := range devs {
		result |= d.Read(addr)
	}
	return result
}

// Write dispatches a write to every device mapped at addr. An unmapped
// address is a no-op.
func (b *Bus) Write(addr uint16, value uint8) {
	for _, d := range b.table[addr] {
		d.Write(addr, value)
	}
}

// Peek reads the value at addr without the side effects a Read would
// normally trigger, for devices that implement Peeker. Devices that don't
// implement Peeker are read normally – Peek can't promise side-effect
// freedom against a device that never offered it.
func (b *Bus) Peek(addr uint16) uint8 {
	devs := b.table[addr]
	switch len(devs) {
	case 0:
		return 0xFF
	case 1:
		if p, ok := devs[0].(Peeker); ok {
			return p.Peek(addr)
		}
		return devs[0].Read(addr)
	}

	var result uint8
	for _, d := range devs {
		if p, ok := d.(Peeker); ok {
			result |= p.Peek(addr)
		} else {
			result |= d.Read(addr)
		}
	}
	return result
}
