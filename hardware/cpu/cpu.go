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

// Package cpu implements a 6502/65C02 interpreter: the MOS 6502 instruction
// set plus the handful of 65C02 additions TK2000 ROM software relies on
// (BRA, STZ, PHX/PLX/PHY/PLY, INA/DEA, BIT #imm / BIT abs,X / BIT zp,X,
// TRB/TSB, the (zp) addressing mode, and JMP (abs,X)). Page-crossing cycle
// penalties are not modeled.
package cpu

import (
	"sync"
	"time"

	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/logger"
)

// Flag bits of the P register.
const (
	FlagC uint8 = 1 << 0
	FlagZ uint8 = 1 << 1
	FlagI uint8 = 1 << 2
	FlagD uint8 = 1 << 3
	FlagB uint8 = 1 << 4
	// bit 5 is unused and always reads as 1.
	FlagV uint8 = 1 << 6
	FlagN uint8 = 1 << 7
)

// Pending hardware signals, checked once per instruction before fetch.
const (
	sigReset uint8 = 1 << 0
	sigNMI   uint8 = 1 << 1
	sigIRQ   uint8 = 1 << 2
)

// batchCycles and batchBudget throttle free-running execution to a nominal
// 1MHz: every batchCycles simulated cycles, the run loop measures elapsed
// wall time and sleeps out the remainder of batchBudget.
const (
	batchCycles = 100000
	batchBudget = 100 * time.Millisecond
)

// CPU is a single 6502/65C02 core wired to a system bus.
type CPU struct {
	mu sync.Mutex

	bus *bus.Bus

	a, x, y, s uint8
	pc         uint16
	p          uint8

	clock uint64

	exceptionRegister uint8
	pendingIRQ        int

	// nz and result are fast shadow condition codes. Most opcodes leave the
	// real N/Z/C bits of p stale; they are reconciled from the shadows only
	// when something needs to observe or push the real P register (BRK,
	// PHP, NMI, IRQ), and restored into the shadows on the way back (PLP,
	// RTI, reset).
	nz     int
	result int

	bcdAdd [512]int
	bcdSub [512]int
}

// NewCPU is the preferred method of initialisation for the CPU type. The
// core starts with all registers zeroed; call AssertReset and step it once
// to load PC from the reset vector the way real hardware does.
func NewCPU(b *bus.Bus) *CPU {
	c := &CPU{bus: b}
	for i := 0; i < 512; i++ {
		add := i
		if add&0x0f > 0x09 {
			add += 0x06
		}
		if add&0xf0 > 0x90 {
			add += 0x60
		}
		if add > 0x1ff {
			add -= 0x100
		}
		c.bcdAdd[i] = add

		sub := i
		if sub&0x0f > 0x09 {
			sub -= 0x06
		}
		if sub&0xf0 > 0x90 {
			sub -= 0x60
		}
		c.bcdSub[i] = sub
	}
	return c
}

// GetClock implements the Clock interface consumed by the tape and sound
// devices, letting them resample their own state against CPU time.
func (c *CPU) GetClock() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// A, X, Y, S, PC and P return a snapshot of the register file. Safe to call
// from any goroutine.
func (c *CPU) A() uint8   { c.mu.Lock(); defer c.mu.Unlock(); return c.a }
func (c *CPU) X() uint8   { c.mu.Lock(); defer c.mu.Unlock(); return c.x }
func (c *CPU) Y() uint8   { c.mu.Lock(); defer c.mu.Unlock(); return c.y }
func (c *CPU) S() uint8   { c.mu.Lock(); defer c.mu.Unlock(); return c.s }
func (c *CPU) PC() uint16 { c.mu.Lock(); defer c.mu.Unlock(); return c.pc }
func (c *CPU) P() uint8   { c.mu.Lock(); defer c.mu.Unlock(); c.syncFlagsToP(); return c.p }

// SetPC forces the program counter, bypassing the reset vector. Intended for
// test fixtures and debugger "run from here" commands.
func (c *CPU) SetPC(pc uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pc = pc
}

// AssertReset, AssertNMI and AssertIRQ raise the corresponding signal.
// Signals are latched and consumed by the next call to ExecuteInstruction.
func (c *CPU) AssertReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exceptionRegister |= sigReset
}

func (c *CPU) AssertNMI() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exceptionRegister |= sigNMI
}

func (c *CPU) AssertIRQ() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exceptionRegister |= sigIRQ
}

func (c *CPU) setFlag(mask uint8, on bool) {
	if on {
		c.p |= mask
	} else {
		c.p &^= mask
	}
}

func (c *CPU) flag(mask uint8) bool { return c.p&mask != 0 }

func (c *CPU) getFN() bool    { return c.nz&0x280 != 0 }
func (c *CPU) getFNotN() bool { return c.nz&0x280 == 0 }
func (c *CPU) getFZ() bool    { return c.nz&0xff == 0 }
func (c *CPU) getFNotZ() bool { return c.nz&0xff != 0 }
func (c *CPU) setFNZ(n, z bool) {
	c.nz = 0
	if n {
		c.nz = 0x200
	}
	if !z {
		c.nz |= 0x01
	}
}

func (c *CPU) getFC() bool    { return c.result>>8 != 0 }
func (c *CPU) getFNotC() bool { return c.result>>8 == 0 }
func (c *CPU) getFC_() int    { return c.result >> 8 }
func (c *CPU) setFC(v bool) {
	c.result = 0
	if v {
		c.result = 0x100
	}
}

// syncFlagsToP commits the fast N/Z/C shadows into the real P register,
// ahead of anything that observes or pushes P.
func (c *CPU) syncFlagsToP() {
	c.setFlag(FlagN, c.getFN())
	c.setFlag(FlagZ, c.getFZ())
	c.setFlag(FlagC, c.getFC())
}

// syncFlagsFromP loads the fast shadows from a freshly restored P register.
func (c *CPU) syncFlagsFromP() {
	c.setFC(c.flag(FlagC))
	c.setFNZ(c.flag(FlagN), c.flag(FlagZ))
}

func (c *CPU) adcBCDAdjust() {
	if c.flag(FlagD) {
		c.result = c.bcdAdd[c.result]
	}
}

func (c *CPU) sbcBCDAdjust() {
	if c.flag(FlagD) {
		c.result = c.bcdSub[c.result]
	}
}

func (c *CPU) push(v uint8) {
	c.bus.Write(0x100|uint16(c.s), v)
	c.s--
}

func (c *CPU) pop() uint8 {
	c.s++
	return c.bus.Read(0x100 | uint16(c.s))
}

func (c *CPU) branch(offset int8) {
	c.pc = uint16(int32(c.pc) + int32(offset))
	c.clock++
}

// Addressing modes. Each advances pc past its own operand bytes and returns
// either the fetched value (immediate) or the computed effective address.
// Zero-page-indirect low/high bytes wrap within the zero page, preserving
// the classic 6502 page-zero wraparound.

func (c *CPU) eaimm() uint16 {
	v := uint16(c.bus.Read(c.pc))
	c.pc++
	return v
}

func (c *CPU) eazp() uint16 {
	v := uint16(c.bus.Read(c.pc))
	c.pc++
	return v
}

func (c *CPU) eazpx() uint16 {
	v := c.bus.Read(c.pc) + c.x
	c.pc++
	return uint16(v)
}

func (c *CPU) eazpy() uint16 {
	v := c.bus.Read(c.pc) + c.y
	c.pc++
	return uint16(v)
}

func (c *CPU) eaabs() uint16 {
	lo := uint16(c.bus.Read(c.pc))
	c.pc++
	hi := uint16(c.bus.Read(c.pc))
	c.pc++
	return lo | hi<<8
}

func (c *CPU) earel() int8 {
	v := int8(c.bus.Read(c.pc))
	c.pc++
	return v
}

func (c *CPU) eaabsx() uint16 { return c.eaabs() + uint16(c.x) }
func (c *CPU) eaabsy() uint16 { return c.eaabs() + uint16(c.y) }

func (c *CPU) eaabsind() uint16 {
	addr := c.eaabs()
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return lo | hi<<8
}

func (c *CPU) eazpxind() uint16 {
	zp := c.eazpx()
	lo := uint16(c.bus.Read(zp))
	hi := uint16(c.bus.Read((zp + 1) & 0xff))
	return lo | hi<<8
}

func (c *CPU) eazpindy() uint16 {
	zp := c.eaimm()
	lo := uint16(c.bus.Read(zp))
	hi := uint16(c.bus.Read((zp + 1) & 0xff))
	return (lo | hi<<8) + uint16(c.y)
}

// eazpind is the 65C02 (zp) addressing mode.
func (c *CPU) eazpind() uint16 {
	zp := c.eazp()
	lo := uint16(c.bus.Read(zp))
	hi := uint16(c.bus.Read((zp + 1) & 0xff))
	return lo | hi<<8
}

// eaabsxind is the 65C02 (abs,X) addressing mode, used only by JMP.
func (c *CPU) eaabsxind() uint16 {
	addr := c.eaabs()
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return (lo | hi<<8) + uint16(c.x)
}

// checkInterrupts services latched RESET/NMI/IRQ signals, called once per
// instruction ahead of fetch. An IRQ that arrives while I is set is not
// dropped: it increments pendingIRQ and is replayed once CLI or PLP clears
// I.
func (c *CPU) checkInterrupts() {
	if c.exceptionRegister&sigReset != 0 {
		logger.Log(logger.Allow, "cpu", "reset")
		c.a, c.x, c.y = 0, 0, 0
		c.p = 0x20
		c.syncFlagsFromP()
		c.s = 0xff
		c.pc = uint16(c.bus.Read(0xfffc)) | uint16(c.bus.Read(0xfffd))<<8
		c.exceptionRegister &^= sigReset
	}

	if c.exceptionRegister&sigNMI != 0 {
		c.push(uint8(c.pc >> 8))
		c.push(uint8(c.pc))
		c.syncFlagsToP()
		c.push(c.p)
		c.pc = uint16(c.bus.Read(0xfffa)) | uint16(c.bus.Read(0xfffb))<<8
		c.clock += 7
		c.exceptionRegister &^= sigNMI
	}

	if c.exceptionRegister&sigIRQ != 0 {
		if c.flag(FlagI) {
			c.pendingIRQ++
		} else {
			c.push(uint8(c.pc >> 8))
			c.push(uint8(c.pc))
			c.syncFlagsToP()
			c.setFlag(FlagB, false)
			c.push(c.p)
			c.setFlag(FlagI, true)
			c.pc = uint16(c.bus.Read(0xfffe)) | uint16(c.bus.Read(0xffff))<<8
			c.clock += 7
		}
		c.exceptionRegister &^= sigIRQ
	}
}

func (c *CPU) replayPendingIRQ() {
	if c.pendingIRQ > 0 && !c.flag(FlagI) {
		c.pendingIRQ--
		c.exceptionRegister |= sigIRQ
	}
}

// ExecuteInstruction services pending interrupts, then fetches and runs a
// single instruction, advancing clock by its textbook cycle count (plus one
// for a taken branch; page-crossing penalties are never charged).
func (c *CPU) ExecuteInstruction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step()
}

func (c *CPU) step() {
	c.checkInterrupts()

	opcode := c.bus.Read(c.pc)
	c.pc++

	switch opcode {

	// ADC
	case 0x69: // ADC #imm
		operand := int(c.eaimm())
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 2
	case 0x6D: // ADC abs
		operand := int(c.bus.Read(c.eaabs()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0x65: // ADC zp
		operand := int(c.bus.Read(c.eazp()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 3
	case 0x61: // ADC (zp,X)
		operand := int(c.bus.Read(c.eazpxind()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 6
	case 0x71: // ADC (zp),Y
		operand := int(c.bus.Read(c.eazpindy()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 5
	case 0x75: // ADC zp,X
		operand := int(c.bus.Read(c.eazpx()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0x7D: // ADC abs,X
		operand := int(c.bus.Read(c.eaabsx()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0x79: // ADC abs,Y
		operand := int(c.bus.Read(c.eaabsy()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0x72: // ADC (zp) [65C02]
		operand := int(c.bus.Read(c.eazpind()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.adcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 5

	// AND
	case 0x29: // AND #imm
		c.a &= uint8(c.eaimm())
		c.nz = int(c.a)
		c.clock += 2
	case 0x2D: // AND abs
		c.a &= c.bus.Read(c.eaabs())
		c.nz = int(c.a)
		c.clock += 4
	case 0x25: // AND zp
		c.a &= c.bus.Read(c.eazp())
		c.nz = int(c.a)
		c.clock += 3
	case 0x21: // AND (zp,X)
		c.a &= c.bus.Read(c.eazpxind())
		c.nz = int(c.a)
		c.clock += 6
	case 0x31: // AND (zp),Y
		c.a &= c.bus.Read(c.eazpindy())
		c.nz = int(c.a)
		c.clock += 5
	case 0x35: // AND zp,X
		c.a &= c.bus.Read(c.eazpx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x3D: // AND abs,X
		c.a &= c.bus.Read(c.eaabsx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x39: // AND abs,Y
		c.a &= c.bus.Read(c.eaabsy())
		c.nz = int(c.a)
		c.clock += 4
	case 0x32: // AND (zp) [65C02]
		c.a &= c.bus.Read(c.eazpind())
		c.nz = int(c.a)
		c.clock += 5

	// ASL
	case 0x0E: // ASL abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.result = operand << 1
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x06: // ASL zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.result = operand << 1
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 5
	case 0x0A: // ASL acc
		c.result = int(c.a) << 1
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 2
	case 0x16: // ASL zp,X
		addr := c.eazpx()
		operand := int(c.bus.Read(addr))
		c.result = operand << 1
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x1E: // ASL abs,X
		addr := c.eaabsx()
		operand := int(c.bus.Read(addr))
		c.result = operand << 1
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 7

	// Branches
	case 0x90: // BCC
		operand := c.earel()
		c.clock += 2
		if c.getFNotC() {
			c.branch(operand)
		}
	case 0xB0: // BCS
		operand := c.earel()
		c.clock += 2
		if c.getFC() {
			c.branch(operand)
		}
	case 0xF0: // BEQ
		operand := c.earel()
		c.clock += 2
		if c.getFZ() {
			c.branch(operand)
		}
	case 0x30: // BMI
		operand := c.earel()
		c.clock += 2
		if c.getFN() {
			c.branch(operand)
		}
	case 0xD0: // BNE
		operand := c.earel()
		c.clock += 2
		if c.getFNotZ() {
			c.branch(operand)
		}
	case 0x10: // BPL
		operand := c.earel()
		c.clock += 2
		if c.getFNotN() {
			c.branch(operand)
		}
	case 0x50: // BVC
		operand := c.earel()
		c.clock += 2
		if !c.flag(FlagV) {
			c.branch(operand)
		}
	case 0x70: // BVS
		operand := c.earel()
		c.clock += 2
		if c.flag(FlagV) {
			c.branch(operand)
		}
	case 0x80: // BRA [65C02]
		operand := c.earel()
		c.clock += 2
		c.branch(operand)

	// BIT. The abs,X variant deliberately reads its V/N/Z inputs from the
	// raw effective address rather than the byte stored there.
	case 0x2C: // BIT abs
		operand := int(c.bus.Read(c.eaabs()))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.clock += 4
	case 0x24: // BIT zp
		operand := int(c.bus.Read(c.eazp()))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.clock += 3
	case 0x34: // BIT zp,X [65C02]
		operand := int(c.bus.Read(c.eazpx()))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.clock += 4
	case 0x89: // BIT #imm [65C02]
		operand := int(c.eaimm())
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.clock += 2
	case 0x3C: // BIT abs,X [65C02] — address, not loaded byte; preserved quirk
		operand := int(c.eaabsx())
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.clock += 4

	case 0x00: // BRK
		c.push(uint8(c.pc >> 8))
		c.push(uint8(c.pc))
		c.syncFlagsToP()
		c.setFlag(FlagB, true)
		c.push(c.p)
		c.setFlag(FlagI, true)
		c.pc = uint16(c.bus.Read(0xfffe)) | uint16(c.bus.Read(0xffff))<<8
		c.clock += 7

	case 0x18: // CLC
		c.setFC(false)
		c.clock += 2
	case 0xD8: // CLD
		c.setFlag(FlagD, false)
		c.clock += 2
	case 0x58: // CLI
		c.setFlag(FlagI, false)
		c.clock += 2
		c.replayPendingIRQ()
	case 0xB8: // CLV
		c.setFlag(FlagV, false)
		c.clock += 2

	// CMP/CPX/CPY
	case 0xC9: // CMP #imm
		c.result = 0x100 + int(c.a) - int(c.eaimm())
		c.nz = c.result
		c.clock += 2
	case 0xCD: // CMP abs
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eaabs()))
		c.nz = c.result
		c.clock += 4
	case 0xC5: // CMP zp
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eazp()))
		c.nz = c.result
		c.clock += 3
	case 0xC1: // CMP (zp,X)
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eazpxind()))
		c.nz = c.result
		c.clock += 6
	case 0xD1: // CMP (zp),Y
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eazpindy()))
		c.nz = c.result
		c.clock += 5
	case 0xD5: // CMP zp,X
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eazpx()))
		c.nz = c.result
		c.clock += 4
	case 0xDD: // CMP abs,X
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eaabsx()))
		c.nz = c.result
		c.clock += 4
	case 0xD9: // CMP abs,Y
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eaabsy()))
		c.nz = c.result
		c.clock += 4
	case 0xD2: // CMP (zp) [65C02]
		c.result = 0x100 + int(c.a) - int(c.bus.Read(c.eazpind()))
		c.nz = c.result
		c.clock += 5
	case 0xE0: // CPX #imm
		c.result = 0x100 + int(c.x) - int(c.eaimm())
		c.nz = c.result
		c.clock += 2
	case 0xEC: // CPX abs
		c.result = 0x100 + int(c.x) - int(c.bus.Read(c.eaabs()))
		c.nz = c.result
		c.clock += 4
	case 0xE4: // CPX zp
		c.result = 0x100 + int(c.x) - int(c.bus.Read(c.eazp()))
		c.nz = c.result
		c.clock += 3
	case 0xC0: // CPY #imm
		c.result = 0x100 + int(c.y) - int(c.eaimm())
		c.nz = c.result
		c.clock += 2
	case 0xCC: // CPY abs
		c.result = 0x100 + int(c.y) - int(c.bus.Read(c.eaabs()))
		c.nz = c.result
		c.clock += 4
	case 0xC4: // CPY zp
		c.result = 0x100 + int(c.y) - int(c.bus.Read(c.eazp()))
		c.nz = c.result
		c.clock += 3

	// DEC/INC
	case 0xCE: // DEC abs
		addr := c.eaabs()
		c.nz = int(c.bus.Read(addr)) + 0xff
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0xC6: // DEC zp
		addr := c.eazp()
		c.nz = int(c.bus.Read(addr)) + 0xff
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 5
	case 0xD6: // DEC zp,X
		addr := c.eazpx()
		c.nz = int(c.bus.Read(addr)) + 0xff
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0xDE: // DEC abs,X
		addr := c.eaabsx()
		c.nz = int(c.bus.Read(addr)) + 0xff
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 7
	case 0xCA: // DEX
		c.nz = int(c.x) + 0xff
		c.x = uint8(c.nz)
		c.clock += 2
	case 0x88: // DEY
		c.nz = int(c.y) + 0xff
		c.y = uint8(c.nz)
		c.clock += 2
	case 0x3A: // DEA/DEC acc [65C02]
		c.nz = int(c.a) + 0xff
		c.a = uint8(c.nz)
		c.clock += 2
	case 0xEE: // INC abs
		addr := c.eaabs()
		c.nz = int(c.bus.Read(addr)) + 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0xE6: // INC zp
		addr := c.eazp()
		c.nz = int(c.bus.Read(addr)) + 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 5
	case 0xF6: // INC zp,X
		addr := c.eazpx()
		c.nz = int(c.bus.Read(addr)) + 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0xFE: // INC abs,X
		addr := c.eaabsx()
		c.nz = int(c.bus.Read(addr)) + 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 7
	case 0xE8: // INX
		c.nz = int(c.x) + 1
		c.x = uint8(c.nz)
		c.clock += 2
	case 0xC8: // INY
		c.nz = int(c.y) + 1
		c.y = uint8(c.nz)
		c.clock += 2
	case 0x1A: // INA/INC acc [65C02]
		c.nz = int(c.a) + 1
		c.a = uint8(c.nz)
		c.clock += 2

	// EOR
	case 0x49: // EOR #imm
		c.a ^= uint8(c.eaimm())
		c.nz = int(c.a)
		c.clock += 2
	case 0x4D: // EOR abs
		c.a ^= c.bus.Read(c.eaabs())
		c.nz = int(c.a)
		c.clock += 4
	case 0x45: // EOR zp
		c.a ^= c.bus.Read(c.eazp())
		c.nz = int(c.a)
		c.clock += 3
	case 0x41: // EOR (zp,X)
		c.a ^= c.bus.Read(c.eazpxind())
		c.nz = int(c.a)
		c.clock += 6
	case 0x51: // EOR (zp),Y
		c.a ^= c.bus.Read(c.eazpindy())
		c.nz = int(c.a)
		c.clock += 5
	case 0x55: // EOR zp,X
		c.a ^= c.bus.Read(c.eazpx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x5D: // EOR abs,X
		c.a ^= c.bus.Read(c.eaabsx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x59: // EOR abs,Y
		c.a ^= c.bus.Read(c.eaabsy())
		c.nz = int(c.a)
		c.clock += 4
	case 0x52: // EOR (zp) [65C02]
		c.a ^= c.bus.Read(c.eazpind())
		c.nz = int(c.a)
		c.clock += 5

	// JMP/JSR
	case 0x4C: // JMP abs
		c.pc = c.eaabs()
		c.clock += 3
	case 0x6C: // JMP (abs)
		c.pc = c.eaabsind()
		c.clock += 5
	case 0x7C: // JMP (abs,X) [65C02]
		c.pc = c.eaabsxind()
		c.clock += 6
	case 0x20: // JSR abs
		target := c.eaabs()
		ret := c.pc - 1
		c.push(uint8(ret >> 8))
		c.push(uint8(ret))
		c.pc = target
		c.clock += 6

	// LDA/LDX/LDY
	case 0xA9: // LDA #imm
		c.a = uint8(c.eaimm())
		c.nz = int(c.a)
		c.clock += 2
	case 0xAD: // LDA abs
		c.a = c.bus.Read(c.eaabs())
		c.nz = int(c.a)
		c.clock += 4
	case 0xA5: // LDA zp
		c.a = c.bus.Read(c.eazp())
		c.nz = int(c.a)
		c.clock += 3
	case 0xA1: // LDA (zp,X)
		c.a = c.bus.Read(c.eazpxind())
		c.nz = int(c.a)
		c.clock += 6
	case 0xB1: // LDA (zp),Y
		c.a = c.bus.Read(c.eazpindy())
		c.nz = int(c.a)
		c.clock += 5
	case 0xB5: // LDA zp,X
		c.a = c.bus.Read(c.eazpx())
		c.nz = int(c.a)
		c.clock += 4
	case 0xBD: // LDA abs,X
		c.a = c.bus.Read(c.eaabsx())
		c.nz = int(c.a)
		c.clock += 4
	case 0xB9: // LDA abs,Y
		c.a = c.bus.Read(c.eaabsy())
		c.nz = int(c.a)
		c.clock += 4
	case 0xB2: // LDA (zp) [65C02]
		c.a = c.bus.Read(c.eazpind())
		c.nz = int(c.a)
		c.clock += 5
	case 0xA2: // LDX #imm
		c.x = uint8(c.eaimm())
		c.nz = int(c.x)
		c.clock += 2
	case 0xAE: // LDX abs
		c.x = c.bus.Read(c.eaabs())
		c.nz = int(c.x)
		c.clock += 4
	case 0xA6: // LDX zp
		c.x = c.bus.Read(c.eazp())
		c.nz = int(c.x)
		c.clock += 3
	case 0xBE: // LDX abs,Y
		c.x = c.bus.Read(c.eaabsy())
		c.nz = int(c.x)
		c.clock += 4
	case 0xB6: // LDX zp,Y
		c.x = c.bus.Read(c.eazpy())
		c.nz = int(c.x)
		c.clock += 4
	case 0xA0: // LDY #imm
		c.y = uint8(c.eaimm())
		c.nz = int(c.y)
		c.clock += 2
	case 0xAC: // LDY abs
		c.y = c.bus.Read(c.eaabs())
		c.nz = int(c.y)
		c.clock += 4
	case 0xA4: // LDY zp
		c.y = c.bus.Read(c.eazp())
		c.nz = int(c.y)
		c.clock += 3
	case 0xB4: // LDY zp,X
		c.y = c.bus.Read(c.eazpx())
		c.nz = int(c.y)
		c.clock += 4
	case 0xBC: // LDY abs,X
		c.y = c.bus.Read(c.eaabsx())
		c.nz = int(c.y)
		c.clock += 4

	// LSR
	case 0x4E: // LSR abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.result = (operand & 0x01) << 8
		c.nz = operand >> 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0x46: // LSR zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.result = (operand & 0x01) << 8
		c.nz = operand >> 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 5
	case 0x4A: // LSR acc
		c.result = (int(c.a) & 0x01) << 8
		c.a >>= 1
		c.nz = int(c.a)
		c.clock += 2
	case 0x56: // LSR zp,X
		addr := c.eazpx()
		operand := int(c.bus.Read(addr))
		c.result = (operand & 0x01) << 8
		c.nz = operand >> 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 6
	case 0x5E: // LSR abs,X
		addr := c.eaabsx()
		operand := int(c.bus.Read(addr))
		c.result = (operand & 0x01) << 8
		c.nz = operand >> 1
		c.bus.Write(addr, uint8(c.nz))
		c.clock += 7

	case 0xEA: // NOP
		c.clock += 2

	// ORA
	case 0x09: // ORA #imm
		c.a |= uint8(c.eaimm())
		c.nz = int(c.a)
		c.clock += 2
	case 0x0D: // ORA abs
		c.a |= c.bus.Read(c.eaabs())
		c.nz = int(c.a)
		c.clock += 4
	case 0x05: // ORA zp
		c.a |= c.bus.Read(c.eazp())
		c.nz = int(c.a)
		c.clock += 3
	case 0x01: // ORA (zp,X)
		c.a |= c.bus.Read(c.eazpxind())
		c.nz = int(c.a)
		c.clock += 6
	case 0x11: // ORA (zp),Y
		c.a |= c.bus.Read(c.eazpindy())
		c.nz = int(c.a)
		c.clock += 5
	case 0x15: // ORA zp,X
		c.a |= c.bus.Read(c.eazpx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x1D: // ORA abs,X
		c.a |= c.bus.Read(c.eaabsx())
		c.nz = int(c.a)
		c.clock += 4
	case 0x19: // ORA abs,Y
		c.a |= c.bus.Read(c.eaabsy())
		c.nz = int(c.a)
		c.clock += 4
	case 0x12: // ORA (zp) [65C02]
		c.a |= c.bus.Read(c.eazpind())
		c.nz = int(c.a)
		c.clock += 5

	// Stack
	case 0x48: // PHA
		c.push(c.a)
		c.clock += 3
	case 0x08: // PHP
		c.syncFlagsToP()
		c.push(c.p)
		c.clock += 3
	case 0x68: // PLA
		c.a = c.pop()
		c.nz = int(c.a)
		c.clock += 4
	case 0x28: // PLP
		c.p = c.pop() | 0x20
		c.syncFlagsFromP()
		c.clock += 4
		c.replayPendingIRQ()
	case 0xDA: // PHX [65C02]
		c.push(c.x)
		c.clock += 3
	case 0xFA: // PLX [65C02]
		c.x = c.pop()
		c.nz = int(c.x)
		c.clock += 4
	case 0x5A: // PHY [65C02]
		c.push(c.y)
		c.clock += 3
	case 0x7A: // PLY [65C02]
		c.y = c.pop()
		c.nz = int(c.y)
		c.clock += 4

	// ROL/ROR
	case 0x2E: // ROL abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.result = (operand << 1) | c.getFC_()
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x26: // ROL zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.result = (operand << 1) | c.getFC_()
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 5
	case 0x2A: // ROL acc
		c.result = (int(c.a) << 1) | c.getFC_()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 2
	case 0x36: // ROL zp,X
		addr := c.eazpx()
		operand := int(c.bus.Read(addr))
		c.result = (operand << 1) | c.getFC_()
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x3E: // ROL abs,X
		addr := c.eaabsx()
		operand := int(c.bus.Read(addr))
		c.result = (operand << 1) | c.getFC_()
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 7
	case 0x6E: // ROR abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.result = ((operand & 0x01) << 8) | (c.getFC_() << 7) | (operand >> 1)
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x66: // ROR zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.result = ((operand & 0x01) << 8) | (c.getFC_() << 7) | (operand >> 1)
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 5
	case 0x6A: // ROR acc
		c.result = ((int(c.a) & 0x01) << 8) | (c.getFC_() << 7) | (int(c.a) >> 1)
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 2
	case 0x76: // ROR zp,X
		addr := c.eazpx()
		operand := int(c.bus.Read(addr))
		c.result = ((operand & 0x01) << 8) | (c.getFC_() << 7) | (operand >> 1)
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 6
	case 0x7E: // ROR abs,X
		addr := c.eaabsx()
		operand := int(c.bus.Read(addr))
		c.result = ((operand & 0x01) << 8) | (c.getFC_() << 7) | (operand >> 1)
		c.nz = c.result
		c.bus.Write(addr, uint8(c.result))
		c.clock += 7

	case 0x40: // RTI
		c.p = c.pop() | 0x20
		c.syncFlagsFromP()
		c.pc = uint16(c.pop())
		c.pc |= uint16(c.pop()) << 8
		c.clock += 6
	case 0x60: // RTS
		c.pc = uint16(c.pop())
		c.pc |= uint16(c.pop()) << 8
		c.pc++
		c.clock += 6

	// SBC
	case 0xE9: // SBC #imm
		operand := 255 - int(c.eaimm())
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 2
	case 0xED: // SBC abs
		operand := 255 - int(c.bus.Read(c.eaabs()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0xE5: // SBC zp
		operand := 255 - int(c.bus.Read(c.eazp()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 3
	case 0xE1: // SBC (zp,X)
		operand := 255 - int(c.bus.Read(c.eazpxind()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 6
	case 0xF1: // SBC (zp),Y
		operand := 255 - int(c.bus.Read(c.eazpindy()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 5
	case 0xF5: // SBC zp,X
		operand := 255 - int(c.bus.Read(c.eazpx()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0xFD: // SBC abs,X
		operand := 255 - int(c.bus.Read(c.eaabsx()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0xF9: // SBC abs,Y
		operand := 255 - int(c.bus.Read(c.eaabsy()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 4
	case 0xF2: // SBC (zp) [65C02]
		operand := 255 - int(c.bus.Read(c.eazpind()))
		c.result = operand + int(c.a) + c.getFC_()
		c.setFlag(FlagV, (operand^int(c.a))&0x80 == 0 && (int(c.a)^c.result)&0x80 != 0)
		c.sbcBCDAdjust()
		c.a = uint8(c.result)
		c.nz = int(c.a)
		c.clock += 5

	case 0x38: // SEC
		c.setFC(true)
		c.clock += 2
	case 0xF8: // SED
		c.setFlag(FlagD, true)
		c.clock += 2
	case 0x78: // SEI
		c.setFlag(FlagI, true)
		c.clock += 2

	// STA/STX/STY
	case 0x8D: // STA abs
		c.bus.Write(c.eaabs(), c.a)
		c.clock += 4
	case 0x85: // STA zp
		c.bus.Write(c.eazp(), c.a)
		c.clock += 3
	case 0x81: // STA (zp,X)
		c.bus.Write(c.eazpxind(), c.a)
		c.clock += 6
	case 0x91: // STA (zp),Y
		c.bus.Write(c.eazpindy(), c.a)
		c.clock += 6
	case 0x95: // STA zp,X
		c.bus.Write(c.eazpx(), c.a)
		c.clock += 4
	case 0x9D: // STA abs,X
		c.bus.Write(c.eaabsx(), c.a)
		c.clock += 5
	case 0x99: // STA abs,Y
		c.bus.Write(c.eaabsy(), c.a)
		c.clock += 5
	case 0x92: // STA (zp) [65C02]
		c.bus.Write(c.eazpind(), c.a)
		c.clock += 5
	case 0x8E: // STX abs
		c.bus.Write(c.eaabs(), c.x)
		c.clock += 4
	case 0x86: // STX zp
		c.bus.Write(c.eazp(), c.x)
		c.clock += 3
	case 0x96: // STX zp,Y
		c.bus.Write(c.eazpy(), c.x)
		c.clock += 4
	case 0x8C: // STY abs
		c.bus.Write(c.eaabs(), c.y)
		c.clock += 4
	case 0x84: // STY zp
		c.bus.Write(c.eazp(), c.y)
		c.clock += 3
	case 0x94: // STY zp,X
		c.bus.Write(c.eazpx(), c.y)
		c.clock += 4

	// STZ [65C02]
	case 0x9C: // STZ abs
		c.bus.Write(c.eaabs(), 0)
		c.clock += 4
	case 0x64: // STZ zp
		c.bus.Write(c.eazp(), 0)
		c.clock += 3
	case 0x74: // STZ zp,X
		c.bus.Write(c.eazpx(), 0)
		c.clock += 4
	case 0x9E: // STZ abs,X
		c.bus.Write(c.eaabsx(), 0)
		c.clock += 5

	// Register transfers
	case 0xAA: // TAX
		c.x = c.a
		c.nz = int(c.x)
		c.clock += 2
	case 0xA8: // TAY
		c.y = c.a
		c.nz = int(c.y)
		c.clock += 2
	case 0xBA: // TSX
		c.x = c.s
		c.nz = int(c.x)
		c.clock += 2
	case 0x8A: // TXA
		c.a = c.x
		c.nz = int(c.a)
		c.clock += 2
	case 0x9A: // TXS
		c.s = c.x
		c.clock += 2
	case 0x98: // TYA
		c.a = c.y
		c.nz = int(c.a)
		c.clock += 2

	// TRB/TSB [65C02]
	case 0x1C: // TRB abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.bus.Write(addr, uint8(operand&^int(c.a)))
		c.clock += 6
	case 0x14: // TRB zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.bus.Write(addr, uint8(operand&^int(c.a)))
		c.clock += 5
	case 0x0C: // TSB abs
		addr := c.eaabs()
		operand := int(c.bus.Read(addr))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.bus.Write(addr, uint8(operand|int(c.a)))
		c.clock += 6
	case 0x04: // TSB zp
		addr := c.eazp()
		operand := int(c.bus.Read(addr))
		c.setFlag(FlagV, operand&0x40 != 0)
		c.nz = ((operand & 0x80) << 2) | (int(c.a) & operand)
		c.bus.Write(addr, uint8(operand|int(c.a)))
		c.clock += 5

	default:
		logger.Logf(logger.Allow, "cpu", "unknown opcode %#02x at %#04x", opcode, c.pc-1)
		c.clock += 2
	}
}

// Run executes instructions until stop is closed, throttling to a nominal
// 1MHz by sleeping out the remainder of every batchBudget window after each
// batchCycles-cycle burst. The sleep is cancellable: closing stop wakes it
// immediately.
func (c *CPU) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		batchStart := c.GetClock()
		started := time.Now()

		for c.GetClock()-batchStart < batchCycles {
			select {
			case <-stop:
				return
			default:
			}
			c.ExecuteInstruction()
		}

		delay := batchBudget - time.Since(started)
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-stop:
			timer.Stop()
			return
		}
	}
}
