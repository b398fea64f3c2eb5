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

// Package tape implements the cassette deck: parsing of .ct2 tape images into
// a half-wave cycle-duration buffer, and the CASOUT/CASIN softswitch state
// machine that plays that buffer back against the CPU clock.
package tape

import (
	"bufio"
	"io"
	"sync"

	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/logger"
)

// ErrBadImage is the curated.Is pattern returned when a .ct2 image is
// malformed or truncated.
const ErrBadImage = "tape: bad image: %v"

// ChunkType identifies the kind of block found in a .ct2 image.
type ChunkType int

const (
	// CA is the long leader tone at the start of a program.
	CA ChunkType = iota
	// CB is the short sync tone that precedes the data block.
	CB
	// DA is the data block itself.
	DA
)

// Chunk is a single block of a parsed .ct2 image. Data is nil for CA and CB.
type Chunk struct {
	Type ChunkType
	Data []byte
}

// CACycles is the number of leader half-cycle pairs emitted for a CA chunk.
const CACycles = 500

// CBCycles is the number of sync half-cycle pairs emitted for a CB chunk,
// not counting the leading and trailing pair.
const CBCycles = 32

// Clock is the CPU cycle counter the tape plays back against.
type Clock interface {
	GetClock() uint64
}

// ReadImage parses a .ct2 image into its constituent chunks.
//
// The format is a 4 byte magic header followed by a sequence of 4 byte chunk
// headers. The first two bytes of a chunk header identify it as "CA", "CB"
// or "DA"; for a "DA" header the remaining two bytes are a little-endian
// length, followed by that many bytes of data. A header with any other tag is
// logged and skipped.
func ReadImage(r io.Reader) ([]Chunk, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, curated.Errorf(ErrBadImage, err)
	}

	var chunks []Chunk

	header := make([]byte, 4)
	for {
		_, err := io.ReadFull(br, header)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, curated.Errorf(ErrBadImage, err)
		}

		switch string(header[0:2]) {
		case "CA":
			chunks = append(chunks, Chunk{Type: CA})
		case "CB":
			chunks = append(chunks, Chunk{Type: CB})
		case "DA":
			length := int(header[2]) | int(header[3])<<8
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, curated.Errorf(ErrBadImage, err)
			}
			chunks = append(chunks, Chunk{Type: DA, Data: data})
		default:
			logger.Logf(logger.Allow, "tape", "ignoring unrecognised chunk header %q", header[0:2])
		}
	}

	return chunks, nil
}

// BuildWaveBuffer expands chunks into a flat sequence of half-cycle
// durations, expressed in CPU cycles. A "1" data bit is a 500/500 cycle
// pair, a "0" bit is 250/250, each byte read MSB first. caCycles is the
// number of leader half-cycle pairs emitted for a CA chunk; pass CACycles
// for the stock value.
func BuildWaveBuffer(chunks []Chunk, caCycles int) []int {
	size := 0
	for _, c := range chunks {
		switch c.Type {
		case CA:
			size += caCycles * 2
		case CB:
			size += CBCycles*2 + 4
		case DA:
			size += len(c.Data) * 16
		}
	}

	buf := make([]int, 0, size)

	for _, c := range chunks {
		switch c.Type {
		case CA:
			for i := 0; i < caCycles; i++ {
				buf = append(buf, 502, 502)
			}

		case CB:
			buf = append(buf, 464, 679)
			for i := 0; i < CBCycles; i++ {
				buf = append(buf, 679, 679)
			}
			buf = append(buf, 199, 250)

		case DA:
			for _, b := range c.Data {
				for bit := 7; bit >= 0; bit-- {
					if b&(1<<uint(bit)) != 0 {
						buf = append(buf, 500, 500)
					} else {
						buf = append(buf, 250, 250)
					}
				}
			}
		}
	}

	return buf
}

// Tape is the cassette deck device, mapped at 0xC010 (CASIN) and 0xC020
// (CASOUT passthrough to the speaker).
type Tape struct {
	mu sync.Mutex

	bus   *bus.Bus
	clock Clock

	waveBuffer []int
	halfCycle  int

	startCpuCycle uint64
	cyclesNeeded  int
	casout        uint8
	active        bool

	sound    bool
	play     bool
	caCycles int
}

// NewTape is the preferred method of initialisation for the Tape type.
func NewTape(b *bus.Bus, clock Clock) *Tape {
	return &Tape{
		bus:      b,
		clock:    clock,
		sound:    true,
		caCycles: CACycles,
	}
}

// SetCACycles overrides the number of leader half-cycle pairs emitted for a
// CA chunk on the next InsertTape. It has no effect on a tape already
// loaded.
func (t *Tape) SetCACycles(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.caCycles = n
}

// InsertTape parses r as a .ct2 image and loads it ready for Play. Any tape
// already playing is stopped.
func (t *Tape) InsertTape(r io.Reader) error {
	t.Stop()

	chunks, err := ReadImage(r)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.waveBuffer = BuildWaveBuffer(chunks, t.caCycles)
	t.mu.Unlock()

	logger.Logf(logger.Allow, "tape", "inserted tape: %d half-cycles", len(t.waveBuffer))

	return nil
}

// Play starts playback of the currently inserted tape from the beginning.
func (t *Tape) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.halfCycle = 0
	t.play = true
}

// Stop halts playback. The tape position is not rewound.
func (t *Tape) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.play = false
}

// SetSound mutes or unmutes the speaker click played on each edge of the tape
// signal while playing.
func (t *Tape) SetSound(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sound = on
}

// Read services the CASIN (0xC010) and CASOUT passthrough (0xC020) ports.
func (t *Tape) Read(addr uint16) uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if addr == 0xC020 {
		t.bus.Read(0xC030)
		return 0
	}

	if !t.play || addr != 0xC010 {
		return 0
	}

	if !t.active {
		t.active = true
		t.startCpuCycle = t.clock.GetClock()
		t.casout = 0x80
		t.cyclesNeeded = t.waveBuffer[t.halfCycle]
		if t.sound {
			t.bus.Read(0xC030)
		}
	}

	elapsed := t.clock.GetClock() - t.startCpuCycle

	if elapsed > uint64(t.cyclesNeeded) {
		if t.sound {
			t.bus.Read(0xC030)
		}

		t.startCpuCycle = t.clock.GetClock()

		if t.casout == 0 {
			t.casout = 0x80
		} else {
			t.casout = 0
		}

		t.halfCycle++

		if t.halfCycle < len(t.waveBuffer) {
			t.cyclesNeeded = t.waveBuffer[t.halfCycle]
		} else {
			t.play = false
		}
	}

	return t.casout
}

// Write is a no-op: the cassette ports are read-only from the CPU's side.
func (t *Tape) Write(addr uint16, value uint8) {}
