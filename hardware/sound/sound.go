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

// Package sound implements the 1-bit speaker toggle circuit mapped at
// 0xC030-0xC03F: every access flips the line and resamples the elapsed CPU
// cycles into a run of constant-amplitude 8-bit PCM samples.
package sound

import (
	"sync"

	"github.com/go-audio/audio"
	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/logger"
)

// SampleRate is the fixed rate, in Hz, that the toggle line is resampled to.
const SampleRate = 16000

// tickSeconds is the duration of a single simulated CPU cycle, assuming a
// nominal 1MHz clock.
const tickSeconds = 1.0 / 1000000.0

// maxSamples is the internal buffer size. A toggle that would need more
// samples than this produces none at all, guarding against a huge write
// after a long silent gap (for example, just after power-on).
const maxSamples = SampleRate

// onAmplitude is the 8-bit PCM sample value written while the line is high.
const onAmplitude = 120

// Clock is the CPU cycle counter the toggle line is resampled against.
type Clock interface {
	GetClock() uint64
}

// Sink is the host-supplied destination for the generated PCM stream: a live
// audio device, a WAV file, or a test double.
type Sink interface {
	Write(buf *audio.IntBuffer) error
}

// Sound is the speaker toggle device.
type Sound struct {
	mu sync.Mutex

	clock Clock
	sink  Sink

	format *audio.Format

	lastCycle uint64
	armed     bool
	on        bool
	enabled   bool

	lastErr error
}

// NewSound is the preferred method of initialisation for the Sound type.
// sink may be nil, in which case the device is a no-op and IsAvailable
// reports false.
func NewSound(clock Clock, sink Sink) *Sound {
	s := &Sound{
		clock:   clock,
		sink:    sink,
		enabled: true,
		format: &audio.Format{
			NumChannels: 1,
			SampleRate:  SampleRate,
		},
	}
	if sink == nil {
		s.lastErr = errNoSink
	}
	return s
}

var errNoSink = curated.Errorf("sound: no audio sink available")

// IsAvailable reports whether a working sink is attached.
func (s *Sound) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr == nil
}

// LastError returns the most recent sink error, or nil.
func (s *Sound) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetEnabled mutes or unmutes the device without tearing down the sink.
func (s *Sound) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Read toggles the line and returns 0xFF, matching the hardware's
// floating-bus behaviour on this port.
func (s *Sound) Read(addr uint16) uint8 {
	s.toggle()
	return 0xFF
}

// Write toggles the line. The value written is ignored.
func (s *Sound) Write(addr uint16, value uint8) {
	s.toggle()
}

func (s *Sound) toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink == nil || !s.enabled {
		return
	}

	now := s.clock.GetClock()

	if !s.armed {
		s.armed = true
		s.lastCycle = now
		s.on = true
		return
	}

	duration := now - s.lastCycle
	s.lastCycle = now

	amplitude := 0
	if s.on {
		amplitude = onAmplitude
	}

	samples := int(float64(duration) * tickSeconds * SampleRate)
	if samples > maxSamples {
		samples = 0
	}

	if samples > 0 {
		data := make([]int, samples)
		for i := range data {
			data[i] = amplitude
		}

		buf := &audio.IntBuffer{
			Format:         s.format,
			Data:           data,
			SourceBitDepth: 8,
		}

		if err := s.sink.Write(buf); err != nil {
			if s.lastErr == nil {
				logger.Logf(logger.Allow, "sound", "audio sink unavailable: %v", err)
			}
			s.lastErr = err
		}
	}

	s.on = !s.on
}
