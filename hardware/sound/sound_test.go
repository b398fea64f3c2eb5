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

package sound_test

import (
	"testing"

	"github.com/go-audio/audio"
	"github.com/gvelo/tk2000/hardware/sound"
)

type fakeClock struct {
	t uint64
}

func (c *fakeClock) GetClock() uint64 { return c.t }

type fakeSink struct {
	writes [][]int
}

func (s *fakeSink) Write(buf *audio.IntBuffer) error {
	cp := make([]int, len(buf.Data))
	copy(cp, buf.Data)
	s.writes = append(s.writes, cp)
	return nil
}

func TestFirstToggleArmsWithoutWriting(t *testing.T) {
	clock := &fakeClock{t: 100}
	sink := &fakeSink{}
	snd := sound.NewSound(clock, sink)

	snd.Read(0xC030)

	if len(sink.writes) != 0 {
		t.Errorf("expected no write on the arming toggle, got %d", len(sink.writes))
	}
}

func TestToggleWritesConstantAmplitudeRun(t *testing.T) {
	clock := &fakeClock{t: 0}
	sink := &fakeSink{}
	snd := sound.NewSound(clock, sink)

	snd.Read(0xC030) // arms at clock 0

	clock.t = 100 // 100 cycles = 100us = 1.6 samples at 16kHz
	snd.Read(0xC030)

	if len(sink.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(sink.writes))
	}
	for _, v := range sink.writes[0] {
		if v != 120 {
			t.Errorf("got sample %d, want 120 (line was high)", v)
		}
	}
}

func TestClampDropsOversizedWrite(t *testing.T) {
	clock := &fakeClock{t: 0}
	sink := &fakeSink{}
	snd := sound.NewSound(clock, sink)

	snd.Read(0xC030) // arms at clock 0

	clock.t = 2_000_000 // far more than 16000 samples worth
	snd.Read(0xC030)

	if len(sink.writes) != 0 {
		t.Errorf("expected oversized write to be clamped to silence, got %d writes", len(sink.writes))
	}
}

func TestDisabledDeviceDoesNotWrite(t *testing.T) {
	clock := &fakeClock{t: 0}
	sink := &fakeSink{}
	snd := sound.NewSound(clock, sink)
	snd.SetEnabled(false)

	snd.Read(0xC030)
	clock.t = 100
	snd.Read(0xC030)

	if len(sink.writes) != 0 {
		t.Errorf("expected disabled device to never write, got %d writes", len(sink.writes))
	}
}

func TestNoSinkIsUnavailable(t *testing.T) {
	snd := sound.NewSound(&fakeClock{}, nil)
	if snd.IsAvailable() {
		t.Errorf("expected device with no sink to report unavailable")
	}
	if snd.LastError() == nil {
		t.Errorf("expected a non-nil error when no sink is attached")
	}
}
