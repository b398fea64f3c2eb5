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

//go:build !richwav

package wavwriter

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/logger"
	"github.com/youpy/go-wav"
)

// WavWriter implements the sound package's Sink interface, accumulating 8-bit
// PCM samples and writing them out as a mono WAV file on Close. This build
// uses the dependency-light github.com/youpy/go-wav encoder; build with the
// "richwav" tag for the github.com/go-audio/wav-backed alternative.
type WavWriter struct {
	filename string
	buffer   []wav.Sample
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string) (*WavWriter, error) {
	if filename == "" {
		return nil, curated.Errorf("wavwriter: empty filename")
	}
	return &WavWriter{
		filename: filename,
		buffer:   make([]wav.Sample, 0),
	}, nil
}

// Write implements the sound package's Sink interface, appending buf's
// samples to the accumulated stream. Only the first channel is consulted;
// buf is expected to be mono.
func (aw *WavWriter) Write(buf *audio.IntBuffer) error {
	for _, v := range buf.Data {
		w := wav.Sample{}
		w.Values[0] = v
		w.Values[1] = v
		aw.buffer = append(aw.buffer, w)
	}
	return nil
}

// Close flushes the accumulated samples to the WAV file named at
// construction.
func (aw *WavWriter) Close() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf("wavwriter: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			rerr = curated.Errorf("wavwriter: %v", err)
		}
	}()

	enc := wav.NewWriter(f, uint32(len(aw.buffer)), 1, uint32(SampleFreq), 8)
	if enc == nil {
		return curated.Errorf("wavwriter: bad parameters for wav encoding")
	}

	logger.Logf(logger.Allow, "wavwriter", "writing audio to %s", aw.filename)

	return enc.WriteSamples(aw.buffer)
}
