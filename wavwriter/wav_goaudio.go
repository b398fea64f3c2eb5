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

//go:build richwav

package wavwriter

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gvelo/tk2000/curated"
	"github.com/gvelo/tk2000/logger"
)

// bitDepth is the sample width WavWriter encodes at; the sound device hands
// it 8-bit samples already widened to int.
const bitDepth = 8

// pcmFormat is the WAV "audio format" tag for uncompressed PCM.
const pcmFormat = 1

// WavWriter implements the sound package's Sink interface, streaming 8-bit
// PCM samples straight to a mono WAV file through a go-audio/wav encoder.
// This build uses the "richwav" tag; the default build uses the
// dependency-light github.com/youpy/go-wav encoder instead.
type WavWriter struct {
	filename string
	file     *os.File
	enc      *wav.Encoder
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string) (*WavWriter, error) {
	if filename == "" {
		return nil, curated.Errorf("wavwriter: empty filename")
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, curated.Errorf("wavwriter: %v", err)
	}

	enc := wav.NewEncoder(f, SampleFreq, bitDepth, 1, pcmFormat)

	logger.Logf(logger.Allow, "wavwriter", "writing audio to %s", filename)

	return &WavWriter{filename: filename, file: f, enc: enc}, nil
}

// Write implements the sound package's Sink interface, encoding buf's
// samples immediately.
func (aw *WavWriter) Write(buf *audio.IntBuffer) error {
	if err := aw.enc.Write(buf); err != nil {
		return curated.Errorf("wavwriter: %v", err)
	}
	return nil
}

// Close finalises the WAV header and closes the underlying file.
func (aw *WavWriter) Close() (rerr error) {
	if err := aw.enc.Close(); err != nil {
		rerr = curated.Errorf("wavwriter: %v", err)
	}
	if err := aw.file.Close(); err != nil && rerr == nil {
		rerr = curated.Errorf("wavwriter: %v", err)
	}
	return rerr
}
