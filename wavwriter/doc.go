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

// Package wavwriter allows writing of audio data to disk as a WAV file. Note
// that in the default build audio data is buffered in memory in its entirety,
// and written to disk only when Close() is called. It is therefore probably
// only suitable for testing and debugging purposes, not for long unattended
// runs.
//
// Two WavWriter implementations exist behind the same New/Write/Close
// surface: the default build encodes with the dependency-light
// github.com/youpy/go-wav writer; building with the "richwav" tag switches
// to github.com/go-audio/wav's streaming encoder instead.
package wavwriter

// SampleFreq is the sample rate that WavWriter encodes at. It is the rate the
// sound device resamples its 1-bit speaker toggle to before handing samples
// to a Sink.
const SampleFreq = 16000
