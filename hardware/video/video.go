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

// Package video implements the hi-res raster: the 0xC050-0xC055 softswitches,
// the Apple II-style hi-res raster and its NTSC artifact-color pixel
// pipeline, and the 560x384 framebuffer the host renders from.
package video

import (
	"sync"

	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/logger"
)

// ColorMode selects whether the rasterizer blends artifact colors or renders
// pure black/white.
type ColorMode int

const (
	ModeMono ColorMode = iota
	ModeColor
)

// Hi-res page base addresses, selected by the 0xC054/0xC055 softswitches.
const (
	Page1Base uint16 = 0x2000
	Page2Base uint16 = 0xA000
)

// HiresPageSize is the size, in bytes, of a single hi-res page.
const HiresPageSize = 0x2000

// BytesPerLine is the number of bytes making up one scanline of a text row's
// top band.
const BytesPerLine = 40

// columnsPerByte is the number of output pixels produced per source byte:
// bits 2-5 of the byte each drive one pixel, bits 0, 1 and 6 are absorbed by
// the rolling PP/NN context of the neighboring bytes.
const columnsPerByte = 4

// nativeWidth and nativeHeight are the dimensions of the raster as the
// artifact-color pipeline computes it: one 4-pixel block per source byte,
// one scanline per raster row.
const (
	nativeWidth  = BytesPerLine * columnsPerByte
	nativeHeight = 24 * 8
)

// ScreenWidth and ScreenHeight are the dimensions of the framebuffer
// Framebuffer returns: the nativeWidth x nativeHeight raster nearest-neighbor
// scaled up to the 560x384 image a real TK2000 II displays (a clean x2 in
// height, for scanline doubling; a 3.5x stretch in width, from the
// 160-pixel native raster, so each source byte covers 14 output pixels).
const (
	ScreenWidth  = 560
	ScreenHeight = nativeHeight * 2
)

// textLineAddress maps a text row (0-23) to the byte offset, relative to the
// page base, of the first byte of that row's top scanline.
var textLineAddress = [24]uint16{
	0x0000, 0x0080, 0x0100, 0x0180, 0x0200, 0x0280, 0x0300, 0x0380,
	0x0028, 0x00A8, 0x0128, 0x01A8, 0x0228, 0x02A8, 0x0328, 0x03A8,
	0x0050, 0x00D0, 0x0150, 0x01D0, 0x0250, 0x02D0, 0x0350, 0x03D0,
}

// monoPalette is the green-phosphor approximation used in ModeMono.
var monoPalette = [16]uint32{
	0x000000, 0x0E470E, 0x041204, 0x166E16,
	0x0F4A0F, 0x115411, 0x0C3B0C, 0x1F9E1F,
	0x125C12, 0x1B8A1B, 0x22AB22, 0x24B524,
	0x1A871A, 0x2DE32D, 0x25BD25, 0xFFFFFF,
}

// colorPalette is the 16-entry artifact-color palette used in ModeColor.
var colorPalette = [16]uint32{
	0x000000, 0xDD0033, 0x000099, 0xDD22DD,
	0x007722, 0x555555, 0x2222FF, 0x66AAFF,
	0x885500, 0xFF6600, 0xAAAAAA, 0xFF9988,
	0x11DD00, 0xFFFF00, 0x44FF99, 0xFFFFFF,
}

// Palette indices used by the artifact-color blend rule below.
const (
	palBlack  = 0
	palViolet = 1
	palBlue   = 6
	palOrange = 9
	palGreen  = 12
	palWhite  = 15
)

// artifactLookup[paletteBit][index] expands an 8-bit [NN cccc PP] key into a
// 4-nibble word, one nibble (palette index 0-15) per output pixel. Built
// once at package init.
var artifactLookup [2][256]uint16

func init() {
	for paletteBit := 0; paletteBit < 2; paletteBit++ {
		for idx := 0; idx < 256; idx++ {
			artifactLookup[paletteBit][idx] = buildArtifactWord(idx, paletteBit == 1)
		}
	}
}

// buildArtifactWord computes the 4-nibble artifact-color word for one
// [NN cccc PP] index. A lit column with a lit adjacent column (taken from
// PP/NN at the edges, or from cccc's own bits in the middle) bleeds to
// white; otherwise a lit column's hue depends on its position
// parity and the byte's palette bit, matching the classic even/odd Apple II
// hi-res color rule.
func buildArtifactWord(idx int, paletteBit bool) uint16 {
	pp := idx & 0x3
	cccc := (idx >> 2) & 0xF
	nn := (idx >> 6) & 0x3

	var word uint16
	for li := 0; li < 4; li++ {
		bit := (cccc >> li) & 1

		var leftLit, rightLit int
		if li == 0 {
			leftLit = (pp >> 1) & 1
		} else {
			leftLit = (cccc >> (li - 1)) & 1
		}
		if li == 3 {
			rightLit = nn & 1
		} else {
			rightLit = (cccc >> (li + 1)) & 1
		}

		pixel := palBlack
		if bit == 1 {
			switch {
			case leftLit == 1 || rightLit == 1:
				pixel = palWhite
			case li%2 == 0:
				if paletteBit {
					pixel = palBlue
				} else {
					pixel = palViolet
				}
			default:
				if paletteBit {
					pixel = palOrange
				} else {
					pixel = palGreen
				}
			}
		}

		word |= uint16(pixel) << uint(4*li)
	}

	return word
}

// monoWord computes the 4-nibble black/white word for one byte in ModeMono:
// each of bits 2-5 independently selects black (bit clear) or white (bit
// set) for its output pixel, with no cross-byte blending.
func monoWord(value uint8) uint16 {
	var word uint16
	if value&0x04 != 0 {
		word |= 0x000f
	}
	if value&0x08 != 0 {
		word |= 0x00f0
	}
	if value&0x10 != 0 {
		word |= 0x0f00
	}
	if value&0x20 != 0 {
		word |= 0xf000
	}
	return word
}

// Video is the hi-res rasterizer device, mapped at 0xC050-0xC055.
type Video struct {
	mu sync.Mutex

	bus *bus.Bus

	colorMode ColorMode
	baseAddr  uint16

	native      []uint32
	framebuffer []uint32
}

// NewVideo is the preferred method of initialisation for the Video type.
// The framebuffer starts zeroed; call PowerOnFill to reproduce the
// cold-boot white-stripe pattern.
func NewVideo(b *bus.Bus) *Video {
	return &Video{
		bus:         b,
		baseAddr:    Page1Base,
		colorMode:   ModeMono,
		native:      make([]uint32, nativeWidth*nativeHeight),
		framebuffer: make([]uint32, ScreenWidth*ScreenHeight),
	}
}

// PowerOnFill paints both hi-res pages with 0xFF, reproducing the cosmetic
// pattern seen on real hardware before any program has drawn to the screen.
// It covers the full 8KiB of each page.
func PowerOnFill(b *bus.Bus) {
	for _, base := range []uint16{Page1Base, Page2Base} {
		for off := 0; off < HiresPageSize; off++ {
			b.Write(base+uint16(off), 0xFF)
		}
	}
}

// ColorMode returns the currently selected color mode.
func (v *Video) ColorMode() ColorMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.colorMode
}

// Framebuffer returns the rendered framebuffer as packed 0x00RRGGBB values,
// row-major, ScreenWidth x ScreenHeight (560x384, per scaleToFramebuffer).
// The returned slice is shared with the renderer and should be treated as
// read-only by callers.
func (v *Video) Framebuffer() []uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.framebuffer
}

// Read services the 0xC050-0xC055 softswitches. Every address shares the
// same effect whether read or written, and always returns 0xFF.
func (v *Video) Read(addr uint16) uint8 {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch addr {
	case 0xC050:
		v.colorMode = ModeColor
	case 0xC051:
		v.colorMode = ModeMono
	case 0xC054:
		v.baseAddr = Page1Base
	case 0xC055:
		v.baseAddr = Page2Base
	default:
		logger.Logf(logger.Allow, "video", "unknown softswitch %#04x", addr)
	}

	return 0xFF
}

// Write has the same effect as Read.
func (v *Video) Write(addr uint16, value uint8) {
	v.Read(addr)
}

// Refresh walks the full 24 text-row x 8 scanline raster, rendering it into
// the native raster from the currently selected hi-res page, then scales the
// result into the exported framebuffer. It is intended to be called
// periodically (nominally 10Hz) by the host's refresh loop.
func (v *Video) Refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()

	palette := &monoPalette
	if v.colorMode == ModeColor {
		palette = &colorPalette
	}

	for row := 0; row < 24; row++ {
		rowBase := v.baseAddr + textLineAddress[row]

		for scanline := 0; scanline < 8; scanline++ {
			lineBase := rowBase + uint16(scanline)*0x400
			v.renderScanline(lineBase, row*8+scanline, palette)
		}
	}

	v.scaleToFramebuffer()
}

// scaleToFramebuffer upsamples the native raster into the exported
// ScreenWidth x ScreenHeight framebuffer by nearest-neighbor resampling:
// x2 vertically (an exact ratio, reproducing scanline doubling) and by
// ScreenWidth/nativeWidth (3.5x) horizontally, bringing the 160-pixel native
// raster to the 560-wide size a real TK2000 II displays.
func (v *Video) scaleToFramebuffer() {
	for y := 0; y < ScreenHeight; y++ {
		srcY := y * nativeHeight / ScreenHeight
		srcRow := srcY * nativeWidth
		destRow := y * ScreenWidth

		for x := 0; x < ScreenWidth; x++ {
			srcX := x * nativeWidth / ScreenWidth
			v.framebuffer[destRow+x] = v.native[srcRow+srcX]
		}
	}
}

func (v *Video) renderScanline(lineBase uint16, screenY int, palette *[16]uint32) {
	var prev, cur, next uint8

	for col := 0; col < BytesPerLine; col++ {
		cur = v.bus.Read(lineBase + uint16(col))

		if col+1 < BytesPerLine {
			next = v.bus.Read(lineBase + uint16(col+1))
		} else {
			next = 0
		}

		paletteBit := cur&0x80 != 0

		var word uint16
		if v.colorMode == ModeColor {
			pp := (uint16(prev) >> 5) & 0x3
			nn := uint16(next) & 0x3
			cccc := (uint16(cur) >> 2) & 0xF
			idx := (nn << 6) | (cccc << 2) | pp

			bit := 0
			if paletteBit {
				bit = 1
			}
			word = artifactLookup[bit][idx]
		} else {
			word = monoWord(cur)
		}

		destX := col * columnsPerByte
		for px := 0; px < columnsPerByte; px++ {
			pixel := (word >> uint(4*px)) & 0xF
			v.native[screenY*nativeWidth+destX+px] = palette[pixel]
		}

		prev = cur
	}
}
