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

package video_test

import (
	"testing"

	"github.com/gvelo/tk2000/hardware/bus"
	"github.com/gvelo/tk2000/hardware/ram"
	"github.com/gvelo/tk2000/hardware/video"
)

func setup() (*bus.Bus, *video.Video) {
	b := bus.NewBus()
	r := ram.NewRAM(nil)
	b.Attach(0x0000, 0xBFFF, r, bus.Add)

	v := video.NewVideo(b)
	b.Attach(0xC050, 0xC055, v, bus.Add)

	return b, v
}

func TestFramebufferDimensionsMatchHostContract(t *testing.T) {
	_, v := setup()

	if video.ScreenWidth != 560 || video.ScreenHeight != 384 {
		t.Fatalf("ScreenWidth x ScreenHeight = %dx%d, want 560x384", video.ScreenWidth, video.ScreenHeight)
	}

	v.Refresh()

	fb := v.Framebuffer()
	if got, want := len(fb), video.ScreenWidth*video.ScreenHeight; got != want {
		t.Errorf("len(Framebuffer()) = %d, want %d (%dx%d)", got, want, video.ScreenWidth, video.ScreenHeight)
	}
}

func TestSwitchesSelectModeAndPage(t *testing.T) {
	b, v := setup()

	b.Read(0xC050)
	if v.ColorMode() != video.ModeColor {
		t.Errorf("expected COLOR mode after reading 0xC050")
	}

	b.Read(0xC051)
	if v.ColorMode() != video.ModeMono {
		t.Errorf("expected MONO mode after reading 0xC051")
	}

	b.Write(0xA000, 0x3C) // page 2 white, page 1 stays zero
	b.Read(0xC055)
	v.Refresh()
	if got := v.Framebuffer()[0]; got != 0xFFFFFF {
		t.Errorf("pixel 0 = %#06x, want white from page 2 after reading 0xC055", got)
	}

	b.Read(0xC054)
	v.Refresh()
	if got := v.Framebuffer()[0]; got != 0x000000 {
		t.Errorf("pixel 0 = %#06x, want black from page 1 after reading 0xC054", got)
	}

	if got := b.Read(0xC050); got != 0xFF {
		t.Errorf("got %#02x, want 0xFF from softswitch read", got)
	}
}

func TestMonoRenderIsBlackAndWhiteOnly(t *testing.T) {
	b, v := setup()
	b.Read(0xC051) // MONO
	b.Read(0xC054) // page 1 at 0x2000

	b.Write(0x2000, 0x3C) // bits 2-5 set: all 4 mono pixels should be white

	v.Refresh()

	fb := v.Framebuffer()
	for px := 0; px < 4; px++ {
		if fb[px] != 0xFFFFFF {
			t.Errorf("pixel %d = %#06x, want white", px, fb[px])
		}
	}
}

func TestMonoZeroByteIsBlack(t *testing.T) {
	b, v := setup()
	b.Read(0xC051)
	b.Read(0xC054)

	b.Write(0x2000, 0x00)

	v.Refresh()

	fb := v.Framebuffer()
	for px := 0; px < 4; px++ {
		if fb[px] != 0x000000 {
			t.Errorf("pixel %d = %#06x, want black", px, fb[px])
		}
	}
}

func TestColorZeroByteIsBlack(t *testing.T) {
	b, v := setup()
	b.Read(0xC050) // COLOR
	b.Read(0xC054) // page 1 at 0x2000

	b.Write(0x2000, 0x00)

	v.Refresh()

	fb := v.Framebuffer()
	for px := 0; px < 4; px++ {
		if fb[px] != 0x000000 {
			t.Errorf("pixel %d = %#06x, want black", px, fb[px])
		}
	}
}

func TestColor0x7FByteIsWhite(t *testing.T) {
	b, v := setup()
	b.Read(0xC050) // COLOR
	b.Read(0xC054) // page 1 at 0x2000

	b.Write(0x2000, 0x7F)

	v.Refresh()

	fb := v.Framebuffer()
	for px := 0; px < 4; px++ {
		if fb[px] != 0xFFFFFF {
			t.Errorf("pixel %d = %#06x, want white", px, fb[px])
		}
	}
}

func TestColorAlternatingPatternDecodesToViolet(t *testing.T) {
	b, v := setup()
	b.Read(0xC050) // COLOR
	b.Read(0xC054) // page 1 at 0x2000

	for col := uint16(0); col < video.BytesPerLine; col++ {
		value := uint8(0x55)
		if col%2 != 0 {
			value = 0x2A
		}
		b.Write(0x2000+col, value)
	}

	v.Refresh()

	fb := v.Framebuffer()
	// colorPalette[1] (violet) = 0xDD0033.
	if fb[0] != 0xDD0033 {
		t.Errorf("first pixel of alternating 0x55/0x2A pattern = %#06x, want violet (0xDD0033)", fb[0])
	}
}

func TestPowerOnFillPaintsBothPages(t *testing.T) {
	b, _ := setup()
	video.PowerOnFill(b)

	if got := b.Read(0x2000); got != 0xFF {
		t.Errorf("page 1 byte = %#02x, want 0xFF", got)
	}
	if got := b.Read(0x3FFF); got != 0xFF {
		t.Errorf("page 1 last byte = %#02x, want 0xFF", got)
	}
	if got := b.Read(0xA000); got != 0xFF {
		t.Errorf("page 2 byte = %#02x, want 0xFF", got)
	}
	if got := b.Read(0xBFFF); got != 0xFF {
		t.Errorf("page 2 last byte = %#02x, want 0xFF", got)
	}
}
