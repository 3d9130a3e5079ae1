package ppu

import (
	"testing"

	"github.com/cerrion/gobound/internal/interrupt"
)

func newPPU() (*PPU, *interrupt.Controller) {
	irq := interrupt.New()
	irq.WriteIE(0x1F)
	irq.WriteIF(0)
	p := New(irq)
	p.Reset()
	return p, irq
}

// writeTile writes an 8x8 tile's bitplane data at 0x8000-relative tileIndex.
func writeTile(p *PPU, tileIndex byte, rows [8][2]byte) {
	base := uint16(tileIndex) * 16
	for r, pair := range rows {
		p.vram[base+uint16(r)*2] = pair[0]
		p.vram[base+uint16(r)*2+1] = pair[1]
	}
}

func tickN(p *PPU, n int) {
	for i := 0; i < n; i++ {
		p.Tick()
	}
}

func TestModeSequenceAcrossOneLine(t *testing.T) {
	p, _ := newPPU()
	p.lcdc = lcdcEnable
	if p.mode() != OAMScan {
		// first Tick call performs the dot==0 setup
	}
	p.Tick()
	if p.mode() != OAMScan {
		t.Fatalf("expected OAMScan at line start, got %v", p.mode())
	}
	tickN(p, oamScanDots-1)
	if p.mode() != OAMScan {
		t.Fatalf("expected still OAMScan just before dot 80")
	}
	p.Tick() // dot 80: enters PixelTransfer
	if p.mode() != PixelTransfer {
		t.Fatalf("expected PixelTransfer at dot 80, got %v", p.mode())
	}
}

func TestFullFrameReachesVBlank(t *testing.T) {
	p, irq := newPPU()
	p.lcdc = lcdcEnable
	for i := 0; i < dotsPerLine*visibleLines; i++ {
		p.Tick()
	}
	if p.mode() != VBlank {
		t.Fatalf("expected VBlank after 144 lines, got %v mode, ly=%d", p.mode(), p.ly)
	}
	if irq.ReadIF()&0x01 == 0 {
		t.Fatalf("expected VBlank interrupt requested")
	}
}

func TestFrameWrapsAt154Lines(t *testing.T) {
	p, _ := newPPU()
	p.lcdc = lcdcEnable
	for i := 0; i < dotsPerLine*totalLines; i++ {
		p.Tick()
	}
	if p.ly != 0 {
		t.Fatalf("expected LY to wrap to 0 after 154 lines, got %d", p.ly)
	}
	if p.mode() != OAMScan {
		t.Fatalf("expected OAMScan at the start of the new frame, got %v", p.mode())
	}
}

func TestBGTileRenderingWithPalette(t *testing.T) {
	p, _ := newPPU()
	p.lcdc = lcdcEnable | lcdcBGWinPriority | lcdcTileDataSel
	p.bgp = 0xE4 // identity: 0->0,1->1,2->2,3->3
	// Tile 0: color index 1 across all 8 pixels of row 0 (lo=0xFF, hi=0x00 -> ci=1 per pixel)
	writeTile(p, 0, [8][2]byte{{0xFF, 0x00}, {}, {}, {}, {}, {}, {}, {}})
	// Map entry at 0x9800 selects tile 0 for the whole first row/col.
	p.vram[0x9800-0x8000] = 0

	tickN(p, dotsPerLine) // render one full line
	// Pixel (0,0) should use color index 1 through BGP=0xE4 -> shade (0xE4>>2)&3 = 1
	want := decodePalette(0xE4)[1]
	gotShade := colorIndexFromFramebuffer(p, 0, 0)
	if gotShade != want {
		t.Fatalf("pixel(0,0) shade = %d, want %d", gotShade, want)
	}
}

// colorIndexFromFramebuffer reverse-looks-up which of the 4 curated shades
// was plotted, for assertion purposes.
func colorIndexFromFramebuffer(p *PPU, x, y int) byte {
	i := (y*screenW + x) * 4
	c := uint32(p.framebuffer[i+0]) | uint32(p.framebuffer[i+1])<<8 | uint32(p.framebuffer[i+2])<<16 | uint32(p.framebuffer[i+3])<<24
	for shade, col := range CompatPaletteColors[p.paletteID] {
		if col == c {
			return byte(shade)
		}
	}
	return 0xFF
}

func TestLYCCoincidenceInterruptFiresOnRisingEdge(t *testing.T) {
	p, irq := newPPU()
	p.lcdc = lcdcEnable
	p.lyc = 2
	p.stat |= 1 << 6 // enable LYC STAT source
	for i := 0; i < dotsPerLine*2; i++ {
		p.Tick()
	}
	if irq.ReadIF()&0x02 == 0 {
		t.Fatalf("expected STAT interrupt when LY reached LYC")
	}
}

func TestHBlankHoldsAfterPixelTransferAndVBlankLinesStayVBlank(t *testing.T) {
	p, _ := newPPU()
	p.lcdc = lcdcEnable

	// lineX reaches screenW well before dot 456 on an otherwise empty
	// background; once it does, mode should read HBlank for the rest of
	// the line rather than still showing PixelTransfer.
	tickN(p, dotsPerLine-1)
	if p.mode() != HBlank {
		t.Fatalf("expected HBlank to hold before the line-456 wraparound, got %v", p.mode())
	}

	// Every line from 145-153 is VBlank; endLine must not stomp it back to
	// HBlank on those lines.
	tickN(p, dotsPerLine) // finish line 0, land mid-line-1
	for ly := 1; ly < visibleLines; ly++ {
		tickN(p, dotsPerLine)
	}
	for ly := visibleLines; ly < totalLines; ly++ {
		if p.mode() != VBlank {
			t.Fatalf("line %d: expected VBlank to hold, got %v", ly, p.mode())
		}
		tickN(p, dotsPerLine)
	}
}

func TestVRAMBlockedDuringPixelTransfer(t *testing.T) {
	p, _ := newPPU()
	p.lcdc = lcdcEnable
	p.CPUWrite(0x8000, 0x11)
	tickN(p, oamScanDots+1) // now in PixelTransfer
	if p.CPURead(0x8000) != 0xFF {
		t.Fatalf("expected VRAM read to return 0xFF during PixelTransfer")
	}
	p.CPUWrite(0x8000, 0x22) // should be ignored
	tickN(p, dotsPerLine-(oamScanDots+1))
	if p.CPURead(0x8000) != 0x11 {
		t.Fatalf("write during PixelTransfer should have been dropped")
	}
}
