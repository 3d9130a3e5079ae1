// Package ppu models the DMG picture processing unit: LCDC/STAT/scroll/
// palette registers, the OAM/pixel-transfer/hblank/vblank mode machine
// clocked per dot, a real background/window pixel-fetcher submachine
// feeding a pixel FIFO, and sprite scan/mixing into a 160x144 ARGB
// framebuffer.
package ppu

import "github.com/cerrion/gobound/internal/interrupt"

const (
	dotsPerLine    = 456
	oamScanDots    = 80
	visibleLines   = 144
	totalLines     = 154
	screenW, screenH = 160, 144
)

// PPU owns VRAM/OAM, the LCD registers, the mode machine, and the
// framebuffer it renders into.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc, stat       byte
	scy, scx         byte
	ly, lyc          byte
	bgp, obp0, obp1  byte
	wy, wx           byte

	dot int // 0..455 within the current line

	fetcher     bgFetcher
	bgFifo      pixelFIFO
	lineSprites []oamEntry
	spriteLine  [screenW + 8]pixel
	spriteHas   [screenW + 8]bool

	lineX             int
	discardLeft       int
	windowTriggered   bool // window has started on this line
	windowLineCounter int  // increments once per line the window actually drew

	frame uint64 // completed-frame counter, incremented on VBlank entry

	paletteID int // CompatPalette index used when rendering DMG output

	framebuffer [screenW * screenH * 4]byte

	irq *interrupt.Controller
}

// New constructs a PPU wired to the shared interrupt controller.
func New(irq *interrupt.Controller) *PPU {
	p := &PPU{irq: irq}
	p.lineSprites = make([]oamEntry, 0, maxSpritesPerLine)
	return p
}

// Reset returns the PPU to its post-boot-ROM register state.
func (p *PPU) Reset() {
	*p = PPU{irq: p.irq, paletteID: p.paletteID}
	p.lineSprites = make([]oamEntry, 0, maxSpritesPerLine)
	p.lcdc = 0x91
	p.bgp = 0xFC
	p.stat = 0x85
}

// SetCompatPalette selects which curated DMG palette CompatPalette produced
// for this cartridge is used when compositing the framebuffer.
func (p *PPU) SetCompatPalette(id int) {
	if id >= 0 && id < len(CompatPaletteColors) {
		p.paletteID = id
	}
}

// Framebuffer returns the most recently completed frame as packed ARGB
// bytes (B,G,R,A order to match typical little-endian ARGB32 consumers).
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

// FrameCount returns how many frames have completed (VBlank entries) since
// the PPU was constructed or last Reset, letting the motherboard detect a
// frame boundary without polling mode/ly directly.
func (p *PPU) FrameCount() uint64 { return p.frame }

// CPURead serves CPU reads of VRAM, OAM, and the LCD IO registers.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.mode() == PixelTransfer {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.mode()
		if m == OAMScan || m == PixelTransfer {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite serves CPU writes to VRAM, OAM, and the LCD IO registers.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.mode() == PixelTransfer {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.mode()
		if m == OAMScan || m == PixelTransfer {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if prev&lcdcEnable != 0 && value&lcdcEnable == 0 {
			p.ly, p.dot = 0, 0
			p.setMode(HBlank)
			p.updateLYC()
		} else if prev&lcdcEnable == 0 && value&lcdcEnable != 0 {
			p.ly, p.dot = 0, 0
			p.windowLineCounter = 0
			p.setMode(OAMScan)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// LY is read-only on real hardware; writes are ignored.
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// WriteOAM is the DMA unit's write path into OAM, which is never
// mode-blocked (the DMA controller itself owns the bus during a transfer).
func (p *PPU) WriteOAM(offset byte, value byte) { p.oam[offset] = value }

// Tick advances the PPU by one dot (T-cycle).
func (p *PPU) Tick() {
	if !p.lcdEnabled() {
		return
	}

	switch {
	case p.dot == 0 && p.ly < visibleLines:
		p.setMode(OAMScan)
		p.scanOAM(p.ly)
	case p.dot == oamScanDots && p.ly < visibleLines:
		p.beginPixelTransfer()
	}

	if p.mode() == PixelTransfer && p.ly < visibleLines {
		p.stepPixelTransfer()
	}

	p.dot++
	if p.dot >= dotsPerLine {
		p.dot = 0
		p.endLine()
	}
}

// beginPixelTransfer resets the fetcher/FIFO/line state for a fresh
// scanline's worth of pixel production.
func (p *PPU) beginPixelTransfer() {
	p.setMode(PixelTransfer)
	p.bgFifo.Clear()
	p.lineX = 0
	p.discardLeft = int(p.scx & 7)
	p.windowTriggered = false
	for i := range p.spriteHas {
		p.spriteHas[i] = false
	}

	bgY := uint16(p.ly) + uint16(p.scy)
	mapRow := bgY >> 3
	fineY := byte(bgY & 7)
	tileCol := uint16(p.scx) >> 3
	mapBase := uint16(0x9800)
	if p.bgTileMapHigh() {
		mapBase = 0x9C00
	}
	p.fetcher.reset(mapBase, p.bgTileData8000(), tileCol, mapRow, fineY, false)

	// Pre-decode every sprite on this line into an absolute-x overlay; the
	// fetcher/FIFO still produce the BG/window stream pixel by pixel, and
	// sprites are mixed in as each pixel is popped.
	for _, e := range p.lineSprites {
		if !p.objEnabled() {
			break
		}
		row := p.spriteRowPixels(e, p.ly)
		for i, ci := range row {
			screenX := int(e.x) - 8 + i
			if screenX < -8 || screenX >= screenW {
				continue
			}
			idx := screenX + 8
			if p.spriteHas[idx] {
				continue // earlier (lower-x, or OAM-order tied) sprite already owns this pixel
			}
			if ci == 0 {
				continue // transparent sprite pixel never occludes
			}
			p.spriteHas[idx] = true
			p.spriteLine[idx] = pixel{ColorIndex: ci, Palette: e.palette(), BGPriority: e.priority()}
		}
	}
}

// stepPixelTransfer advances the fetcher by one dot and, once the BG/window
// FIFO has pixels ready, pops and composites one screen pixel.
func (p *PPU) stepPixelTransfer() {
	if p.lineX >= screenW {
		return
	}

	p.stepBGFetcher(&p.bgFifo)

	if p.windowEnabled() && !p.windowTriggered && p.ly >= p.wy && int(p.wx) <= 166 && p.lineX+7 >= int(p.wx) {
		p.triggerWindow()
	}

	if p.bgFifo.Len() == 0 {
		return
	}
	px, ok := p.bgFifo.Pop()
	if !ok {
		return
	}
	if p.discardLeft > 0 {
		p.discardLeft--
		return
	}

	bgColor := px.ColorIndex
	if !p.bgWinEnabled() {
		bgColor = 0
	}
	out := bgColor
	obpReg := p.obp0
	useSprite := false
	if p.spriteHas[p.lineX+8] {
		sp := p.spriteLine[p.lineX+8]
		if !(sp.BGPriority && bgColor != 0) {
			useSprite = true
			out = sp.ColorIndex
			if sp.Palette == 1 {
				obpReg = p.obp1
			} else {
				obpReg = p.obp0
			}
		}
	}

	var shade byte
	if useSprite {
		shade = decodePalette(obpReg)[out]
	} else {
		shade = decodePalette(p.bgp)[out]
	}
	p.plot(p.lineX, p.ly, shade)
	p.lineX++
	if p.lineX >= screenW {
		p.setMode(HBlank)
	}
}

// triggerWindow restarts the fetcher against the window tile map once the
// window becomes visible on this line.
func (p *PPU) triggerWindow() {
	p.windowTriggered = true
	p.bgFifo.Clear()
	mapBase := uint16(0x9800)
	if p.windowTileMapHigh() {
		mapBase = 0x9C00
	}
	fineY := byte(p.windowLineCounter & 7)
	mapRow := uint16(p.windowLineCounter) >> 3
	p.fetcher.reset(mapBase, p.bgTileData8000(), 0, mapRow, fineY, true)
	p.windowLineCounter++
}

// plot writes one shade (0..3, already through a palette) into the
// framebuffer as an ARGB pixel using the active compatibility palette.
func (p *PPU) plot(x int, y byte, shade byte) {
	c := CompatPaletteColors[p.paletteID][shade]
	i := (int(y)*screenW + x) * 4
	p.framebuffer[i+0] = byte(c)
	p.framebuffer[i+1] = byte(c >> 8)
	p.framebuffer[i+2] = byte(c >> 16)
	p.framebuffer[i+3] = byte(c >> 24)
}

// endLine advances LY, handles VBlank entry/STAT IRQs and wraparound.
func (p *PPU) endLine() {
	if p.ly < visibleLines {
		// The 160th pixel pop normally has already moved PixelTransfer ->
		// HBlank; this makes sure a visible line never ends in PixelTransfer.
		p.setMode(HBlank)
	}

	p.ly++
	if p.ly == visibleLines {
		p.setMode(VBlank)
		p.irq.Request(interrupt.VBlank)
		if p.stat&(1<<4) != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
		p.windowLineCounter = 0
		p.frame++
	} else if p.ly >= totalLines {
		p.ly = 0
	}
	p.updateLYC()
	// Dot 0 of a visible line already belongs to OAM scan; the next Tick
	// call's dot==0 branch rescans OAM for the new line.
	if p.ly < visibleLines {
		p.setMode(OAMScan)
	}
}

// setMode updates STAT's mode bits and fires the corresponding STAT
// interrupt source on entry, mirroring the real controller's edge-triggered
// behavior (only fires once per mode transition, not while the mode holds).
func (p *PPU) setMode(m Mode) {
	if Mode(p.stat&0x03) == m {
		return
	}
	p.stat = (p.stat &^ 0x03) | byte(m)
	switch m {
	case HBlank:
		if p.stat&(1<<3) != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
	case OAMScan:
		if p.stat&(1<<5) != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
	}
}

// updateLYC recomputes the LY==LYC coincidence flag and fires its STAT
// interrupt on the rising edge.
func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		wasSet := p.stat&(1<<2) != 0
		p.stat |= 1 << 2
		if !wasSet && p.stat&(1<<6) != 0 {
			p.irq.Request(interrupt.LCDStat)
		}
	} else {
		p.stat &^= 1 << 2
	}
}
