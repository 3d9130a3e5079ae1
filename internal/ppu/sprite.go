package ppu

import "sort"

// oamEntry is one decoded sprite attribute table entry.
type oamEntry struct {
	y, x    byte
	tile    byte
	attrs   byte
	oamIdx  int // original OAM slot, for a stable x-ordered tie-break
}

func (e oamEntry) priority() bool { return e.attrs&0x80 != 0 } // true = behind BG colors 1-3
func (e oamEntry) yFlip() bool    { return e.attrs&0x40 != 0 }
func (e oamEntry) xFlip() bool    { return e.attrs&0x20 != 0 }
func (e oamEntry) palette() byte  { return (e.attrs >> 4) & 1 }

const maxSpritesPerLine = 10

// scanOAM selects up to 10 sprites intersecting scanline ly, in OAM order,
// then stable-sorts them by x so the fetcher later processes (and the
// mixer prioritizes) left-to-right with OAM order breaking x ties — the
// documented DMG sprite priority rule.
func (p *PPU) scanOAM(ly byte) {
	p.lineSprites = p.lineSprites[:0]
	height := byte(8)
	if p.tallSprites() {
		height = 16
	}
	for i := 0; i < 40; i++ {
		base := i * 4
		y := p.oam[base]
		spriteTop := int(y) - 16
		if int(ly) < spriteTop || int(ly) >= spriteTop+int(height) {
			continue
		}
		x := p.oam[base+1]
		if x == 0 {
			continue // off-screen at x=0 and never selected into the scan buffer
		}
		tile := p.oam[base+2]
		attrs := p.oam[base+3]
		p.lineSprites = append(p.lineSprites, oamEntry{y: y, x: x, tile: tile, attrs: attrs, oamIdx: i})
		if len(p.lineSprites) == maxSpritesPerLine {
			break
		}
	}
	sort.SliceStable(p.lineSprites, func(i, j int) bool {
		return p.lineSprites[i].x < p.lineSprites[j].x
	})
}

// spriteRowPixels decodes the 8 color indices for one sprite's row at
// scanline ly, honoring y-flip/x-flip and 8x16 tall-sprite tile selection.
func (p *PPU) spriteRowPixels(e oamEntry, ly byte) [8]byte {
	height := byte(8)
	tile := e.tile
	if p.tallSprites() {
		height = 16
		tile &^= 0x01
	}
	spriteTop := int(e.y) - 16
	row := byte(int(ly) - spriteTop)
	if e.yFlip() {
		row = height - 1 - row
	}
	if p.tallSprites() && row >= 8 {
		tile |= 0x01
		row -= 8
	}
	addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
	lo := p.vram[addr-0x8000]
	hi := p.vram[addr+1-0x8000]

	var out [8]byte
	for px := 0; px < 8; px++ {
		bit := px
		if !e.xFlip() {
			bit = 7 - px
		}
		out[px] = ((hi>>uint(bit))&1)<<1 | ((lo >> uint(bit)) & 1)
	}
	return out
}
