package ppu

// fetchState is one of the five states of the pixel fetcher submachine.
type fetchState int

const (
	fetchGetTile fetchState = iota
	fetchGetDataLow
	fetchGetDataHigh
	fetchSleep
	fetchPush
)

// bgFetcher drives the background/window pixel fetcher: it holds its
// sub-state, how many dots remain in the current sub-state, and the tile
// coordinates it is working on.
type bgFetcher struct {
	state    fetchState
	dotsLeft int

	mapBase       uint16
	tileData8000  bool
	tileCol       uint16 // 0..31, column within the 32x32 tile map
	mapRow        uint16 // 0..31
	fineY         byte

	tileNum byte
	lo, hi  byte

	fetchingWindow bool
}

// reset restarts the fetcher at GET_TILE for a fresh tile fetch.
func (f *bgFetcher) reset(mapBase uint16, tileData8000 bool, tileCol, mapRow uint16, fineY byte, window bool) {
	f.state = fetchGetTile
	f.dotsLeft = 2
	f.mapBase = mapBase
	f.tileData8000 = tileData8000
	f.tileCol = tileCol & 31
	f.mapRow = mapRow & 31
	f.fineY = fineY & 7
	f.fetchingWindow = window
}

// tileAddr resolves the VRAM address of the tile index byte for the current
// map column/row.
func (f *bgFetcher) tileAddr() uint16 {
	return f.mapBase + f.mapRow*32 + f.tileCol
}

// dataAddr resolves the tile-data address for the fetched tile number,
// honoring LCDC's 0x8000/0x8800 addressing mode switch.
func (f *bgFetcher) dataAddr() uint16 {
	if f.tileData8000 {
		return 0x8000 + uint16(f.tileNum)*16 + uint16(f.fineY)*2
	}
	return 0x9000 + uint16(int8(f.tileNum))*16 + uint16(f.fineY)*2
}

// stepBGFetcher advances the fetcher by one dot. When it completes a PUSH (8 fresh
// pixels queued into fifo), it returns true and rolls over to the next
// tile column for the following fetch.
func (p *PPU) stepBGFetcher(fifo *pixelFIFO) bool {
	f := &p.fetcher
	switch f.state {
	case fetchGetTile:
		f.dotsLeft--
		if f.dotsLeft == 0 {
			f.tileNum = p.vram[f.tileAddr()-0x8000]
			f.state = fetchGetDataLow
			f.dotsLeft = 2
		}
	case fetchGetDataLow:
		f.dotsLeft--
		if f.dotsLeft == 0 {
			f.lo = p.vram[f.dataAddr()-0x8000]
			f.state = fetchGetDataHigh
			f.dotsLeft = 2
		}
	case fetchGetDataHigh:
		f.dotsLeft--
		if f.dotsLeft == 0 {
			f.hi = p.vram[f.dataAddr()+1-0x8000]
			f.state = fetchSleep
			f.dotsLeft = 2
		}
	case fetchSleep:
		f.dotsLeft--
		if f.dotsLeft == 0 {
			f.state = fetchPush
		}
	case fetchPush:
		if fifo.Len() == 0 {
			for px := 0; px < 8; px++ {
				bit := 7 - byte(px)
				ci := ((f.hi>>bit)&1)<<1 | ((f.lo >> bit) & 1)
				fifo.Push(pixel{ColorIndex: ci})
			}
			f.tileCol = (f.tileCol + 1) & 31
			f.state = fetchGetTile
			f.dotsLeft = 2
			return true
		}
	}
	return false
}
