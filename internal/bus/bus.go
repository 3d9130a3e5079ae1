// Package bus wires the CPU-visible address space to the cartridge, work
// RAM, high RAM, and the interrupt/timer/joypad/DMA/PPU components.
package bus

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/cerrion/gobound/internal/cart"
	"github.com/cerrion/gobound/internal/dma"
	"github.com/cerrion/gobound/internal/interrupt"
	"github.com/cerrion/gobound/internal/joypad"
	"github.com/cerrion/gobound/internal/ppu"
	"github.com/cerrion/gobound/internal/timer"
)

// Bus owns WRAM/HRAM directly and delegates every other region to a
// dedicated component.
type Bus struct {
	cart cart.Cartridge

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	PPU    *ppu.PPU
	Timer  *timer.Timer
	Joypad *joypad.Joypad
	DMA    *dma.DMA
	IRQ    *interrupt.Controller

	sb byte // FF01 serial data
	sc byte // FF02 serial control
	sw io.Writer

	serialByte  byte
	serialReady bool

	bootROM     []byte
	bootEnabled bool
}

// New constructs a Bus with the cartridge implementation rom's header
// selects (see cart.NewCartridge).
func New(rom []byte) *Bus { return NewWithCartridge(cart.NewCartridge(rom)) }

// NewWithCartridge wires a provided cartridge implementation and its own
// interrupt/timer/joypad/DMA/PPU components.
func NewWithCartridge(c cart.Cartridge) *Bus {
	irq := interrupt.New()
	b := &Bus{
		cart:   c,
		IRQ:    irq,
		Timer:  timer.New(irq),
		Joypad: joypad.New(irq),
		DMA:    dma.New(),
		PPU:    ppu.New(irq),
	}
	return b
}

// Cart returns the underlying cartridge for battery/state operations.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// SetSerialWriter sets a sink fed with bytes written via the serial port,
// matching the DebugSerialCapture config flag's host contract.
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// SetBootROM loads a 256-byte DMG boot ROM to overlay 0x0000-0x00FF until
// disabled via a write to $FF50.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

// TakeSerialByte returns the most recently completed serial transfer byte,
// if any has arrived since the last call.
func (b *Bus) TakeSerialByte() (byte, bool) {
	if !b.serialReady {
		return 0, false
	}
	b.serialReady = false
	return b.serialByte, true
}

// Read serves a CPU-issued read: while OAM DMA is active, any address
// outside HRAM reads back 0xFF, since the DMA unit owns the bus.
func (b *Bus) Read(addr uint16) byte {
	if b.DMA.Active() && !(addr >= 0xFF80 && addr <= 0xFFFE) {
		return 0xFF
	}
	return b.rawRead(addr)
}

// dmaSource lets the DMA unit read the wider memory map directly, bypassing
// the CPU-facing blocking Read applies while a transfer is in flight.
type dmaSource struct{ b *Bus }

func (d dmaSource) Read(addr uint16) byte { return d.b.rawRead(addr) }

func (b *Bus) rawRead(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.PPU.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.PPU.CPURead(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFF00:
		return b.Joypad.Read()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.Timer.ReadDIV()
	case addr == 0xFF05:
		return b.Timer.ReadTIMA()
	case addr == 0xFF06:
		return b.Timer.ReadTMA()
	case addr == 0xFF07:
		return b.Timer.ReadTAC()
	case addr == 0xFF0F:
		return b.IRQ.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return 0xFF // APU register space: out of scope, stubbed
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.PPU.CPURead(addr)
	case addr == 0xFF46:
		return b.DMA.Register()
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFFFF:
		return b.IRQ.ReadIE()
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	if b.DMA.Active() && !(addr >= 0xFF80 && addr <= 0xFFFE) {
		return
	}
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.PPU.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.PPU.CPUWrite(addr, value)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFF00:
		b.Joypad.Write(value)
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.serialByte = b.sb
			b.serialReady = true
			b.IRQ.Request(interrupt.Serial)
			b.sc &^= 0x80
		}
	case addr == 0xFF04:
		b.Timer.WriteDIV()
	case addr == 0xFF05:
		b.Timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.Timer.WriteTMA(value)
	case addr == 0xFF07:
		b.Timer.WriteTAC(value)
	case addr == 0xFF0F:
		b.IRQ.WriteIF(value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// APU register space: out of scope, writes ignored
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.PPU.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.DMA.Start(value)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFFFF:
		b.IRQ.WriteIE(value)
	}
}

// Tick advances every clocked component by one T-cycle: the timer, the PPU,
// and (when active) the OAM DMA unit.
func (b *Bus) Tick() {
	b.Timer.Tick()
	b.PPU.Tick()
	b.DMA.Tick(dmaSource{b}, b.PPU)
}

// TickN advances the bus by n T-cycles.
func (b *Bus) TickN(n int) {
	for i := 0; i < n; i++ {
		b.Tick()
	}
}

type busState struct {
	WRAM        [0x2000]byte
	HRAM        [0x7F]byte
	SB, SC      byte
	BootEnabled bool
}

// SaveState serializes WRAM/HRAM/serial plus the cartridge's own state.
func (b *Bus) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(busState{WRAM: b.wram, HRAM: b.hram, SB: b.sb, SC: b.sc, BootEnabled: b.bootEnabled})
	_ = enc.Encode(b.cart.SaveState())
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (b *Bus) LoadState(data []byte) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s busState
	if err := dec.Decode(&s); err != nil {
		return
	}
	b.wram, b.hram, b.sb, b.sc, b.bootEnabled = s.WRAM, s.HRAM, s.SB, s.SC, s.BootEnabled
	var cs []byte
	if err := dec.Decode(&cs); err == nil {
		b.cart.LoadState(cs)
	}
}
