// Package emu implements the motherboard: it wires the cartridge, bus, and
// CPU together and drives the single scheduling primitive — Tick — that
// steps the CPU by one instruction and advances every other device by the
// T-cycles that instruction consumed (spec.md §4.3/§5). Machine is the host
// API the surrounding application (input, rendering, the command-line
// entry point) is built against.
package emu

import (
	"github.com/cerrion/gobound/internal/bus"
	"github.com/cerrion/gobound/internal/cart"
	"github.com/cerrion/gobound/internal/cpu"
	"github.com/cerrion/gobound/internal/joypad"
	"github.com/cerrion/gobound/internal/ppu"
)

// Buttons is the eight-button input snapshot StepFrame consumes once per
// frame; the host samples its input device and passes the result in.
type Buttons struct {
	Up, Down, Left, Right bool
	A, B, Start, Select   bool
}

// mask packs Buttons into the joypad package's pressed-bit encoding.
func (b Buttons) mask() byte {
	var m byte
	if b.Up {
		m |= joypad.Up
	}
	if b.Down {
		m |= joypad.Down
	}
	if b.Left {
		m |= joypad.Left
	}
	if b.Right {
		m |= joypad.Right
	}
	if b.A {
		m |= joypad.A
	}
	if b.B {
		m |= joypad.B
	}
	if b.Start {
		m |= joypad.Start
	}
	if b.Select {
		m |= joypad.Select
	}
	return m
}

// Machine owns the whole emulated system: cartridge, bus (and everything it
// wires — PPU, timer, joypad, DMA, interrupt controller), and CPU.
type Machine struct {
	cfg Config
	bus *bus.Bus
	cpu *cpu.CPU

	frames uint64
}

// New constructs and resets a Machine to post-boot-ROM state from a
// cartridge image, per spec.md §6's `new(cart_bytes) -> Core`.
//
// A cartridge that is too small to hold a header, or whose header checksum
// does not match, is a ConfigError — the caller can recover by rejecting
// the file rather than crashing the emulator.
func New(romBytes []byte, cfg Config) (*Machine, error) {
	if len(romBytes) < 0x150 {
		return nil, &ConfigError{Reason: "ROM is smaller than the minimum 0x150-byte header region"}
	}
	if !cart.ChecksumValid(romBytes) {
		return nil, &ConfigError{Reason: "cartridge header checksum mismatch"}
	}
	h, err := cart.DecodeHeader(romBytes)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	c := cart.NewCartridge(romBytes)
	b := bus.NewWithCartridge(c)
	b.PPU.SetCompatPalette(ppu.CompatPalette(h.Title, h.NewLicensee, h.OldLicensee, h.HeaderChecksum))
	if cfg.DebugSerialCapture {
		b.SetSerialWriter(&serialLog{})
	}

	m := &Machine{cfg: cfg, bus: b, cpu: cpu.New(b)}
	m.reset()
	return m, nil
}

// reset applies the architecturally-defined post-boot-ROM state spec.md §3
// specifies: CPU registers, IE/IF, and the timer's internal divider are all
// set by the components' own Reset/New paths; here we just point the CPU at
// the cartridge entry point unless a boot ROM is configured to run first.
func (m *Machine) reset() {
	if m.cfg.BootROMPresent && len(m.cfg.BootROM) >= 0x100 {
		m.bus.SetBootROM(m.cfg.BootROM)
		m.cpu.SetPC(0x0000)
		return
	}
	m.cpu.ResetNoBoot()
}

// StepFrame runs the motherboard clock until the PPU completes one more
// frame than it had when this call began, then returns the freshly
// rendered framebuffer. input is applied to the joypad before the first
// tick, matching spec.md §5's "host interacts with the core only between
// ticks" rule — button state is a single atomic snapshot for the frame.
//
// A ROM that executes one of the DMG's undefined opcode bytes surfaces as
// the returned UnsupportedFeature rather than corrupting emulation state;
// the framebuffer returned alongside it is whatever was last rendered.
func (m *Machine) StepFrame(input Buttons) (fb []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if illegal, ok := r.(cpu.IllegalOpcode); ok {
				err = &UnsupportedFeature{Reason: illegal.Error()}
				fb = m.Framebuffer()
				return
			}
			panic(r) // a genuine InternalInvariant: never absorbed silently
		}
	}()

	m.bus.Joypad.SetButtons(input.mask())
	startFrame := m.bus.PPU.FrameCount()
	for m.bus.PPU.FrameCount() == startFrame {
		m.tick()
	}
	m.frames++
	return m.Framebuffer(), nil
}

// tick is the motherboard's sole advancement primitive (spec.md §4.3): one
// CPU instruction (or HALT cycle, or interrupt dispatch), with every other
// device ticked for exactly the T-cycles that step consumed.
func (m *Machine) tick() {
	m.cpu.Step()
}

// Framebuffer returns the most recently completed frame as packed
// little-endian ARGB32 pixels, row-major, 160x144 (spec.md §6).
func (m *Machine) Framebuffer() []byte { return m.bus.PPU.Framebuffer() }

// FrameCount returns how many frames StepFrame has completed.
func (m *Machine) FrameCount() uint64 { return m.frames }

// SerialOut returns a byte captured from the $FF01/$FF02 serial port test
// convention (spec.md §6's `serial_out() -> Option<u8>`), and whether one
// was available. Each byte is returned at most once.
func (m *Machine) SerialOut() (byte, bool) { return m.bus.TakeSerialByte() }

// CPU exposes the CPU for diagnostics (register dumps, trace tools); not
// part of the spec's host contract but useful to cmd/cpurunner.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the bus for diagnostics, matching CPU above.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// serialLog is the debug_serial_capture sink: it only needs to satisfy
// io.Writer, since Bus already mirrors every transmitted byte into
// TakeSerialByte regardless of whether a writer is attached.
type serialLog struct{ bytes []byte }

func (s *serialLog) Write(p []byte) (int, error) {
	s.bytes = append(s.bytes, p...)
	return len(p), nil
}
