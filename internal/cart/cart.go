package cart

// Cartridge is what the address bus needs from ROM/RAM banking hardware:
// the $0000-$7FFF ROM window (which also catches MBC control writes) and
// the $A000-$BFFF external RAM window.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)

	// SaveState/LoadState capture whatever banking registers and RAM
	// contents the implementation owns, for the bus-level save/restore
	// round trip.
	SaveState() []byte
	LoadState(data []byte)
}

// BatteryBacked is implemented by cartridges whose external RAM survives a
// power cycle on real hardware. gbemu persists it to a .sav file next to
// the ROM rather than an RTC or emulator save-state slot.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// mbcCtor builds a banking implementation from a raw ROM and the header's
// declared external RAM size.
type mbcCtor func(rom []byte, ramBytes int) Cartridge

// mbcByCartType dispatches on the $0147 cart-type byte. RTC (MBC3) and
// rumble (MBC5) side-effects have no observable effect on CPU-visible state
// and are not modeled; every listed variant maps onto the same banking
// constructor as its plain counterpart.
var mbcByCartType = map[byte]mbcCtor{
	0x00: func(rom []byte, _ int) Cartridge { return NewNoMBC(rom) },
	0x08: func(rom []byte, ram int) Cartridge { return NewNoMBC(rom) },
	0x09: func(rom []byte, ram int) Cartridge { return NewNoMBC(rom) },

	0x01: func(rom []byte, ram int) Cartridge { return NewMBC1(rom, ram) },
	0x02: func(rom []byte, ram int) Cartridge { return NewMBC1(rom, ram) },
	0x03: func(rom []byte, ram int) Cartridge { return NewMBC1(rom, ram) },

	0x0F: func(rom []byte, ram int) Cartridge { return NewMBC3(rom, ram) },
	0x10: func(rom []byte, ram int) Cartridge { return NewMBC3(rom, ram) },
	0x11: func(rom []byte, ram int) Cartridge { return NewMBC3(rom, ram) },
	0x12: func(rom []byte, ram int) Cartridge { return NewMBC3(rom, ram) },
	0x13: func(rom []byte, ram int) Cartridge { return NewMBC3(rom, ram) },

	0x19: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
	0x1A: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
	0x1B: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
	0x1C: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
	0x1D: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
	0x1E: func(rom []byte, ram int) Cartridge { return NewMBC5(rom, ram) },
}

// NewCartridge builds the banking implementation the header's cart-type
// byte calls for. The caller is expected to have already validated the
// header (see DecodeHeader/ChecksumValid); an unrecognized or malformed
// byte falls back to a plain ROM image rather than failing construction, so
// homebrew with a nonstandard header still loads.
func NewCartridge(rom []byte) Cartridge {
	info, err := DecodeHeader(rom)
	if err != nil {
		return NewNoMBC(rom)
	}
	if ctor, ok := mbcByCartType[info.CartType]; ok {
		return ctor(rom, info.RAMBytes)
	}
	return NewNoMBC(rom)
}
