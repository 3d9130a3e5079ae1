package cart

import "encoding/binary"

// Header byte offsets, per the DMG cartridge boot contract.
const (
	offTitle          = 0x0134
	offTitleEnd       = 0x0144
	offCGBFlag        = 0x0143
	offNewLicenseeLo  = 0x0144
	offNewLicenseeHi  = 0x0146
	offSGBFlag        = 0x0146
	offCartType       = 0x0147
	offROMSize        = 0x0148
	offRAMSize        = 0x0149
	offDestination    = 0x014A
	offOldLicensee    = 0x014B
	offROMVersion     = 0x014C
	offHeaderChecksum = 0x014D
	offGlobalChecksum = 0x014E
	headerLast        = 0x014F
)

// romBankCounts maps the ROM size byte at 0x0148 to (total bytes, bank
// count). Entries beyond 0x08 are the Pocket Monsters-era oddball sizes
// some header docs list but almost nothing in the wild uses.
var romBankCounts = map[byte]struct {
	bytes, banks int
}{
	0x00: {32 * 1024, 2},
	0x01: {64 * 1024, 4},
	0x02: {128 * 1024, 8},
	0x03: {256 * 1024, 16},
	0x04: {512 * 1024, 32},
	0x05: {1024 * 1024, 64},
	0x06: {2048 * 1024, 128},
	0x07: {4096 * 1024, 256},
	0x08: {8192 * 1024, 512},
	0x52: {1152 * 1024, 72},
	0x53: {1280 * 1024, 80},
	0x54: {1536 * 1024, 96},
}

// ramSizeBytes maps the RAM size byte at 0x0149 to its capacity. Code 0x01
// ("2 KiB") never shipped on a real cartridge and is treated as absent.
var ramSizeBytes = map[byte]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// mbcFamily names the banking hardware a cart-type byte selects, for
// diagnostics; NewCartridge (cart.go) does the actual dispatch.
var mbcFamily = map[byte]string{
	0x00: "ROM ONLY",
	0x08: "ROM+RAM", 0x09: "ROM+RAM+BATTERY",
	0x01: "MBC1", 0x02: "MBC1+RAM", 0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2", 0x06: "MBC2+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY", 0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3", 0x12: "MBC3+RAM", 0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5", 0x1A: "MBC5+RAM", 0x1B: "MBC5+RAM+BATTERY",
	0x1C: "MBC5+RUMBLE", 0x1D: "MBC5+RUMBLE+RAM", 0x1E: "MBC5+RUMBLE+RAM+BATTERY",
}

// CartInfo is the decoded contents of a cartridge's $0100-$014F header.
type CartInfo struct {
	Title          string
	NewLicensee    string // ASCII licensee code, meaningful only when OldLicensee == 0x33
	OldLicensee    byte
	CGBFlag        byte
	SGBFlag        byte
	CartType       byte
	Destination    byte
	ROMVersion     byte
	HeaderChecksum byte
	GlobalChecksum uint16

	ROMBytes int
	ROMBanks int
	RAMBytes int
}

// MBCName describes the banking hardware CartType selects, for logs and
// error messages; it is not used to drive dispatch.
func (ci *CartInfo) MBCName() string {
	if name, ok := mbcFamily[ci.CartType]; ok {
		return name
	}
	return "unknown"
}

// DecodeHeader reads the fixed-layout header out of a ROM image. The caller
// is expected to have already run ChecksumValid; DecodeHeader does not
// re-verify it.
func DecodeHeader(rom []byte) (*CartInfo, error) {
	if len(rom) <= headerLast {
		return nil, headerTooShortError{got: len(rom), want: headerLast + 1}
	}

	title := rom[offTitle:offTitleEnd]
	end := len(title)
	for end > 0 && title[end-1] == 0 {
		end--
	}

	romSize := romBankCounts[rom[offROMSize]]
	return &CartInfo{
		Title:          string(title[:end]),
		NewLicensee:    string(rom[offNewLicenseeLo:offNewLicenseeHi]),
		OldLicensee:    rom[offOldLicensee],
		CGBFlag:        rom[offCGBFlag],
		SGBFlag:        rom[offSGBFlag],
		CartType:       rom[offCartType],
		Destination:    rom[offDestination],
		ROMVersion:     rom[offROMVersion],
		HeaderChecksum: rom[offHeaderChecksum],
		GlobalChecksum: binary.BigEndian.Uint16(rom[offGlobalChecksum : headerLast+1]),
		ROMBytes:       romSize.bytes,
		ROMBanks:       romSize.banks,
		RAMBytes:       ramSizeBytes[rom[offRAMSize]],
	}, nil
}

// ChecksumValid recomputes the header checksum Pan Docs specifies (a running
// subtraction over 0x0134-0x014C) and compares it to the stored byte at
// 0x014D. The boot ROM halts on a mismatch; DMG-emu treats it as a
// ConfigError upstream instead.
func ChecksumValid(rom []byte) bool {
	if len(rom) <= offHeaderChecksum {
		return false
	}
	var sum byte
	for _, b := range rom[offTitle : offROMVersion+1] {
		sum = sum - b - 1
	}
	return sum == rom[offHeaderChecksum]
}

type headerTooShortError struct{ got, want int }

func (e headerTooShortError) Error() string {
	return "cartridge header truncated"
}
