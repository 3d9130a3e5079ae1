package ppu

import "strings"

// CompatPalette picks a DMG compatibility palette ID by title heuristics,
// falling back to a licensee/checksum-derived stable pick for Nintendo
// titles not in the curated table. This is cosmetic only: it does not
// implement actual Game Boy Color hardware, and it does not look at the
// header's CGB flag.
func CompatPalette(title string, newLicensee string, oldLicensee byte, headerChecksum byte) int {
	t := strings.ToUpper(strings.TrimRight(strings.TrimSpace(title), "\x00"))

	if id, ok := compatTitleExact[t]; ok {
		return id
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return r.id
		}
	}

	nintendo := false
	if oldLicensee == 0x33 {
		nintendo = strings.ToUpper(newLicensee) == "01"
	} else {
		nintendo = oldLicensee == 0x01
	}
	if nintendo {
		return int(headerChecksum) % len(CompatPaletteNames)
	}
	return 0
}

// CompatPaletteNames labels the curated palette set CompatPalette indexes
// into; its length is the number of curated palettes.
var CompatPaletteNames = []string{"Green", "Sepia", "Blue", "Red", "Pastel", "Grayscale"}

// CompatPaletteColors holds the 4 ARGB shades (light to dark) for each
// curated palette, used when rendering a DMG cartridge with no GBC support.
var CompatPaletteColors = [][4]uint32{
	{0xFF9BBC0F, 0xFF8BAC0F, 0xFF306230, 0xFF0F380F}, // Green (original DMG)
	{0xFFFFE6C0, 0xFFD9A066, 0xFF8A5A2B, 0xFF3C2414}, // Sepia
	{0xFFE0F0FF, 0xFF90C0FF, 0xFF3060C0, 0xFF102050}, // Blue
	{0xFFFFE0E0, 0xFFFF9090, 0xFFC03030, 0xFF601010}, // Red
	{0xFFFCEFE0, 0xFFE3C7B0, 0xFFB58A78, 0xFF5C4438}, // Pastel
	{0xFFFFFFFF, 0xFFAAAAAA, 0xFF555555, 0xFF000000}, // Grayscale
}

type containsRule struct {
	substr string
	id     int
}

var compatTitleExact = map[string]int{
	"TETRIS":              2,
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3,
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4,
	"DONKEY KONG":         1,
	"THE LEGEND OF ZELDA": 0,
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

var compatTitleContains = []containsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}
