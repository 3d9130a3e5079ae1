package cart

import "testing"

func TestMBC3_ROMBanking(t *testing.T) {
	rom := make([]byte, 256*1024)
	for bank := 0; bank < 16; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC3(rom, 0)

	if got := m.Read(0x0000); got != 0x00 {
		t.Fatalf("bank0 read got %02X want 00", got)
	}
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default switchable bank got %02X want 01", got)
	}

	m.Write(0x2000, 0x05)
	if got := m.Read(0x4000); got != 0x05 {
		t.Fatalf("bank5 read got %02X want 05", got)
	}

	// As with MBC1, writing bank 0 to MBC3 is remapped to bank 1.
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}
}

func TestMBC3_RAMBankingAndPersist(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 4*0x2000)

	m.Write(0x0000, 0x0A) // RAM enable
	m.Write(0x4000, 0x02) // select RAM bank 2

	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM bank2 RW failed: got %02X", got)
	}

	saved := m.SaveRAM()
	n := NewMBC3(rom, 4*0x2000)
	n.LoadRAM(saved)
	n.Write(0x0000, 0x0A)
	n.Write(0x4000, 0x02)
	if got := n.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM persist mismatch: got %02X want 55", got)
	}
}

func TestMBC3_SaveLoadState(t *testing.T) {
	rom := bankTaggedROM(8)
	m := NewMBC3(rom, 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x07)
	m.Write(0xA000, 0x42)

	state := m.SaveState()
	n := NewMBC3(rom, 0x2000)
	n.LoadState(state)

	if got := n.Read(0x4000); got != 0x07 {
		t.Fatalf("restored ROM bank got %02X want 07", got)
	}
	if got := n.Read(0xA000); got != 0x42 {
		t.Fatalf("restored RAM got %02X want 42", got)
	}
}
