package dma

import "testing"

type fakeMem struct{ bytes [0x10000]byte }

func (m *fakeMem) Read(addr uint16) byte { return m.bytes[addr] }

type fakeOAM struct{ oam [160]byte }

func (o *fakeOAM) WriteOAM(offset byte, v byte) { o.oam[offset] = v }

func TestStartDelaysFirstCopy(t *testing.T) {
	d := New()
	mem := &fakeMem{}
	mem.bytes[0xC000] = 0x42
	oam := &fakeOAM{}
	d.Start(0xC0)

	for i := 0; i < startDelayT-1; i++ {
		d.Tick(mem, oam)
		if oam.oam[0] != 0 {
			t.Fatalf("byte copied before start delay elapsed, at tick %d", i)
		}
	}
	d.Tick(mem, oam)
	if oam.oam[0] != 0x42 {
		t.Fatalf("expected first byte copied once start delay elapses, got %#02x", oam.oam[0])
	}
}

func TestFullTransferCopies160BytesThenIdles(t *testing.T) {
	d := New()
	mem := &fakeMem{}
	for i := 0; i < 160; i++ {
		mem.bytes[0xD000+uint16(i)] = byte(i + 1)
	}
	oam := &fakeOAM{}
	d.Start(0xD0)

	totalT := startDelayT + (length-1)*tPerByte
	for i := 0; i < totalT; i++ {
		if !d.Active() {
			t.Fatalf("transfer ended early at tick %d", i)
		}
		d.Tick(mem, oam)
	}
	if d.Active() {
		t.Fatalf("transfer should be complete after %d T-cycles", totalT)
	}
	for i := 0; i < 160; i++ {
		if oam.oam[i] != byte(i+1) {
			t.Fatalf("oam[%d] = %#02x, want %#02x", i, oam.oam[i], byte(i+1))
		}
	}
}

func TestRestartMidTransfer(t *testing.T) {
	d := New()
	mem := &fakeMem{}
	mem.bytes[0xC000] = 0xAA
	mem.bytes[0xE000] = 0xBB
	oam := &fakeOAM{}
	d.Start(0xC0)
	for i := 0; i < startDelayT+4; i++ {
		d.Tick(mem, oam)
	}
	d.Start(0xE0) // restart from a new source before completion
	if d.index != 0 {
		t.Fatalf("restart should reset the byte index")
	}
	for i := 0; i < startDelayT; i++ {
		d.Tick(mem, oam)
	}
	if oam.oam[0] != 0xBB {
		t.Fatalf("restart should copy from the new source, got %#02x", oam.oam[0])
	}
}
