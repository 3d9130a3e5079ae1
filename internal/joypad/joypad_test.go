package joypad

import (
	"testing"

	"github.com/cerrion/gobound/internal/interrupt"
)

func newJoypad() (*Joypad, *interrupt.Controller) {
	irq := interrupt.New()
	irq.WriteIE(0x1F)
	irq.WriteIF(0)
	j := New(irq)
	j.Reset()
	return j, irq
}

func TestReadWithNoGroupSelectedIsAllOnes(t *testing.T) {
	j, _ := newJoypad()
	j.SetButtons(A | Up)
	j.Write(0x30) // both groups deselected
	if got := j.Read(); got&0x0F != 0x0F {
		t.Fatalf("expected lower nibble all 1s with no group selected, got %#02x", got)
	}
}

func TestDPadGroupReadback(t *testing.T) {
	j, _ := newJoypad()
	j.SetButtons(Up | Left)
	j.Write(0x20) // P14 low: select d-pad
	got := j.Read() & 0x0F
	want := byte(0x0F) &^ 0x02 &^ 0x04 // Left bit0x02, Up bit0x04 cleared
	if got != want {
		t.Fatalf("d-pad readback got %#02x want %#02x", got, want)
	}
}

func TestButtonGroupReadback(t *testing.T) {
	j, _ := newJoypad()
	j.SetButtons(A | Start)
	j.Write(0x10) // P15 low: select buttons
	got := j.Read() & 0x0F
	want := byte(0x0F) &^ 0x01 &^ 0x08 // A bit0x01, Start bit0x08 cleared
	if got != want {
		t.Fatalf("button readback got %#02x want %#02x", got, want)
	}
}

func TestPressTriggersJoypadInterrupt(t *testing.T) {
	j, irq := newJoypad()
	j.Write(0x20) // select d-pad
	if irq.ReadIF()&0x10 != 0 {
		t.Fatalf("no interrupt expected before any press")
	}
	j.SetButtons(Down) // 1->0 transition on the readback bit
	if irq.ReadIF()&0x10 == 0 {
		t.Fatalf("expected Joypad IF bit set on button press edge")
	}
}

func TestReleaseDoesNotTriggerInterrupt(t *testing.T) {
	j, irq := newJoypad()
	j.Write(0x20)
	j.SetButtons(Down)
	irq.Ack(interrupt.Joypad)
	j.SetButtons(0) // release: 0->1 transition, not a falling edge
	if irq.ReadIF()&0x10 != 0 {
		t.Fatalf("release should not retrigger the Joypad interrupt")
	}
}
