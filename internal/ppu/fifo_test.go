package ppu

import "testing"

func TestPixelFIFOOrderAndCapacity(t *testing.T) {
	var q pixelFIFO
	for i := byte(0); i < 16; i++ {
		if !q.Push(pixel{ColorIndex: i & 3}) {
			t.Fatalf("push %d should have succeeded, FIFO not yet full", i)
		}
	}
	if q.Push(pixel{}) {
		t.Fatalf("17th push should fail, FIFO is full")
	}
	for i := byte(0); i < 16; i++ {
		p, ok := q.Pop()
		if !ok || p.ColorIndex != i&3 {
			t.Fatalf("pop %d: got %+v ok=%v, want ColorIndex %d", i, p, ok, i&3)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("pop on empty FIFO should fail")
	}
}
