package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cerrion/gobound/internal/bus"
	"github.com/cerrion/gobound/internal/cpu"
)

// ringBuffer is a fixed-capacity FIFO of the most recent N items, used here
// to keep a bounded trace/serial history without growing without bound on
// ROMs that run for millions of steps before failing.
type ringBuffer[T any] struct {
	buf  []T
	next int
	len  int
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer[T]{buf: make([]T, capacity)}
}

func (r *ringBuffer[T]) push(v T) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.len < len(r.buf) {
		r.len++
	}
}

// inOrder returns the buffered items oldest-first.
func (r *ringBuffer[T]) inOrder() []T {
	out := make([]T, r.len)
	start := (r.next - r.len + len(r.buf)) % len(r.buf)
	for i := 0; i < r.len; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

type cpuTrace struct {
	pc                     uint16
	op                     byte
	cyc                    int
	a, f, b, c, d, e, h, l byte
	sp                     uint16
	ime                    bool
	ifreg, ie              byte
}

func (t cpuTrace) String() string {
	return fmt.Sprintf("PC=%04X OP=%02X cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X",
		t.pc, t.op, t.cyc, t.a, t.f, t.b, t.c, t.d, t.e, t.h, t.l, t.sp, t.ime, t.ifreg, t.ie)
}

func captureTrace(c *cpu.CPU, b *bus.Bus, pc uint16, op byte, cyc int) cpuTrace {
	return cpuTrace{
		pc: pc, op: op, cyc: cyc,
		a: c.A, f: c.F, b: c.B, c: c.C, d: c.D, e: c.E, h: c.H, l: c.L,
		sp: c.SP, ime: c.IME, ifreg: b.Read(0xFF0F), ie: b.Read(0xFFFF),
	}
}

type cliFlags struct {
	romPath, bootPath  string
	steps              int
	startPC            int
	trace, traceOnFail bool
	traceWindow        int
	until              string
	auto               bool
	timeout            time.Duration
	serialWindow       int
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.bootPath, "bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	flag.IntVar(&f.steps, "steps", 5_000_000, "max CPU steps to run")
	flag.IntVar(&f.startPC, "pc", 0x0100, "initial PC value (ignored with -bootrom)")
	flag.BoolVar(&f.trace, "trace", false, "print PC/opcode/register state after every step")
	flag.StringVar(&f.until, "until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	flag.BoolVar(&f.auto, "auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit 0/1")
	flag.DurationVar(&f.timeout, "timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	flag.BoolVar(&f.traceOnFail, "traceOnFail", false, "on -auto failure, dump a recent trace window (slows execution)")
	flag.IntVar(&f.traceWindow, "traceWindow", 200, "instructions retained for -traceOnFail")
	flag.IntVar(&f.serialWindow, "serialWindow", 8192, "serial bytes retained for failure diagnostics")
	flag.Parse()
	return f
}

// bootCPU wires up a bus/CPU pair either at the boot ROM entry point or, if
// no boot ROM was given, at the DMG's documented post-boot register and IO
// state so ROMs written to run from $0100 behave as they would on hardware.
func bootCPU(b *bus.Bus, boot []byte, startPC uint16) *cpu.CPU {
	c := cpu.New(b)
	if len(boot) >= 0x100 {
		c.SP = 0xFFFE
		c.PC = 0x0000
		c.IME = false
		return c
	}

	c.ResetNoBoot()
	c.SetPC(startPC)
	for _, w := range []struct {
		addr uint16
		val  byte
	}{
		{0xFF00, 0xCF},
		{0xFF05, 0x00}, {0xFF06, 0x00}, {0xFF07, 0x00}, // TIMA/TMA/TAC
		{0xFF40, 0x91}, // LCDC on, BG on, tile data $8000, sprites off
		{0xFF42, 0x00}, {0xFF43, 0x00}, // SCY/SCX
		{0xFF45, 0x00}, // LYC
		{0xFF47, 0xFC}, {0xFF48, 0xFF}, {0xFF49, 0xFF}, // BGP/OBP0/OBP1
		{0xFF4A, 0x00}, {0xFF4B, 0x00}, // WY/WX
		{0xFFFF, 0x00}, // IE
	} {
		b.Write(w.addr, w.val)
	}
	return c
}

func mustReadROM(path, label string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", label, err)
	}
	return data
}

func main() {
	f := parseFlags()
	if f.romPath == "" {
		log.Fatal("-rom is required")
	}
	rom := mustReadROM(f.romPath, "rom")
	boot := mustReadROM(f.bootPath, "bootrom")

	b := bus.New(rom)
	if len(boot) >= 0x100 {
		b.SetBootROM(boot)
	}

	var serial bytes.Buffer
	serialRing := newRingBuffer[byte](max(f.serialWindow, 256))
	watchSerial := f.until != "" || f.auto
	if watchSerial {
		b.SetSerialWriter(serialSink{buf: &serial, ring: serialRing})
	}

	c := bootCPU(b, boot, uint16(f.startPC))

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	traceRing := newRingBuffer[cpuTrace](max(f.traceWindow, 1))

	start := time.Now()
	var deadline time.Time
	if f.timeout > 0 {
		deadline = start.Add(f.timeout)
	}

	var cycles int
	var lastStage string
	for i := 0; i < f.steps; i++ {
		pc := c.PC
		var op byte
		if f.trace || f.traceOnFail {
			op = b.Read(pc)
		}
		cyc := c.Step()
		cycles += cyc

		if f.trace || f.traceOnFail {
			t := captureTrace(c, b, pc, op, cyc)
			if f.trace {
				fmt.Println(t.String())
			}
			if f.traceOnFail {
				traceRing.push(t)
			}
		}

		done, exitCode := checkSerial(f, &serial, failRe, stageRe, &lastStage, traceRing, serialRing)
		if done {
			summarize(i+1, cycles, start)
			os.Exit(exitCode)
		}
		if f.until != "" && !f.auto && strings.Contains(strings.ToLower(serial.String()), strings.ToLower(f.until)) {
			fmt.Printf("\nDetected '%s' in serial output.\n", f.until)
			summarize(i+1, cycles, start)
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			summarize(i+1, cycles, start)
			os.Exit(2)
		}
	}
	summarize(f.steps, cycles, start)
}

// checkSerial implements -auto's pass/fail detection. It returns done=true
// once a verdict is reached, along with the process exit code to use.
func checkSerial(f cliFlags, serial *bytes.Buffer, failRe, stageRe *regexp.Regexp, lastStage *string, traceRing *ringBuffer[cpuTrace], serialRing *ringBuffer[byte]) (done bool, exitCode int) {
	if !f.auto {
		return false, 0
	}
	s := serial.String()
	if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
		*lastStage = mm[len(mm)-1]
	}
	if strings.Contains(strings.ToLower(s), "passed") {
		fmt.Printf("\nDetected PASS in serial output.\n")
		if *lastStage != "" {
			fmt.Printf("Last stage seen: %s\n", *lastStage)
		}
		return true, 0
	}
	if m := failRe.FindStringSubmatch(s); m != nil {
		fmt.Printf("\nDetected %s in serial output.\n", m[0])
		if *lastStage != "" {
			fmt.Printf("Last stage seen: %s\n", *lastStage)
		}
		if f.traceOnFail {
			dumpTrace(traceRing)
		}
		dumpSerial(serialRing)
		return true, 1
	}
	return false, 0
}

func dumpTrace(r *ringBuffer[cpuTrace]) {
	entries := r.inOrder()
	if len(entries) == 0 {
		return
	}
	fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(entries))
	for _, t := range entries {
		fmt.Println(t.String())
	}
	fmt.Printf("--- end trace ---\n")
}

func dumpSerial(r *ringBuffer[byte]) {
	entries := r.inOrder()
	if len(entries) == 0 {
		return
	}
	fmt.Printf("\n--- recent serial (last %d bytes) ---\n", len(entries))
	fmt.Printf("%s", string(entries))
	fmt.Printf("\n--- end serial ---\n")
}

func summarize(steps, cycles int, start time.Time) {
	fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", steps, cycles, time.Since(start).Truncate(time.Millisecond))
}

// serialSink tees the serial port's output to stdout while also retaining
// it in an unbounded buffer (for substring search) and a bounded ring (for
// the last-N-bytes diagnostic dump on failure).
type serialSink struct {
	buf  *bytes.Buffer
	ring *ringBuffer[byte]
}

func (s serialSink) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	s.buf.Write(p)
	for _, ch := range p {
		s.ring.push(ch)
	}
	return len(p), nil
}
