package emu

// Config holds the motherboard's construction-time flags, the enumerated
// set spec.md §6 calls out plus the trace flag the teacher's cmd line
// tools expose for debugging.
type Config struct {
	// BootROMPresent, when true, overlays BootROM at $0000-$00FF and starts
	// the CPU at PC=0 instead of the documented post-boot state. When
	// false (the common case for this core), New resets straight to the
	// post-boot-ROM register values spec.md §3 specifies.
	BootROMPresent bool
	BootROM        []byte

	// DebugSerialCapture appends every byte sent over the serial port (the
	// $FF01 value at each $FF02 write that starts a transfer) to an internal
	// byte log, in addition to the single-byte SerialOut mailbox. The log
	// has no exported accessor.
	DebugSerialCapture bool

	// Trace is carried for hosts; nothing in the core reads it, and the
	// core itself does not log anything (cmd/cpurunner has its own -trace
	// flag).
	Trace bool
}
