package emu

import "fmt"

// ConfigError reports a cartridge the motherboard could not be constructed
// from — too small to hold a header, or a failed header checksum. It is
// surfaced at New and is recoverable: the caller simply rejects the file
// (spec.md §7).
type ConfigError struct{ Reason string }

func (e *ConfigError) Error() string { return "config error: " + e.Reason }

// UnsupportedFeature reports an instruction stream that asks for something
// this core does not implement: a ROM that jumps into one of the eleven
// byte values the DMG never defines as an opcode. It is returned as a value
// from StepFrame, never panicked (spec.md §7). A cartridge type
// NewCartridge does not recognize is not reported this way: it is loaded
// as a plain ROM image with no banking.
type UnsupportedFeature struct{ Reason string }

func (e *UnsupportedFeature) Error() string { return "unsupported feature: " + e.Reason }

// InternalInvariant marks a reimplementation bug: a decode branch or
// state-machine fallthrough the core's own design says is unreachable.
// Per spec.md §7 this is fatal and must never be silently absorbed, so it
// is only ever raised via panic, never returned as a value.
type InternalInvariant struct{ Reason string }

func (e *InternalInvariant) Error() string { return fmt.Sprintf("internal invariant violated: %s", e.Reason) }

// Raise panics with an InternalInvariant. Call this from any code path the
// core's own design asserts is unreachable.
func Raise(reason string) { panic(&InternalInvariant{Reason: reason}) }
