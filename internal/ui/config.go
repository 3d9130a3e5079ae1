// Package ui holds the thin, out-of-core window/input settings for the
// ebiten-based front end in cmd/gbemu. The core itself has no notion of a
// window; this package exists only to keep that surrounding plumbing in one
// place instead of scattered across main.go flags.
package ui

// Config contains window/input settings for cmd/gbemu.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}
