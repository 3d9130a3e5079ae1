package ui

import (
	"fmt"
	"time"

	"github.com/cerrion/gobound/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App is the ebiten game loop wrapping a Machine: keyboard to Buttons,
// StepFrame pacing, and a framebuffer blit. It owns no emulator state of its
// own beyond pause/toast bookkeeping.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image

	paused bool
	fast   bool

	lastTime time.Time
	frameAcc float64

	lastErr    error
	toastMsg   string
	toastUntil time.Time
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m, lastTime: time.Now()}
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) readButtons() emu.Buttons {
	var btn emu.Buttons
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		btn.Right = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		btn.Left = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		btn.Up = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		btn.Down = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		btn.A = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		btn.B = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		btn.Start = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		btn.Select = true
	}
	return btn
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	step := func() {
		fb, err := a.m.StepFrame(a.readButtons())
		_ = fb
		if err != nil {
			a.lastErr = err
			a.toast(err.Error())
			a.paused = true
		}
	}

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			step()
		}
		return nil
	}

	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	a.lastTime = now
	gbFPS := 4194304.0 / 70224.0 // ~59.7275, the DMG's real frame rate
	speed := 1.0
	if a.fast {
		speed = 4.0
	}
	a.frameAcc += dt * gbFPS * speed
	ran := 0
	for a.frameAcc >= 1.0 && ran < 10 {
		step()
		a.frameAcc -= 1.0
		ran++
		if a.paused {
			break
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
	if b, ok := a.m.SerialOut(); ok {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("serial: %02X", b), 4, 134)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(4 * time.Second)
}
