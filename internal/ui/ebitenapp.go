// Package ui is the thin windowed host: it feeds pad state into the core,
// runs one frame per tick, and blits the resolved framebuffer. Everything
// else (menus, keymap config, audio) intentionally does not exist here.
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
)

type keyBinding struct {
	key ebiten.Key
	btn emu.Button
}

var bindings = []keyBinding{
	{ebiten.KeyArrowUp, emu.BtnUp},
	{ebiten.KeyArrowDown, emu.BtnDown},
	{ebiten.KeyArrowLeft, emu.BtnLeft},
	{ebiten.KeyArrowRight, emu.BtnRight},
	{ebiten.KeyZ, emu.BtnA},
	{ebiten.KeyX, emu.BtnB},
	{ebiten.KeyEnter, emu.BtnStart},
	{ebiten.KeyBackspace, emu.BtnSelect},
}

// App drives a Machine from the ebiten game loop.
type App struct {
	m  *emu.Machine
	fb []byte
}

func NewApp(m *emu.Machine) *App {
	return &App{
		m:  m,
		fb: make([]byte, ppu.FrameWidth*ppu.FrameHeight*4),
	}
}

func (a *App) Update() error {
	for _, b := range bindings {
		a.m.SetButton(b.btn, ebiten.IsKeyPressed(b.key))
	}
	a.m.RunFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	a.m.FramebufferRGBA(a.fb)
	screen.WritePixels(a.fb)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppu.FrameWidth, ppu.FrameHeight
}

// Run opens the window and blocks until it is closed.
func Run(m *emu.Machine, title string, scale int) error {
	if scale <= 0 {
		scale = 3
	}
	ebiten.SetWindowSize(ppu.FrameWidth*scale, ppu.FrameHeight*scale)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(NewApp(m))
}
