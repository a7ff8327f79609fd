package emu

import (
	"io"
	"os"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
)

// Button re-exports the joypad identifiers for hosts.
type Button = bus.Button

const (
	BtnRight  = bus.BtnRight
	BtnLeft   = bus.BtnLeft
	BtnUp     = bus.BtnUp
	BtnDown   = bus.BtnDown
	BtnA      = bus.BtnA
	BtnB      = bus.BtnB
	BtnSelect = bus.BtnSelect
	BtnStart  = bus.BtnStart
)

// Machine is the host-facing emulator facade: it owns the bus (and through
// it the PPU and Timer) plus the CPU, and exposes the narrow interface a
// front end needs.
type Machine struct {
	cfg    Config
	bus    *bus.Bus
	cpu    *cpu.CPU
	header *cart.Header
	boot   []byte
	serial io.Writer
}

// New constructs a machine without a cartridge; an empty ROM-only cartridge
// is wired so the address space is fully defined from the start.
func New(cfg Config) *Machine {
	m := &Machine{cfg: cfg}
	m.wire(cart.NewROMOnly(nil))
	return m
}

func (m *Machine) wire(c cart.Cartridge) {
	m.bus = bus.NewWithCartridge(c)
	m.cpu = cpu.New(m.bus, m.bus.Timer())
	if m.serial != nil {
		m.bus.SetSerialWriter(m.serial)
	}
}

// LoadCartridge parses the header, builds the matching MBC, and resets the
// CPU — into the boot ROM if one is loaded, to post-boot state otherwise.
func (m *Machine) LoadCartridge(rom []byte) error {
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return err
	}
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return err
	}
	m.header = h
	m.wire(c)

	if m.boot != nil {
		if err := m.bus.SetBootROM(m.boot); err != nil {
			return err
		}
		m.cpu.SetPC(0x0000)
	} else {
		m.resetNoBoot()
	}
	return nil
}

// LoadROMFromFile reads a ROM image from disk and loads it.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadCartridge(rom)
}

// LoadBootROM maps the 256-byte power-on firmware and restarts at 0x0000.
func (m *Machine) LoadBootROM(data []byte) error {
	if err := m.bus.SetBootROM(data); err != nil {
		return err
	}
	m.boot = data
	m.cpu.SetPC(0x0000)
	return nil
}

// resetNoBoot sets the DMG post-boot register and IO state, as the boot ROM
// would have left it.
func (m *Machine) resetNoBoot() {
	m.cpu.ResetNoBoot()
	m.bus.Write(0xFF00, 0xCF)
	m.bus.Write(0xFF05, 0x00) // TIMA
	m.bus.Write(0xFF06, 0x00) // TMA
	m.bus.Write(0xFF07, 0x00) // TAC
	m.bus.Write(0xFF40, 0x91) // LCDC on with BG and sprites
	m.bus.Write(0xFF42, 0x00) // SCY
	m.bus.Write(0xFF43, 0x00) // SCX
	m.bus.Write(0xFF45, 0x00) // LYC
	m.bus.Write(0xFF47, 0xFC) // BGP
	m.bus.Write(0xFF48, 0xFF) // OBP0
	m.bus.Write(0xFF49, 0xFF) // OBP1
	m.bus.Write(0xFF4A, 0x00) // WY
	m.bus.Write(0xFF4B, 0x00) // WX
	m.bus.Write(0xFFFF, 0x00) // IE
}

// RunFrame starts a new frame (PPU reset), then executes CPU steps until the
// PPU reports the frame completed. The finished frame stays readable through
// Pixel and FramebufferRGBA until the next call. Bounded so a ROM that leaves
// the LCD off cannot hang the host.
func (m *Machine) RunFrame() {
	p := m.bus.PPU()
	p.Reset()
	budget := m.cfg.MaxFrameSteps
	if budget <= 0 {
		budget = defaultMaxFrameSteps
	}
	for i := 0; !p.FrameCompleted(); i++ {
		if i >= budget {
			break
		}
		m.cpu.Step()
	}
}

// SetButton records a pad change; a press transition raises the joypad
// interrupt.
func (m *Machine) SetButton(b Button, pressed bool) { m.bus.SetButton(b, pressed) }

// Pixel resolves the current framebuffer color at (x, y).
func (m *Machine) Pixel(x, y int) ppu.RGB { return m.bus.PPU().Pixel(x, y) }

// FramebufferRGBA fills dst (160*144*4 bytes) with the resolved frame.
func (m *Machine) FramebufferRGBA(dst []byte) {
	p := m.bus.PPU()
	i := 0
	for y := 0; y < ppu.FrameHeight; y++ {
		for x := 0; x < ppu.FrameWidth; x++ {
			c := p.Pixel(x, y)
			dst[i+0] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = 0xFF
			i += 4
		}
	}
}

// SetSerialWriter attaches a sink for SB debug output (test ROM results).
func (m *Machine) SetSerialWriter(w io.Writer) {
	m.serial = w
	m.bus.SetSerialWriter(w)
}

// Header returns the parsed cartridge header, or nil before LoadCartridge.
func (m *Machine) Header() *cart.Header { return m.header }

// Bus exposes the address space for tools and tests.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the core for tools and tests.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// HasBattery reports whether the loaded cartridge persists its RAM.
func (m *Machine) HasBattery() bool { return m.header != nil && m.header.HasBattery }

// BatteryRAM returns a copy of external RAM for battery-backed cartridges.
func (m *Machine) BatteryRAM() []byte {
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		return bb.SaveRAM()
	}
	return nil
}

// LoadBatteryRAM restores previously saved external RAM.
func (m *Machine) LoadBatteryRAM(data []byte) {
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		bb.LoadRAM(data)
	}
}
