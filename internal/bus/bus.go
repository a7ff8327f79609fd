package bus

import (
	"errors"
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/timer"
)

// ErrMissingBootROM is returned when a boot ROM blob is shorter than 256 bytes.
var ErrMissingBootROM = errors.New("bus: boot ROM must be at least 256 bytes")

// Button identifies one of the eight pads for SetButton. The values match
// the bit layout of the two JOYP groups (directions 0-3, actions 4-7).
type Button int

const (
	BtnRight Button = iota
	BtnLeft
	BtnUp
	BtnDown
	BtnA
	BtnB
	BtnSelect
	BtnStart
)

// Bus is the address-space arbiter: it owns WRAM, HRAM, the interrupt
// registers and the APU register file, routes VRAM/OAM/LCD registers to the
// PPU, timer registers to the Timer, and everything below 0x8000 to the
// cartridge. Register writes with side effects (DIV reset, DMA trigger,
// boot ROM unmap, LYC coincidence, serial echo) are intercepted here.
type Bus struct {
	cart cart.Cartridge

	// Work RAM (WRAM) 8 KiB at 0xC000–0xDFFF; Echo 0xE000–0xFDFF mirrors C000–DDFF.
	wram [0x2000]byte

	// High RAM (HRAM) 0xFF80–0xFFFE (127 bytes)
	hram [0x7F]byte

	// PPU encapsulates VRAM/OAM and the LCD register file with mode locks.
	ppu *ppu.PPU

	// Timer owns DIV/TIMA/TMA/TAC and the deferred task queue; it is also
	// the fan-out point that ticks the PPU per dot.
	tmr *timer.Timer

	// Interrupt registers
	ie    byte // IE at 0xFFFF
	ifReg byte // IF at 0xFF0F (lower 5 bits used)

	// Joypad: the register is fully virtual. Writes store the two select
	// bits; reads synthesize the low nibble from the input array.
	selectAction    bool
	selectDirection bool
	input           [8]bool

	// Serial
	sb byte      // FF01 data
	sc byte      // FF02 control (bit7 start, bit0 clock source; transfers complete immediately)
	sw io.Writer // sink for serial output (optional)

	// Sound channel registers exist in the map but are plain storage; no synthesis.
	apuRegs [0x30]byte // FF10–FF3F

	// DMA register (copy is scheduled through the timer)
	dma byte // FF46

	// Boot ROM support; once unmapped it stays unmapped.
	bootROM     []byte
	bootEnabled bool
}

// New constructs a Bus with a ROM-only cartridge for convenience (tests).
func New(rom []byte) *Bus {
	return NewWithCartridge(cart.NewROMOnly(rom))
}

// NewWithCartridge wires a provided cartridge implementation.
func NewWithCartridge(c cart.Cartridge) *Bus {
	b := &Bus{cart: c}
	req := func(bit int) { b.ifReg |= 1 << bit }
	b.ppu = ppu.New(req)
	b.tmr = timer.New(req, b.ppu.Tick)
	return b
}

// PPU returns the internal PPU for rendering helpers.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Timer returns the clock fan-out; the CPU advances time through it.
func (b *Bus) Timer() *timer.Timer { return b.tmr }

// Cart returns the underlying cartridge for optional battery operations.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// RequestInterrupt sets an IF bit (0:VBlank 1:STAT 2:Timer 3:Serial 4:Joypad).
func (b *Bus) RequestInterrupt(bit int) { b.ifReg |= 1 << bit }

func (b *Bus) Read(addr uint16) byte {
	switch {
	// Cartridge ROM; the boot ROM overlays 0x0000-0x00FF while mapped
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	// VRAM (via PPU, locked during mode 3)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	// External cartridge RAM (MBC-gated)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)

	// Work RAM 0xC000–0xDFFF (8 KiB)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]

	// Echo RAM 0xE000–0xFDFF mirrors 0xC000–0xDDFF
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0xE000]

	// OAM via PPU (locked during modes 2 and 3)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.ppu.CPURead(addr)

	// Unusable region
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF

	// IO: JOYP at 0xFF00
	case addr == 0xFF00:
		return b.readJoypad()
	// Serial
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	// Timers
	case addr == 0xFF04:
		return b.tmr.ReadDIV()
	case addr == 0xFF05:
		return b.tmr.ReadTIMA()
	case addr == 0xFF06:
		return b.tmr.ReadTMA()
	case addr == 0xFF07:
		return b.tmr.ReadTAC()
	// IF at 0xFF0F
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	// Sound registers: stored, never synthesized
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apuRegs[addr-0xFF10]
	// LCDC/STAT/LY/LYC and scroll/window/palettes via PPU
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	// Boot ROM disable register reads 0xFF on DMG
	case addr == 0xFF50:
		return 0xFF
	// High RAM 0xFF80–0xFFFE
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	// IE at 0xFFFF
	case addr == 0xFFFF:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	// Cartridge control (MBC registers) and external RAM
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)

	// VRAM via PPU (dropped during mode 3)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)

	// Work RAM
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value

	// Echo RAM mirrors C000–DDFF
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0xE000] = value

	// OAM via PPU (dropped during modes 2 and 3)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.ppu.CPUWrite(addr, value)

	// IO: JOYP select bits
	case addr == 0xFF00:
		b.selectAction = value&0x20 == 0
		b.selectDirection = value&0x10 == 0
	// Serial: SB is echoed to the debug sink; SC starts (and instantly
	// completes) a transfer, raising the serial interrupt.
	case addr == 0xFF01:
		b.sb = value
		if b.sw != nil {
			_, _ = b.sw.Write([]byte{value})
		}
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			b.ifReg |= 1 << 3
			b.sc &^= 0x80
		}
	// Timers
	case addr == 0xFF04:
		b.tmr.WriteDIV()
	case addr == 0xFF05:
		b.tmr.WriteTIMA(value)
	case addr == 0xFF06:
		b.tmr.WriteTMA(value)
	case addr == 0xFF07:
		b.tmr.WriteTAC(value)
	// IF
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apuRegs[addr-0xFF10] = value
	// LCD register file via PPU (LYC recomputes the coincidence flag there)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		// OAM DMA: the 160-byte copy runs atomically 4 dots after the write.
		b.dma = value
		src := value
		b.tmr.Schedule(4, func() { b.oamDMACopy(src) })
	case addr == 0xFF50:
		// Any nonzero write unmaps the boot ROM permanently.
		if value != 0x00 {
			b.bootEnabled = false
		}
	// High RAM
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	// IE
	case addr == 0xFFFF:
		b.ie = value
	}
}

// readJoypad synthesizes the JOYP byte from the select bits and input array.
// Pressed buttons pull their line low.
func (b *Bus) readJoypad() byte {
	res := byte(0xFF)
	if b.selectDirection {
		res &^= 1 << 4
		for i := 0; i < 4; i++ {
			if b.input[i] {
				res &^= 1 << uint(i)
			}
		}
	}
	if b.selectAction {
		res &^= 1 << 5
		for i := 4; i < 8; i++ {
			if b.input[i] {
				res &^= 1 << uint(i%4)
			}
		}
	}
	return res
}

// SetButton records a pad state change. A press transition raises IF bit 4.
func (b *Bus) SetButton(btn Button, pressed bool) {
	if pressed && !b.input[btn] {
		b.ifReg |= 1 << 4
	}
	b.input[btn] = pressed
}

// SetSerialWriter sets a sink that receives bytes written to SB.
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// SetBootROM maps a 256-byte DMG boot ROM at 0x0000-0x00FF until a write to
// 0xFF50 disables it.
func (b *Bus) SetBootROM(data []byte) error {
	if len(data) < 0x100 {
		return ErrMissingBootROM
	}
	b.bootROM = make([]byte, 0x100)
	copy(b.bootROM, data[:0x100])
	b.bootEnabled = true
	return nil
}

// BootROMEnabled reports whether the overlay is still mapped.
func (b *Bus) BootROMEnabled() bool { return b.bootEnabled }

// oamDMACopy copies 160 bytes from src<<8 into OAM, bypassing mode locks.
func (b *Bus) oamDMACopy(src byte) {
	base := uint16(src) << 8
	for i := 0; i < 0xA0; i++ {
		b.ppu.DMAWriteOAM(i, b.dmaRead(base+uint16(i)))
	}
}

// dmaRead reads DMA source bytes without the CPU-side mode locks.
func (b *Bus) dmaRead(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr <= 0x9FFF:
		return b.ppu.RawVRAM(addr)
	case addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr <= 0xFDFF:
		return b.wram[addr&0x1FFF]
	default:
		return 0xFF
	}
}
