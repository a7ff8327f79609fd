package cart

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrInvalidROM is returned when the ROM image is too short to carry a header.
var ErrInvalidROM = errors.New("cart: ROM image too small to contain a header")

// Cartridge defines the minimal interface the Bus needs for ROM/RAM banking.
// Implementations can be ROM-only or MBC variants. Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
	Write(addr uint16, value byte)
}

// BatteryBacked is an optional interface for cartridges with external RAM to be persisted.
// Implementations should return a copy of RAM bytes (may be empty if no RAM), and accept data to load.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// NewCartridge picks an implementation based on the ROM header.
// Known-but-unimplemented controller types are downgraded with a warning
// instead of failing the load.
func NewCartridge(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"title": h.Title,
		"type":  h.CartTypeStr,
		"rom":   h.ROMSizeBytes,
		"ram":   h.RAMSizeBytes,
	}).Info("cartridge loaded")

	switch h.CartType {
	case 0x00, 0x08, 0x09: // ROM only (0x08/0x09 carry unbanked RAM, treated the same)
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03: // MBC1 variants (RAM, RAM+BAT are transparent here)
		return NewMBC1(rom, h.ROMBanks, h.RAMSizeBytes), nil
	case 0x05, 0x06: // MBC2 variants
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13: // MBC3 variants (RTC registers accepted, not implemented)
		return NewMBC3(rom, h.ROMBanks, h.RAMSizeBytes), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E: // MBC5 variants
		return NewMBC5(rom, h.RAMSizeBytes), nil
	case 0x0B, 0x0C, 0x0D, 0x20, 0x22, 0xFC, 0xFD, 0xFE, 0xFF:
		// MMM01, MBC6, MBC7, Pocket Camera, TAMA5, HuC1/3: accepted but not
		// implemented; MBC1 behavior is the closest common denominator.
		logrus.WithField("type", h.CartTypeStr).Warn("unimplemented MBC type, falling back to MBC1")
		return NewMBC1(rom, h.ROMBanks, h.RAMSizeBytes), nil
	default:
		logrus.WithField("code", h.CartType).Warn("unknown cartridge type, falling back to ROM-only")
		return NewROMOnly(rom), nil
	}
}
