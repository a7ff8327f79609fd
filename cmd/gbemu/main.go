package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ui"
)

type cliFlags struct {
	ROMPath string
	BootROM string
	Scale   int
	Title   string
	SaveRAM bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		logrus.Fatal("-rom is required")
	}

	m := emu.New(emu.Config{})

	if f.BootROM != "" {
		boot, err := os.ReadFile(f.BootROM)
		if err != nil {
			logrus.WithError(err).Fatal("read boot ROM")
		}
		if err := m.LoadBootROM(boot); err != nil {
			logrus.WithError(err).Fatal("load boot ROM")
		}
	}
	if err := m.LoadROMFromFile(f.ROMPath); err != nil {
		logrus.WithError(err).Fatal("load ROM")
	}

	savePath := f.ROMPath + ".sav"
	if f.SaveRAM && m.HasBattery() {
		if data, err := os.ReadFile(savePath); err == nil {
			m.LoadBatteryRAM(data)
			logrus.WithField("path", savePath).Info("battery RAM loaded")
		}
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			logrus.Fatal(err)
		}
	} else {
		m.SetSerialWriter(os.Stdout)
		if err := ui.Run(m, f.Title, f.Scale); err != nil {
			logrus.WithError(err).Fatal("window loop")
		}
	}

	if f.SaveRAM && m.HasBattery() {
		if data := m.BatteryRAM(); len(data) > 0 {
			if err := os.WriteFile(savePath, data, 0o644); err != nil {
				logrus.WithError(err).Warn("write battery RAM")
			} else {
				logrus.WithField("path", savePath).Info("battery RAM saved")
			}
		}
	}
}

func runHeadless(m *emu.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		m.RunFrame()
	}

	fb := make([]byte, ppu.FrameWidth*ppu.FrameHeight*4)
	m.FramebufferRGBA(fb)
	crc := crc32.ChecksumIEEE(fb)
	logrus.WithFields(logrus.Fields{"frames": frames, "crc32": fmt.Sprintf("%08x", crc)}).Info("headless run done")

	if pngPath != "" {
		if err := writePNG(fb, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		logrus.WithField("path", pngPath).Info("framebuffer written")
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("framebuffer CRC mismatch: got %s want %s", got, want)
		}
	}
	return nil
}

func writePNG(fb []byte, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, ppu.FrameWidth, ppu.FrameHeight))
	copy(img.Pix, fb)
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}
