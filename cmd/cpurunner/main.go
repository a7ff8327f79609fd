// cpurunner executes a test ROM headless and watches its serial output,
// which is how blargg-style suites report pass/fail.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/emu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	frames := flag.Int("frames", 3600, "max frames to run")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	flag.Parse()

	if *romPath == "" {
		logrus.Fatal("-rom is required")
	}

	m := emu.New(emu.Config{})

	if *bootPath != "" {
		boot, err := os.ReadFile(*bootPath)
		if err != nil {
			logrus.WithError(err).Fatal("read boot ROM")
		}
		if err := m.LoadBootROM(boot); err != nil {
			logrus.WithError(err).Fatal("load boot ROM")
		}
	}
	if err := m.LoadROMFromFile(*romPath); err != nil {
		logrus.WithError(err).Fatal("load ROM")
	}

	// Stream serial to stdout and capture in-memory for pattern detection.
	var ser bytes.Buffer
	m.SetSerialWriter(io.MultiWriter(os.Stdout, &ser))

	failRe := regexp.MustCompile(`(?i)failed(\s+\d+\s+tests?)?`)

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	for i := 0; i < *frames; i++ {
		m.RunFrame()

		out := ser.String()
		if *until != "" && strings.Contains(strings.ToLower(out), strings.ToLower(*until)) {
			fmt.Printf("\nmatched %q after %d frames (%s)\n", *until, i+1, time.Since(start).Truncate(time.Millisecond))
			os.Exit(0)
		}
		if *auto {
			if strings.Contains(strings.ToLower(out), "passed") {
				fmt.Printf("\npassed after %d frames (%s)\n", i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if failRe.MatchString(out) {
				fmt.Printf("\nfailure reported after %d frames:\n%s\n", i+1, out)
				os.Exit(1)
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\ntimeout after %d frames; serial so far:\n%s\n", i+1, ser.String())
			os.Exit(2)
		}
	}

	fmt.Printf("\nframe budget exhausted; serial so far:\n%s\n", ser.String())
	if *auto {
		os.Exit(1)
	}
}
