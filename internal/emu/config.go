package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	// MaxFrameSteps bounds RunFrame against ROMs that never finish a frame
	// (LCD left disabled). Zero selects a generous default.
	MaxFrameSteps int
}

const defaultMaxFrameSteps = 70224
