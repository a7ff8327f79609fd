package ppu

import "testing"

// setTileRow writes one row of a tile directly into VRAM.
func setTileRow(p *PPU, base, tile, row int, lo, hi byte) {
	off := base + tile*16 + 2*row
	p.vram[off] = lo
	p.vram[off+1] = hi
}

func TestBackgroundScanlineUnsignedAddressing(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0x91 // LCD on, 0x8000 addressing, BG on

	// Tile 5 everywhere on map row 0; row 0 pixels all color index 1.
	for i := 0; i < 32; i++ {
		p.vram[tileMap1+i] = 5
	}
	setTileRow(p, 0x0000, 5, 0, 0xFF, 0x00)

	p.ly = 0
	p.renderScanline()

	for x := 0; x < FrameWidth; x++ {
		px := p.At(x, 0)
		if px.Pal != PalBG || px.Index != 1 {
			t.Fatalf("pixel %d got %+v want BG index 1", x, px)
		}
	}
}

func TestBackgroundSignedAddressing(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0x81 // LCD on, 0x8800 signed addressing, BG on

	// tile_id 0x80 (-128) resolves to 0x9000 - 128*16 = 0x8800.
	for i := 0; i < 32; i++ {
		p.vram[tileMap1+i] = 0x80
	}
	setTileRow(p, 0x0800, 0, 0, 0x00, 0xFF) // color index 2

	p.ly = 0
	p.renderScanline()
	if px := p.At(0, 0); px.Index != 2 {
		t.Fatalf("signed addressing pixel got %+v want index 2", px)
	}

	// tile_id 0x01 resolves to 0x9000 + 16.
	for i := 0; i < 32; i++ {
		p.vram[tileMap1+i] = 0x01
	}
	setTileRow(p, 0x1000, 1, 0, 0xFF, 0xFF) // color index 3
	p.renderScanline()
	if px := p.At(0, 0); px.Index != 3 {
		t.Fatalf("signed positive tile pixel got %+v want index 3", px)
	}
}

func TestBackgroundScrollWraps(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0x91
	p.scx = 252 // last tile column, wraps into column 0
	p.scy = 0

	// Column 31 is tile 1 (index 1 pixels), the rest tile 0 (index 0).
	p.vram[tileMap1+31] = 1
	setTileRow(p, 0x0000, 1, 0, 0xFF, 0x00)

	p.ly = 0
	p.renderScanline()

	// First 4 pixels come from column 31, the rest wrap to column 0.
	for x := 0; x < 4; x++ {
		if px := p.At(x, 0); px.Index != 1 {
			t.Fatalf("pre-wrap pixel %d got index %d want 1", x, px.Index)
		}
	}
	if px := p.At(4, 0); px.Index != 0 {
		t.Fatalf("post-wrap pixel got index %d want 0", px.Index)
	}
}

func TestBGDisabledForcesColorZero(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0x90 // LCD on, BG/window master disable

	for i := 0; i < 32; i++ {
		p.vram[tileMap1+i] = 5
	}
	setTileRow(p, 0x0000, 5, 0, 0xFF, 0xFF)

	p.ly = 0
	p.renderScanline()
	if px := p.At(0, 0); px.Index != 0 || px.Pal != PalBG {
		t.Fatalf("disabled BG pixel got %+v want BGP index 0", px)
	}
}

func TestWindowOverridesBackgroundAndCountsLines(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0xF1 // LCD on, window on (map 2), BG on, 0x8000 addressing
	p.wx = 7 + 80 // window starts at x=80
	p.wy = 0

	// BG map (map 1): tile 1, index 1. Window map (map 2): tile 2, index 2.
	for i := 0; i < 32*32; i++ {
		p.vram[tileMap1+i] = 1
		p.vram[tileMap2+i] = 2
	}
	for row := 0; row < 8; row++ {
		setTileRow(p, 0x0000, 1, row, 0xFF, 0x00)
		setTileRow(p, 0x0000, 2, row, 0x00, 0xFF)
	}

	p.ly = 0
	p.renderScanline()

	if px := p.At(79, 0); px.Index != 1 {
		t.Fatalf("left of window got index %d want 1", px.Index)
	}
	if px := p.At(80, 0); px.Index != 2 {
		t.Fatalf("window area got index %d want 2", px.Index)
	}
	if p.windowLine != 1 {
		t.Fatalf("window line counter got %d want 1", p.windowLine)
	}

	// A line above WY does not tick the counter.
	p.wy = 100
	p.ly = 1
	p.renderScanline()
	if p.windowLine != 1 {
		t.Fatalf("window line counter advanced without window: %d", p.windowLine)
	}
}

func TestWindowUsesInternalLineCounter(t *testing.T) {
	p, _ := newTestPPU()
	p.lcdc = 0xF1
	p.wx = 7
	p.wy = 2 // window appears from line 2

	for i := 0; i < 32*32; i++ {
		p.vram[tileMap2+i] = 0
	}
	// Window tile row 0 -> index 3, row 1 -> index 1.
	setTileRow(p, 0x0000, 0, 0, 0xFF, 0xFF)
	setTileRow(p, 0x0000, 0, 1, 0xFF, 0x00)

	p.ly = 2
	p.renderScanline()
	if px := p.At(0, 2); px.Index != 3 {
		t.Fatalf("first window line got index %d want 3 (internal row 0)", px.Index)
	}
	p.ly = 3
	p.renderScanline()
	if px := p.At(0, 3); px.Index != 1 {
		t.Fatalf("second window line got index %d want 1 (internal row 1)", px.Index)
	}
}
