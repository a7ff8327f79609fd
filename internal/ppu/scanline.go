package ppu

import "sort"

// VRAM-relative offsets of the two tile maps.
const (
	tileMap1 = 0x1800 // 0x9800
	tileMap2 = 0x1C00 // 0x9C00
)

// spriteAttr mirrors one 4-byte OAM record.
type spriteAttr struct {
	y, x, tile, flags byte
	oamIndex          int
}

const (
	objPriority = 1 << 7 // behind non-zero BG pixels
	objYFlip    = 1 << 6
	objXFlip    = 1 << 5
	objPalette  = 1 << 4 // OBP1 when set
)

// renderScanline produces the 160 pixels of line LY. Invoked once per
// visible scanline, at HBlank entry.
func (p *PPU) renderScanline() {
	if p.ly >= FrameHeight {
		return
	}

	usedWindow := false
	wxStart := int(p.wx) - 7

	for x := 0; x < FrameWidth; x++ {
		fetchWin := p.lcdc&(1<<5) != 0 && // window enable
			p.lcdc&(1<<0) != 0 && // BG/window master enable
			wxStart < FrameWidth &&
			p.wy < FrameHeight &&
			p.ly >= p.wy &&
			x >= wxStart

		switch {
		case fetchWin:
			usedWindow = true
			p.fb[int(p.ly)*FrameWidth+x] = p.fetchWindow(x)
		case p.lcdc&(1<<0) != 0:
			p.fb[int(p.ly)*FrameWidth+x] = p.fetchBackground(x)
		default:
			// master enable off: the line shows BGP color 0
			p.fb[int(p.ly)*FrameWidth+x] = Pixel{Pal: PalBG, Index: 0}
		}
	}

	if usedWindow {
		p.windowLine++
	}

	if p.lcdc&(1<<1) != 0 { // OBJ enable
		p.renderSprites()
	}
}

// tileRowIndex fetches the 2-bit color index for pixel (x%8) of row (y%8)
// of the given tile, honoring the LCDC tile-data addressing mode.
func (p *PPU) tileRowIndex(tileID byte, x, y int) byte {
	var base int
	if p.lcdc&(1<<4) != 0 {
		base = int(tileID) * 16 // 0x8000 unsigned
	} else {
		base = 0x1000 + int(int8(tileID))*16 // 0x9000 signed
	}
	base += 2 * (y % 8)
	bit := uint(7 - (x % 8))
	lo := p.vram[base]
	hi := p.vram[base+1]
	return ((lo >> bit) & 1) | (((hi >> bit) & 1) << 1)
}

func (p *PPU) bgTileMap() int {
	if p.lcdc&(1<<3) != 0 {
		return tileMap2
	}
	return tileMap1
}

func (p *PPU) winTileMap() int {
	if p.lcdc&(1<<6) != 0 {
		return tileMap2
	}
	return tileMap1
}

func (p *PPU) fetchBackground(xPos int) Pixel {
	x := int(byte(xPos) + p.scx) // wraps mod 256
	y := int(p.ly + p.scy)
	tileID := p.vram[p.bgTileMap()+((y/8)&31)*32+((x/8)&31)]
	return Pixel{Pal: PalBG, Index: p.tileRowIndex(tileID, x, y)}
}

func (p *PPU) fetchWindow(xPos int) Pixel {
	x := xPos - (int(p.wx) - 7)
	y := p.windowLine
	tileID := p.vram[p.winTileMap()+((y/8)&31)*32+((x/8)&31)]
	return Pixel{Pal: PalBG, Index: p.tileRowIndex(tileID, x, y)}
}

// scanOAM selects up to 10 sprites overlapping line LY, in OAM order.
func (p *PPU) scanOAM() {
	p.spriteBuf = p.spriteBuf[:0]
	tall := p.lcdc&(1<<2) != 0
	height := 8
	if tall {
		height = 16
	}
	for i := 0; i < len(p.oam); i += 4 {
		o := spriteAttr{
			y:        p.oam[i],
			x:        p.oam[i+1],
			tile:     p.oam[i+2],
			flags:    p.oam[i+3],
			oamIndex: i / 4,
		}
		onLine := o.x > 0 &&
			int(p.ly)+16 >= int(o.y) &&
			int(p.ly)+16 < int(o.y)+height
		if onLine {
			p.spriteBuf = append(p.spriteBuf, o)
			if len(p.spriteBuf) == 10 {
				break
			}
		}
	}
}

// renderSprites overlays the selected sprites. Draw order is highest X
// first so that the lowest X lands on top; among equal X the lower OAM
// index is drawn last and wins.
func (p *PPU) renderSprites() {
	p.scanOAM()

	for i, j := 0, len(p.spriteBuf)-1; i < j; i, j = i+1, j-1 {
		p.spriteBuf[i], p.spriteBuf[j] = p.spriteBuf[j], p.spriteBuf[i]
	}
	sort.SliceStable(p.spriteBuf, func(a, b int) bool {
		return p.spriteBuf[a].x > p.spriteBuf[b].x
	})

	tall := p.lcdc&(1<<2) != 0

	for _, obj := range p.spriteBuf {
		objY := int(p.ly) - (int(obj.y) - 16)

		rowOffset := 2 * (objY % 8)
		if obj.flags&objYFlip != 0 {
			rowOffset = 2 * (7 - (objY % 8))
		}

		pal := PalOBP0
		if obj.flags&objPalette != 0 {
			pal = PalOBP1
		}

		tileID := obj.tile
		if tall {
			topHalf := objY < 8
			if obj.flags&objYFlip != 0 {
				topHalf = !topHalf
			}
			if topHalf {
				tileID &= 0xFE
			} else {
				tileID |= 0x01
			}
		}

		base := int(tileID)*16 + rowOffset // sprites always use 0x8000 addressing
		lo := p.vram[base]
		hi := p.vram[base+1]

		baseX := int(obj.x) - 8
		for i := 0; i < 8; i++ {
			bit := uint(7 - i)
			if obj.flags&objXFlip != 0 {
				bit = uint(i)
			}
			idx := ((lo >> bit) & 1) | (((hi >> bit) & 1) << 1)
			if idx == 0 {
				continue // color 0 is transparent
			}
			xf := baseX + i
			if xf < 0 || xf >= FrameWidth {
				continue
			}
			bg := p.fb[int(p.ly)*FrameWidth+xf]
			if obj.flags&objPriority == 0 || bg.Index == 0 {
				p.fb[int(p.ly)*FrameWidth+xf] = Pixel{Pal: pal, Index: idx}
			}
		}
	}
}
