/*
 * HP48 - Saturn LCD renderer: 131x64 RGBA diff rendering.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package saturn

// Display geometry, in pixels. One nibble maps to 4 horizontal pixels;
// annunciators are not rendered into the buffer — their state is the
// Annunc device register, which a host draws as separate UI chrome.
const (
	DisplayWidth  = 131
	DisplayHeight = 64
	dispRows      = 64
)

const nibsPerBufferRow = NibblesPerRow + 2

var (
	pixelOn  = [3]uint8{0x10, 0x20, 0x10}
	pixelOff = [3]uint8{0xbc, 0xc4, 0xa5}
)

// NibbleReader resolves a display-area nibble without requiring the
// renderer to hold a mutable reference to CPU state; the caller
// closes over whatever memory/model context it needs.
type NibbleReader func(addr int32) uint8

// Display renders Saturn display memory into an RGBA framebuffer,
// using two diff buffers to redraw only nibbles that actually changed
// since the previous render (sentinel 0xf0 means "never drawn").
type Display struct {
	RGBA  []uint8
	Dirty bool

	dispBuf   [dispRows][nibsPerBufferRow]uint8
	lcdBuffer [dispRows][nibsPerBufferRow]uint8

	oldOffset int32
	oldLines  int32
}

// NewDisplay returns a Display pre-filled with the OFF background
// color and diff buffers invalidated so the first render is a full
// repaint.
func NewDisplay() *Display {
	d := &Display{
		RGBA:      make([]uint8, DisplayWidth*DisplayHeight*4),
		Dirty:     true,
		oldOffset: -1,
		oldLines:  -1,
	}
	for row := range d.dispBuf {
		for col := range d.dispBuf[row] {
			d.dispBuf[row][col] = 0xf0
			d.lcdBuffer[row][col] = 0xf0
		}
	}
	for i := 0; i < DisplayWidth*DisplayHeight; i++ {
		d.RGBA[i*4] = pixelOff[0]
		d.RGBA[i*4+1] = pixelOff[1]
		d.RGBA[i*4+2] = pixelOff[2]
		d.RGBA[i*4+3] = 0xff
	}
	return d
}

func (d *Display) fillPixel(x, y int32, v uint8) {
	if y >= DisplayHeight {
		return
	}
	px := x * 4
	for bit := int32(0); bit < 4; bit++ {
		col := px + bit
		if col >= DisplayWidth {
			break
		}
		c := pixelOff
		if (v>>uint(bit))&1 != 0 {
			c = pixelOn
		}
		off := (y*DisplayWidth + col) * 4
		d.RGBA[off] = c[0]
		d.RGBA[off+1] = c[1]
		d.RGBA[off+2] = c[2]
		d.RGBA[off+3] = 0xff
	}
	d.Dirty = true
}

func (d *Display) drawNibble(c, r int32, val uint8) {
	val &= 0xf
	if val != d.lcdBuffer[r][c] {
		d.lcdBuffer[r][c] = val
		d.fillPixel(c, r, val)
	}
}

func (d *Display) drawRow(read NibbleReader, addr, row, offset, lines int32) {
	lineLen := int32(NibblesPerRow)
	if offset > 3 && row <= lines {
		lineLen += 2
	}
	for i := int32(0); i < lineLen; i++ {
		v := read(addr + i)
		if v != d.dispBuf[row][i] {
			d.dispBuf[row][i] = v
			d.drawNibble(i, row, v)
		}
	}
}

// DispDrawNibble updates a single nibble in the main display area,
// called from the MMU write path when a write lands inside
// [dispStart, dispEnd).
func (d *Display) DispDrawNibble(dispStart, nibsPerLine, lines, addr int32, val uint8) {
	offset := addr - dispStart
	var x int32
	if nibsPerLine != 0 {
		x = offset % nibsPerLine
	} else {
		x = offset
	}
	if x < 0 || x > 35 {
		return
	}
	val &= 0xf
	if nibsPerLine != 0 {
		y := offset / nibsPerLine
		if y < 0 || y >= dispRows {
			return
		}
		if val != d.dispBuf[y][x] {
			d.dispBuf[y][x] = val
			d.drawNibble(x, y, val)
		}
		return
	}
	for y := int32(0); y < lines && y < dispRows; y++ {
		if val != d.dispBuf[y][x] {
			d.dispBuf[y][x] = val
			d.drawNibble(x, y, val)
		}
	}
}

// MenuDrawNibble updates a single nibble in the menu display area.
func (d *Display) MenuDrawNibble(menuStart, lines, addr int32, val uint8) {
	offset := addr - menuStart
	x := offset % NibblesPerRow
	y := lines + offset/NibblesPerRow + 1
	if y < 0 || y >= dispRows || x < 0 || x >= NibblesPerRow {
		return
	}
	val &= 0xf
	if val != d.dispBuf[y][x] {
		d.dispBuf[y][x] = val
		d.drawNibble(x, y, val)
	}
}

// Render repaints every changed nibble in the main display and menu
// areas, invalidating diff buffers when the firmware changes the
// scan offset or row count. When the display is off it clears
// everything to the OFF color.
func (d *Display) Render(on bool, read NibbleReader, dispStart, nibsPerLine, lines, offset, menuStart int32) {
	if !on {
		for row := range d.dispBuf {
			for col := range d.dispBuf[row] {
				d.dispBuf[row][col] = 0xf0
			}
		}
		for i := int32(0); i < dispRows; i++ {
			for j := int32(0); j < NibblesPerRow; j++ {
				d.drawNibble(j, i, 0)
			}
		}
		return
	}

	if offset != d.oldOffset {
		maxRow := lines
		if maxRow > dispRows-1 {
			maxRow = dispRows - 1
		}
		for row := int32(0); row <= maxRow; row++ {
			for col := range d.dispBuf[row] {
				d.dispBuf[row][col] = 0xf0
				d.lcdBuffer[row][col] = 0xf0
			}
		}
		d.oldOffset = offset
	}
	if lines != d.oldLines {
		for row := int32(56); row < dispRows; row++ {
			for col := range d.dispBuf[row] {
				d.dispBuf[row][col] = 0xf0
				d.lcdBuffer[row][col] = 0xf0
			}
		}
		d.oldLines = lines
	}

	addr := dispStart
	i := int32(0)
	for ; i <= lines; i++ {
		d.drawRow(read, addr, i, offset, lines)
		addr += nibsPerLine
	}
	if i < dispRows {
		addr = menuStart
		for ; i < dispRows; i++ {
			d.drawRow(read, addr, i, offset, lines)
			addr += NibblesPerRow
		}
	}
}
