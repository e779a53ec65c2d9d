/*
 * HP48 - Saturn processor types and tables.
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

// Package saturn emulates the Saturn 4-bit processor used by the HP-48
// S/SX and G/GX calculators: the instruction decoder, nibble ALU, MMU,
// MMIO device file, hardware timers, scheduler, display renderer,
// keyboard matrix, and speaker tone detector.
package saturn

// Model selects the calculator family. SX and GX differ in RAM/ROM
// size, memory controller layout, and whether bank switching exists.
type Model int

const (
	ModelSX Model = iota
	ModelGX
)

func (m Model) String() string {
	if m == ModelGX {
		return "GX"
	}
	return "SX"
}

// Field codes select a (start, end) nibble window into a 16-nibble
// register. Codes 0..14 and 16..18 are computed from the static
// startFields/endFields tables; P_FIELD and WP_FIELD extend to the
// runtime P register.
const (
	PField    uint8 = 0
	WPField   uint8 = 1
	XSField   uint8 = 2
	XField    uint8 = 3
	SField    uint8 = 4
	MField    uint8 = 5
	BField    uint8 = 6
	WField    uint8 = 7
	AField    uint8 = 15
	InField   uint8 = 16
	OutField  uint8 = 17
	OutsField uint8 = 18
)

// startFields/endFields give the static (start, end) nibble indices for
// field codes; a value of -1 means "substitute the runtime P register".
var startFields = [19]int{
	-1, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 2, 2, 3, 4, 0, 0,
	0, 0, 0,
}

var endFields = [19]int{
	-1, -1, 1, 2, 2, 14, 1, 15,
	15, 15, 15, 2, 14, 15, 0, 14,
	3, 2, 3,
}

// getStart/getEnd resolve a field code to a concrete nibble index,
// substituting the current P register where the static table holds -1.
func getStart(code uint8, p int) int {
	v := startFields[code]
	if v == -1 {
		return p
	}
	return v
}

func getEnd(code uint8, p int) int {
	v := endFields[code]
	if v == -1 {
		return p
	}
	return v
}

// Hex mode selector: the ALU carries in decimal (BCD) or hexadecimal.
const (
	Dec = 10
	Hex = 16
)

// Register file sizes.
const (
	nrRegNibbles = 16
	nrRstk       = 8
	nrPstat      = 16
	nrMctl       = 6
)

// ROM/RAM sizes per model, in nibbles.
const (
	RAMSizeSX = 0x10000
	RAMSizeGX = 0x40000
	ROMSizeSX = 0x080000
	ROMSizeGX = 0x100000
)

// Display geometry.
const (
	NibblesPerRow = 0x22
	dispInstrOff  = 0x10
)

// Annunciator bitmask values (nibble codes annunc takes on when set).
const (
	AnnLeft    = 0x81
	AnnRight   = 0x82
	AnnAlpha   = 0x84
	AnnBattery = 0x88
	AnnBusy    = 0x90
	AnnIO      = 0xa0
)

// Memory controller indices, SX layout.
const (
	MctlMMIOSX   = 0
	MctlSysRAMSX = 1
	MctlPort1SX  = 2
	MctlPort2SX  = 3
	MctlExtraSX  = 4
	MctlSysROMSX = 5
)

// Memory controller indices, GX layout (different from SX).
const (
	MctlMMIOGX   = 0
	MctlSysRAMGX = 1
	MctlBankGX   = 2
	MctlPort1GX  = 3
	MctlPort2GX  = 4
	MctlSysROMGX = 5
)

// nibbleMasks[i] clears/selects the i-th nibble (0 = least significant)
// within a 32-bit word; index 8..15 mirror 0..7 (only the low 8 nibbles
// of a 20-bit/32-bit address space are ever indexed this way).
var nibbleMasks = [16]uint32{
	0x0000000f, 0x000000f0, 0x00000f00, 0x0000f000,
	0x000f0000, 0x00f00000, 0x0f000000, 0xf0000000,
	0x0000000f, 0x000000f0, 0x00000f00, 0x0000f000,
	0x000f0000, 0x00f00000, 0x0f000000, 0xf0000000,
}

// MemCntl is one of the six programmable memory controllers: a base
// address is either unset (pending CONFIG writes) or holds up to two
// 20-bit values (the second being the complement of the size mask).
type MemCntl struct {
	Unconfigured int16
	Config       [2]int32
}
