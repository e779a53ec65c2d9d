/*
 * HP48 - Saturn processor state.
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

// KeyState holds the raw 9-row keyboard matrix, 16 bits per row.
type KeyState struct {
	Rows [9]int16
}

// DisplayState holds the firmware-visible display geometry, derived
// from MMIO writes to disp_addr/line_offset/line_count/menu_addr.
type DisplayState struct {
	On          bool
	DispStart   int32
	DispEnd     int32
	Offset      int32
	Lines       int32
	NibsPerLine int32
	Contrast    int32
	MenuStart   int32
	MenuEnd     int32
	Annunc      int32
}

// Saturn is the complete processor state: working registers, scratch
// registers, pointers, flags, the device/MMIO file, and the memory
// controllers. Every nibble-sized field holds a value in [0, 15].
type Saturn struct {
	// Working registers and scratch registers, 16 nibbles each,
	// lowest index = least significant nibble.
	A, B, C, D         [nrRegNibbles]uint8
	R0, R1, R2, R3, R4 [nrRegNibbles]uint8

	D0, D1 int32 // Data pointers, 20-bit addresses.
	P      uint8 // Pointer register, 4 bits.
	PC     int32 // Program counter, 20-bit address.

	In  [4]uint8 // Keyboard/IO shadow register, 4 nibbles.
	Out [3]uint8 // IO shadow register, 3 nibbles.

	Carry uint8 // Carry / test-result bit.

	Pstat [nrPstat]bool // Program status flags.

	XM, SB, SR, MP bool // Hardware status bits.

	Hexmode int // 10 (decimal) or 16 (hexadecimal) ALU carry base.

	Rstk  [nrRstk]int32 // Return stack, 20-bit addresses.
	Rstkp int           // Stack pointer index; -1 means empty.

	Keybuf     KeyState
	IntEnable  bool
	IntPending bool
	KbdIEN     bool
	firstPress bool
	shutdown   bool
	bankSwitch int32

	T1Tick int // Scheduler reload constant for the T1 budget, ~8192.
	T2Tick int // Scheduler reload constant for the T2 budget, ~16.

	// Device file (MMIO 0x100..0x13F), in wire order — see persist.go.
	DispIO     uint8
	Contrast   uint8
	DispTest   uint8
	CRC        uint16
	Power      uint8
	PowerMode  uint8
	Annunc     uint8
	Baud       uint8
	CardCtrl   uint8
	CardStatus uint8
	IOCtrl     uint8
	RCS        uint8
	TCS        uint8
	SReq       uint8
	IRCtrl     uint8
	BaseOff    uint8
	LCR        uint8
	LBR        uint8
	Scratch    uint8
	BaseNibble uint8
	DispAddr   int32
	LineOffset uint8
	LineCount  uint8
	lineCounter int32
	Unknown    uint8
	T1Ctrl     uint8
	T2Ctrl     uint8
	MenuAddr   int32
	Unknown2   uint8
	Timer1     int8
	Timer2     uint32

	RBR uint8
	TBR uint8

	MemCntl [nrMctl]MemCntl

	Display DisplayState
}

// regID names the nine addressable registers used as the destination/
// source tags throughout the ALU and decoder, avoiding a mutable
// reference aliasing two fields of the same struct.
type regID int

const (
	regA regID = iota
	regB
	regC
	regD
	regR0
	regR1
	regR2
	regR3
	regR4
)

func (s *Saturn) reg(r regID) *[nrRegNibbles]uint8 {
	switch r {
	case regA:
		return &s.A
	case regB:
		return &s.B
	case regC:
		return &s.C
	case regD:
		return &s.D
	case regR0:
		return &s.R0
	case regR1:
		return &s.R1
	case regR2:
		return &s.R2
	case regR3:
		return &s.R3
	case regR4:
		return &s.R4
	default:
		panic("saturn: invalid register id")
	}
}

// NewSaturn returns a Saturn state with the reset defaults matching
// the firmware's expectations: hex mode, empty return stack, and the
// nominal tick-per-budget constants used before the scheduler's
// statistics pass has a real sample to work from.
func NewSaturn() *Saturn {
	s := &Saturn{
		Hexmode: Hex,
		Rstkp:   -1,
		T1Tick:  8192,
		T2Tick:  16,
	}
	return s
}
