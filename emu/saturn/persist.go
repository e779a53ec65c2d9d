/*
 * HP48 - Saturn v0.4.0 binary state format, ROM/RAM nibble packing.
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

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	stateMagic  = 0x48503438
	minStateVer = 0x00040000
)

// ErrInvalidState is returned by ReadState when the blob's magic,
// version, or length make it unsafe to apply to a Saturn.
var ErrInvalidState = errors.New("saturn: invalid state blob")

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// WriteState serializes s into the v0.4.0 big-endian binary layout
// described by the wire-format specification: registers, pointers,
// status, return stack, key buffer, interrupt flags, the full MMIO
// device file, and the six memory controllers, in that fixed order.
func WriteState(s *Saturn) []byte {
	var buf bytes.Buffer
	w := func(v interface{}) { binary.Write(&buf, binary.BigEndian, v) }

	w(uint32(stateMagic))
	buf.Write([]byte{4, 4, 0, 0})

	for _, reg := range [][nrRegNibbles]uint8{s.A, s.B, s.C, s.D} {
		buf.Write(reg[:])
	}

	w(uint32(s.D0))
	w(uint32(s.D1))
	w(uint8(s.P))
	w(uint32(s.PC))

	for _, reg := range [][nrRegNibbles]uint8{s.R0, s.R1, s.R2, s.R3, s.R4} {
		buf.Write(reg[:])
	}

	buf.Write(s.In[:])
	buf.Write(s.Out[:])
	w(uint8(s.Carry))
	for _, f := range s.Pstat {
		buf.WriteByte(boolByte(f))
	}

	buf.Write([]byte{
		boolByte(s.XM), boolByte(s.SB), boolByte(s.SR), boolByte(s.MP),
		uint8(s.Hexmode),
	})

	for _, a := range s.Rstk {
		w(uint32(a))
	}
	w(uint16(s.Rstkp))

	for _, r := range s.Keybuf.Rows {
		w(uint16(r))
	}

	buf.Write([]byte{boolByte(s.IntEnable), boolByte(s.IntPending), boolByte(s.KbdIEN)})

	w(uint8(s.DispIO))
	w(uint8(s.Contrast))
	w(uint8(s.DispTest))
	w(uint16(s.CRC))
	w(uint8(s.Power))
	w(uint8(s.PowerMode))
	w(uint8(s.Annunc))
	w(uint8(s.Baud))
	w(uint8(s.CardCtrl))
	w(uint8(s.CardStatus))
	w(uint8(s.IOCtrl))
	w(uint8(s.RCS))
	w(uint8(s.TCS))
	w(uint8(s.SReq))
	w(uint8(s.IRCtrl))
	w(uint8(s.BaseOff))
	w(uint8(s.LCR))
	w(uint8(s.LBR))
	w(uint8(s.Scratch))
	w(uint8(s.BaseNibble))
	w(uint32(s.DispAddr))
	w(uint8(s.LineOffset))
	w(uint8(s.LineCount))
	w(uint8(s.Unknown))
	w(uint8(s.T1Ctrl))
	w(uint8(s.T2Ctrl))
	w(uint32(s.MenuAddr))
	w(uint8(s.Unknown2))
	w(int8(s.Timer1))
	w(uint32(s.Timer2))
	w(uint8(s.RBR))
	w(uint8(s.TBR))
	w(uint16(s.bankSwitch))

	for _, mc := range s.MemCntl {
		w(uint16(mc.Unconfigured))
		w(uint32(mc.Config[0]))
		w(uint32(mc.Config[1]))
	}

	return buf.Bytes()
}

// ReadState validates and applies a v0.4.0 state blob to s. On any
// validation failure s is left untouched and ErrInvalidState is
// returned; the caller should then fall back to NewSaturn defaults.
func ReadState(s *Saturn, data []byte) error {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil || magic != stateMagic {
		return ErrInvalidState
	}
	var ver [4]byte
	if _, err := r.Read(ver[:]); err != nil {
		return ErrInvalidState
	}
	verNum := uint32(ver[0])<<24 | uint32(ver[1])<<16 | uint32(ver[2])<<8 | uint32(ver[3])
	if verNum < minStateVer {
		return ErrInvalidState
	}

	var scratch Saturn
	rd := func(v interface{}) bool { return binary.Read(r, binary.BigEndian, v) == nil }
	readReg := func(reg *[nrRegNibbles]uint8) bool {
		n, err := r.Read(reg[:])
		return err == nil && n == nrRegNibbles
	}

	for _, reg := range []*[nrRegNibbles]uint8{&scratch.A, &scratch.B, &scratch.C, &scratch.D} {
		if !readReg(reg) {
			return ErrInvalidState
		}
	}

	var d0, d1, pc uint32
	var p uint8
	if !rd(&d0) || !rd(&d1) || !rd(&p) || !rd(&pc) {
		return ErrInvalidState
	}
	scratch.D0, scratch.D1, scratch.P, scratch.PC = int32(d0), int32(d1), p, int32(pc)

	for _, reg := range []*[nrRegNibbles]uint8{&scratch.R0, &scratch.R1, &scratch.R2, &scratch.R3, &scratch.R4} {
		if !readReg(reg) {
			return ErrInvalidState
		}
	}

	if n, err := r.Read(scratch.In[:]); err != nil || n != len(scratch.In) {
		return ErrInvalidState
	}
	if n, err := r.Read(scratch.Out[:]); err != nil || n != len(scratch.Out) {
		return ErrInvalidState
	}
	var carry uint8
	if !rd(&carry) {
		return ErrInvalidState
	}
	scratch.Carry = carry

	var pstat [nrPstat]byte
	if n, err := r.Read(pstat[:]); err != nil || n != nrPstat {
		return ErrInvalidState
	}
	for i, b := range pstat {
		scratch.Pstat[i] = b != 0
	}

	var hwFlags [5]byte
	if n, err := r.Read(hwFlags[:]); err != nil || n != len(hwFlags) {
		return ErrInvalidState
	}
	scratch.XM, scratch.SB, scratch.SR, scratch.MP = hwFlags[0] != 0, hwFlags[1] != 0, hwFlags[2] != 0, hwFlags[3] != 0
	scratch.Hexmode = int(hwFlags[4])

	for i := range scratch.Rstk {
		var a uint32
		if !rd(&a) {
			return ErrInvalidState
		}
		scratch.Rstk[i] = int32(a)
	}
	var rstkp uint16
	if !rd(&rstkp) {
		return ErrInvalidState
	}
	scratch.Rstkp = int(int16(rstkp))

	for i := range scratch.Keybuf.Rows {
		var row uint16
		if !rd(&row) {
			return ErrInvalidState
		}
		scratch.Keybuf.Rows[i] = int16(row)
	}

	var intFlags [3]byte
	if n, err := r.Read(intFlags[:]); err != nil || n != len(intFlags) {
		return ErrInvalidState
	}
	scratch.IntEnable, scratch.IntPending, scratch.KbdIEN = intFlags[0] != 0, intFlags[1] != 0, intFlags[2] != 0

	var crc16 uint16
	var dispAddr32, menuAddr32, timer2u32 uint32
	var timer1i8 int8
	var bankSwitch uint16
	ok := rd(&scratch.DispIO) && rd(&scratch.Contrast) && rd(&scratch.DispTest) && rd(&crc16) &&
		rd(&scratch.Power) && rd(&scratch.PowerMode) && rd(&scratch.Annunc) && rd(&scratch.Baud) &&
		rd(&scratch.CardCtrl) && rd(&scratch.CardStatus) && rd(&scratch.IOCtrl) &&
		rd(&scratch.RCS) && rd(&scratch.TCS) && rd(&scratch.SReq) && rd(&scratch.IRCtrl) &&
		rd(&scratch.BaseOff) && rd(&scratch.LCR) && rd(&scratch.LBR) && rd(&scratch.Scratch) && rd(&scratch.BaseNibble) &&
		rd(&dispAddr32) && rd(&scratch.LineOffset) && rd(&scratch.LineCount) &&
		rd(&scratch.Unknown) && rd(&scratch.T1Ctrl) && rd(&scratch.T2Ctrl) && rd(&menuAddr32) &&
		rd(&scratch.Unknown2) && rd(&timer1i8) && rd(&timer2u32) &&
		rd(&scratch.RBR) && rd(&scratch.TBR) && rd(&bankSwitch)
	if !ok {
		return ErrInvalidState
	}
	scratch.CRC = crc16
	scratch.DispAddr = int32(dispAddr32)
	scratch.MenuAddr = int32(menuAddr32)
	scratch.Timer1 = timer1i8
	scratch.Timer2 = timer2u32
	scratch.bankSwitch = int32(bankSwitch)

	for i := range scratch.MemCntl {
		var unconf uint16
		var c0, c1 uint32
		if !rd(&unconf) || !rd(&c0) || !rd(&c1) {
			return ErrInvalidState
		}
		scratch.MemCntl[i] = MemCntl{Unconfigured: int16(unconf), Config: [2]int32{int32(c0), int32(c1)}}
	}

	scratch.T1Tick, scratch.T2Tick = s.T1Tick, s.T2Tick
	*s = scratch
	return nil
}

// PackNibbles packs one-nibble-per-byte data into the canonical
// two-nibbles-per-byte, low-nibble-first wire format.
func PackNibbles(nibbles []uint8) []byte {
	out := make([]byte, (len(nibbles)+1)/2)
	for i, n := range nibbles {
		if i%2 == 0 {
			out[i/2] = n & 0xf
		} else {
			out[i/2] |= (n & 0xf) << 4
		}
	}
	return out
}

// UnpackNibbles expands packed two-nibbles-per-byte data (low nibble
// first) back into one nibble per byte.
func UnpackNibbles(packed []byte) []uint8 {
	out := make([]uint8, len(packed)*2)
	for i, b := range packed {
		out[i*2] = b & 0xf
		out[i*2+1] = (b >> 4) & 0xf
	}
	return out
}

// LoadROM accepts either a nibble-per-byte image or a packed
// two-nibbles-per-byte image, auto-detecting by comparing the input
// length against the model's expected unpacked nibble count.
func LoadROM(data []byte, model Model) []uint8 {
	want := ROMSizeSX
	if model == ModelGX {
		want = ROMSizeGX
	}
	if len(data) == want {
		return append([]uint8(nil), data...)
	}
	return UnpackNibbles(data)
}
