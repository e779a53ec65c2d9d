/*
 * HP48 - Saturn status, return-stack, configuration, and address actions.
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

// confTabSX/confTabGX give each memory controller's initial
// "unconfigured" write count on RESET; both models use the same
// table in the reference firmware.
var confTabSX = [nrMctl]int16{1, 2, 2, 2, 2, 0}
var confTabGX = [nrMctl]int16{1, 2, 2, 2, 2, 0}

// chipID is indexed by (controller, byte) and yields the two-byte
// identification value returned by C=ID for the first still
// unconfigured controller.
var chipID = [12]uint8{0, 0, 0, 0, 0x05, 0xf6, 0x07, 0xf8, 0x01, 0xf2, 0, 0}

func confTab(model Model) [nrMctl]int16 {
	if model == ModelGX {
		return confTabGX
	}
	return confTabSX
}

func (s *Saturn) clearStatus() {
	for i := range s.Pstat {
		s.Pstat[i] = false
	}
}

func (s *Saturn) statusToRegister(r regID) {
	reg := s.reg(r)
	for i := 0; i < nrPstat; i++ {
		nib, bit := i/4, uint(i%4)
		if s.Pstat[i] {
			reg[nib] |= 1 << bit
		} else {
			reg[nib] &^= 1 << bit
		}
	}
}

func (s *Saturn) registerToStatus(r regID) {
	reg := s.reg(r)
	for i := 0; i < nrPstat; i++ {
		nib, bit := i/4, uint(i%4)
		s.Pstat[i] = reg[nib]&(1<<bit) != 0
	}
}

func (s *Saturn) swapRegisterStatus(r regID) {
	reg := s.reg(r)
	for i := 0; i < nrPstat; i++ {
		nib, bit := i/4, uint(i%4)
		regBit := reg[nib]&(1<<bit) != 0
		statBit := s.Pstat[i]
		s.Pstat[i] = regBit
		if statBit {
			reg[nib] |= 1 << bit
		} else {
			reg[nib] &^= 1 << bit
		}
	}
}

func (s *Saturn) clearProgramStat(n int) { s.Pstat[n] = false }
func (s *Saturn) setProgramStat(n int)   { s.Pstat[n] = true }
func (s *Saturn) getProgramStat(n int) bool {
	return s.Pstat[n]
}

// Hardware status bits (XM, SB, SR, MP) are selected by a 4-bit mask:
// bit0=XM, bit1=SB, bit2=SR, bit3=MP.
func (s *Saturn) clearHardwareStat(mask int) {
	if mask&1 != 0 {
		s.XM = false
	}
	if mask&2 != 0 {
		s.SB = false
	}
	if mask&4 != 0 {
		s.SR = false
	}
	if mask&8 != 0 {
		s.MP = false
	}
}

func (s *Saturn) isZeroHardwareStat(mask int) bool {
	if mask&1 != 0 && s.XM {
		return false
	}
	if mask&2 != 0 && s.SB {
		return false
	}
	if mask&4 != 0 && s.SR {
		return false
	}
	if mask&8 != 0 && s.MP {
		return false
	}
	return true
}

// Register bit ops address a bit 0..15 within a register's low four
// nibbles (nib = bit/4, position = bit%4).
func (s *Saturn) getRegisterBit(r regID, bit int) bool {
	reg := s.reg(r)
	nib, pos := bit/4, uint(bit%4)
	return reg[nib]&(1<<pos) != 0
}

func (s *Saturn) setRegisterBit(r regID, bit int) {
	reg := s.reg(r)
	nib, pos := bit/4, uint(bit%4)
	reg[nib] |= 1 << pos
}

func (s *Saturn) clearRegisterBit(r regID, bit int) {
	reg := s.reg(r)
	nib, pos := bit/4, uint(bit%4)
	reg[nib] &^= 1 << pos
}

func (s *Saturn) getRegisterNibble(r regID, idx int) uint8 {
	return s.reg(r)[idx] & 0xf
}

func (s *Saturn) setRegisterNibble(r regID, idx int, v uint8) {
	s.reg(r)[idx] = v & 0xf
}

// pushReturnAddr pushes addr onto the 8-slot return stack; on
// overflow the oldest entry is dropped by shifting the remaining
// slots down before the new top is written.
func (s *Saturn) pushReturnAddr(addr int32) {
	if s.Rstkp >= nrRstk-1 {
		copy(s.Rstk[0:], s.Rstk[1:])
		s.Rstkp--
	}
	s.Rstkp++
	s.Rstk[s.Rstkp] = addr
}

// popReturnAddr pops and returns the top return address, or 0 if the
// stack is empty.
func (s *Saturn) popReturnAddr() int32 {
	if s.Rstkp < 0 {
		return 0
	}
	v := s.Rstk[s.Rstkp]
	s.Rstkp--
	return v
}

// doReset applies the model's initial memory-controller configuration
// counts, as performed by the RESET instruction.
func (s *Saturn) doReset(model Model) {
	tab := confTab(model)
	for i := range s.MemCntl {
		s.MemCntl[i].Unconfigured = tab[i]
		s.MemCntl[i].Config = [2]int32{0, 0}
	}
}

// cRegisterAddress assembles the 20-bit value held in C[0..4].
func (s *Saturn) cRegisterAddress() int32 {
	var val int32
	for i := 4; i >= 0; i-- {
		val = (val << 4) | int32(s.C[i]&0xf)
	}
	return val
}

// doConfigure assigns the 20-bit value in C to the first still
// unconfigured memory controller's next config slot.
func (s *Saturn) doConfigure() {
	val := s.cRegisterAddress()
	for i := range s.MemCntl {
		if s.MemCntl[i].Unconfigured > 0 {
			idx := s.MemCntl[i].Unconfigured - 1
			s.MemCntl[i].Config[idx] = val
			s.MemCntl[i].Unconfigured--
			return
		}
	}
}

// doUnconfigure resets the controller whose first config slot matches
// the value currently in C.
func (s *Saturn) doUnconfigure(model Model) {
	val := s.cRegisterAddress()
	tab := confTab(model)
	for i := range s.MemCntl {
		if s.MemCntl[i].Config[0] == val {
			s.MemCntl[i].Unconfigured = tab[i]
			s.MemCntl[i].Config = [2]int32{0, 0}
			return
		}
	}
}

// getIdentification writes the chip identification nibbles for the
// first still unconfigured controller into C[0..2].
func (s *Saturn) getIdentification() {
	idx := 0
	for i := range s.MemCntl {
		if s.MemCntl[i].Unconfigured > 0 {
			idx = i
			break
		}
	}
	hi, lo := chipID[idx*2], chipID[idx*2+1]
	val := uint16(hi)<<8 | uint16(lo)
	s.C[0] = uint8(val & 0xf)
	s.C[1] = uint8((val >> 4) & 0xf)
	s.C[2] = uint8((val >> 8) & 0xf)
}

// registerToAddress loads D0/D1 from a register's low nibbles; the
// short form transfers 4 nibbles (16-bit address), the full form 5.
func (s *Saturn) registerToAddress(r regID, dSel int, short bool) {
	reg := s.reg(r)
	n := 5
	if short {
		n = 4
	}
	var val int32
	for i := n - 1; i >= 0; i-- {
		val = (val << 4) | int32(reg[i]&0xf)
	}
	if dSel == 0 {
		s.D0 = val
	} else {
		s.D1 = val
	}
}

// addAddress adds delta to D0 (dSel==0) or D1 (dSel==1), masking the
// result to 20 bits and setting Carry iff the unmasked result carried
// or borrowed out of the 20-bit window.
func (s *Saturn) addAddress(dSel int, delta int32) {
	var d *int32
	if dSel == 0 {
		d = &s.D0
	} else {
		d = &s.D1
	}
	result := int64(*d) + int64(delta)
	if result < 0 || result&^0xfffff != 0 {
		s.Carry = 1
	} else {
		s.Carry = 0
	}
	*d = int32(result & 0xfffff)
}

// datToAddr reads the low 5 nibbles of a register as a 20-bit address.
func datToAddr(reg [nrRegNibbles]uint8) int32 {
	var val int32
	for i := 4; i >= 0; i-- {
		val = (val << 4) | int32(reg[i]&0xf)
	}
	return val
}

// addrToDat writes a 20-bit address into the low 5 nibbles of a register.
func addrToDat(addr int32, reg *[nrRegNibbles]uint8) {
	for i := 0; i < 5; i++ {
		reg[i] = uint8((addr >> (4 * i)) & 0xf)
	}
}

// doInton/doIntoff gate the master interrupt-enable flag checked by
// doInterrupt (and so by DoKbdInt) and set again by DoReturnInterrupt.
// KbdIEN is a separate flag, set specifically by RSI
// (DoResetInterruptSystem in emulator.go) and left untouched here.
func (s *Saturn) doInton() {
	s.IntEnable = true
}

func (s *Saturn) doIntoff() {
	s.IntEnable = false
}
