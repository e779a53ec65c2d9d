/*
 * HP48 - Saturn nibble ALU.
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

// Every ALU operation is scoped to a field-code window [start, end]
// (inclusive, lowest nibble first) and carries in s.Hexmode (10 or
// 16), matching the BCD-capable nibble ALU of the real hardware.

func (s *Saturn) window(code uint8) (int, int) {
	return getStart(code, int(s.P)), getEnd(code, int(s.P))
}

// addRegister computes dst := a + b over the field window, carry out
// set iff the most significant nibble produced a carry.
func (s *Saturn) addRegister(dst, a, b regID, code uint8) {
	rd, ra, rb := s.reg(dst), s.reg(a), s.reg(b)
	st, e := s.window(code)
	base := s.Hexmode
	carry := 0
	for i := st; i <= e; i++ {
		sum := int(ra[i]) + int(rb[i]) + carry
		if sum >= base {
			sum -= base
			carry = 1
		} else {
			carry = 0
		}
		rd[i] = uint8(sum)
	}
	s.Carry = uint8(carry)
}

// addPPlusOne adds (P+1) into register r starting at nibble 0,
// propagating the carry across nibbles 0..4.
func (s *Saturn) addPPlusOne(r regID) {
	reg := s.reg(r)
	base := s.Hexmode
	carry := int(s.P) + 1
	for i := 0; i <= 4; i++ {
		sum := int(reg[i]) + carry
		reg[i] = uint8(sum % base)
		carry = sum / base
		if carry == 0 {
			break
		}
	}
	if carry != 0 {
		s.Carry = 1
	} else {
		s.Carry = 0
	}
}

// subRegister computes dst := a - b over the field window; Carry
// reflects whether the final nibble borrowed.
func (s *Saturn) subRegister(dst, a, b regID, code uint8) {
	rd, ra, rb := s.reg(dst), s.reg(a), s.reg(b)
	st, e := s.window(code)
	base := s.Hexmode
	borrow := 0
	for i := st; i <= e; i++ {
		diff := int(ra[i]) - int(rb[i]) - borrow
		if diff < 0 {
			diff += base
			borrow = 1
		} else {
			borrow = 0
		}
		rd[i] = uint8(diff)
	}
	s.Carry = uint8(borrow)
}

// complement1Register performs a (base-1)-complement over the window.
func (s *Saturn) complement1Register(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	for i := st; i <= e; i++ {
		reg[i] = uint8(base - 1 - int(reg[i]))
	}
}

// complement2Register performs a base-complement (1's complement plus
// one) over the window; Carry is set iff the window is nonzero after
// the operation.
func (s *Saturn) complement2Register(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	carry := 1
	nonzero := false
	for i := st; i <= e; i++ {
		v := base - 1 - int(reg[i]) + carry
		if v >= base {
			v -= base
			carry = 1
		} else {
			carry = 0
		}
		reg[i] = uint8(v)
		if v != 0 {
			nonzero = true
		}
	}
	if nonzero {
		s.Carry = 1
	} else {
		s.Carry = 0
	}
}

// incRegister adds one to the window, stopping propagation at the
// first nibble that does not carry (so unaffected higher nibbles keep
// their value instead of being rewritten with an unchanged copy).
func (s *Saturn) incRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	carry := 1
	for i := st; i <= e; i++ {
		v := int(reg[i]) + carry
		if v >= base {
			reg[i] = uint8(v - base)
			carry = 1
		} else {
			reg[i] = uint8(v)
			carry = 0
			break
		}
	}
	s.Carry = uint8(carry)
}

// decRegister subtracts one from the window, stopping propagation at
// the first nibble that does not borrow.
func (s *Saturn) decRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	borrow := 1
	for i := st; i <= e; i++ {
		v := int(reg[i]) - borrow
		if v < 0 {
			reg[i] = uint8(v + base)
			borrow = 1
		} else {
			reg[i] = uint8(v)
			borrow = 0
			break
		}
	}
	s.Carry = uint8(borrow)
}

// addRegisterConstant adds a small immediate v into the window's
// lowest nibble, propagating carry across the whole window.
func (s *Saturn) addRegisterConstant(r regID, code uint8, v int) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	carry := v
	for i := st; i <= e; i++ {
		sum := int(reg[i]) + carry
		reg[i] = uint8(sum % base)
		carry = sum / base
		if carry == 0 {
			break
		}
	}
	if carry != 0 {
		s.Carry = 1
	} else {
		s.Carry = 0
	}
}

// subRegisterConstant subtracts a small immediate v from the window's
// lowest nibble, propagating borrow across the whole window.
func (s *Saturn) subRegisterConstant(r regID, code uint8, v int) {
	reg := s.reg(r)
	st, e := s.window(code)
	base := s.Hexmode
	borrow := v
	for i := st; i <= e; i++ {
		diff := int(reg[i]) - borrow
		if diff < 0 {
			n := (-diff + base - 1) / base
			diff += n * base
			borrow = n
		} else {
			borrow = 0
		}
		reg[i] = uint8(diff % base)
		if borrow == 0 {
			break
		}
	}
	s.Carry = uint8(borrow)
}

func (s *Saturn) zeroRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		reg[i] = 0
	}
}

func (s *Saturn) orRegister(dst, a, b regID, code uint8) {
	rd, ra, rb := s.reg(dst), s.reg(a), s.reg(b)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		rd[i] = (ra[i] | rb[i]) & 0xf
	}
}

func (s *Saturn) andRegister(dst, a, b regID, code uint8) {
	rd, ra, rb := s.reg(dst), s.reg(a), s.reg(b)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		rd[i] = (ra[i] & rb[i]) & 0xf
	}
}

func (s *Saturn) copyRegister(dst, src regID, code uint8) {
	rd, rs := s.reg(dst), s.reg(src)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		rd[i] = rs[i]
	}
}

// exchangeRegister swaps the windows of a and b, using a temporary
// copy so the two register tags may alias without half-applying the
// swap.
func (s *Saturn) exchangeRegister(a, b regID, code uint8) {
	ra, rb := s.reg(a), s.reg(b)
	st, e := s.window(code)
	var tmp [nrRegNibbles]uint8
	copy(tmp[st:e+1], ra[st:e+1])
	copy(ra[st:e+1], rb[st:e+1])
	copy(rb[st:e+1], tmp[st:e+1])
}

// datNibbles/setDatNibbles expose D0/D1 as a 5-nibble array so they
// can be exchanged against a register window like any other operand.
func datNibbles(d int32) [5]uint8 {
	var out [5]uint8
	for i := 0; i < 5; i++ {
		out[i] = uint8((d >> (4 * i)) & 0xf)
	}
	return out
}

func setDatNibbles(n [5]uint8) int32 {
	var d int32
	for i := 4; i >= 0; i-- {
		d = (d << 4) | int32(n[i]&0xf)
	}
	return d
}

// exchangeRegDat swaps register r's window against the nibbles of D0
// (dSel==0) or D1 (dSel==1).
func (s *Saturn) exchangeRegDat(r regID, dSel int, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	var dat *int32
	if dSel == 0 {
		dat = &s.D0
	} else {
		dat = &s.D1
	}
	n := datNibbles(*dat)
	for i := st; i <= e && i < 5; i++ {
		reg[i], n[i] = n[i], reg[i]
	}
	*dat = setDatNibbles(n)
}

// shiftLeftRegister shifts the window toward higher significance by
// one nibble, filling the low nibble with zero.
func (s *Saturn) shiftLeftRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	for i := e; i > st; i-- {
		reg[i] = reg[i-1]
	}
	reg[st] = 0
}

func (s *Saturn) shiftLeftCircRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	wrap := reg[e]
	for i := e; i > st; i-- {
		reg[i] = reg[i-1]
	}
	reg[st] = wrap
}

// shiftRightRegister shifts the window toward lower significance by
// one nibble; SB is set iff the low nibble was nonzero before the
// shift.
func (s *Saturn) shiftRightRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	s.SB = reg[st] != 0
	for i := st; i < e; i++ {
		reg[i] = reg[i+1]
	}
	reg[e] = 0
}

func (s *Saturn) shiftRightCircRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	wrap := reg[st]
	s.SB = wrap != 0
	for i := st; i < e; i++ {
		reg[i] = reg[i+1]
	}
	reg[e] = wrap
}

// shiftRightBitRegister shifts the window one *bit* to the right,
// treating the nibble window as a contiguous bit string; SB is set
// iff the window's lowest bit was set before the shift.
func (s *Saturn) shiftRightBitRegister(r regID, code uint8) {
	reg := s.reg(r)
	st, e := s.window(code)
	s.SB = reg[st]&1 != 0
	for i := st; i < e; i++ {
		reg[i] = (reg[i] >> 1) | ((reg[i+1] & 1) << 3)
	}
	reg[e] = reg[e] >> 1
}

func (s *Saturn) isZeroRegister(r regID, code uint8) bool {
	reg := s.reg(r)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		if reg[i] != 0 {
			return false
		}
	}
	return true
}

func (s *Saturn) isNotZeroRegister(r regID, code uint8) bool {
	return !s.isZeroRegister(r, code)
}

func (s *Saturn) isEqualRegister(a, b regID, code uint8) bool {
	ra, rb := s.reg(a), s.reg(b)
	st, e := s.window(code)
	for i := st; i <= e; i++ {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

func (s *Saturn) isNotEqualRegister(a, b regID, code uint8) bool {
	return !s.isEqualRegister(a, b, code)
}

// compareRegister compares a and b as multi-digit numbers, most
// significant nibble first; the first differing nibble decides the
// result. Returns -1, 0, or 1.
func (s *Saturn) compareRegister(a, b regID, code uint8) int {
	ra, rb := s.reg(a), s.reg(b)
	st, e := s.window(code)
	for i := e; i >= st; i-- {
		if ra[i] != rb[i] {
			if ra[i] < rb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (s *Saturn) isLessRegister(a, b regID, code uint8) bool {
	return s.compareRegister(a, b, code) < 0
}

func (s *Saturn) isLessOrEqualRegister(a, b regID, code uint8) bool {
	return s.compareRegister(a, b, code) <= 0
}

func (s *Saturn) isGreaterRegister(a, b regID, code uint8) bool {
	return s.compareRegister(a, b, code) > 0
}

func (s *Saturn) isGreaterOrEqualRegister(a, b regID, code uint8) bool {
	return s.compareRegister(a, b, code) >= 0
}
