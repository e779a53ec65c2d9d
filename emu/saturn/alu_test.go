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

import "testing"

func allNibblesInRange(t *testing.T, name string, reg [nrRegNibbles]uint8) {
	t.Helper()
	for i, n := range reg {
		if n > 0xf {
			t.Fatalf("%s[%d] = %#x out of nibble range", name, i, n)
		}
	}
}

func TestAddHexCarry(t *testing.T) {
	s := NewSaturn()
	s.Hexmode = Hex
	for i := range s.A {
		s.A[i] = 0xf
	}
	s.B[0] = 1
	s.addRegister(regA, regA, regB, WField)

	for i, v := range s.A {
		if v != 0 {
			t.Fatalf("A[%d] = %#x, want 0", i, v)
		}
	}
	if s.Carry != 1 {
		t.Fatalf("Carry = %d, want 1", s.Carry)
	}
	allNibblesInRange(t, "A", s.A)
}

func TestAddDecimal(t *testing.T) {
	s := NewSaturn()
	s.Hexmode = Dec
	s.A[0] = 7
	s.B[0] = 5
	s.addRegister(regA, regA, regB, WField)

	if s.A[0] != 2 {
		t.Fatalf("A[0] = %d, want 2", s.A[0])
	}
	if s.A[1] != 1 {
		t.Fatalf("A[1] = %d, want 1", s.A[1])
	}
	if s.Carry != 0 {
		t.Fatalf("Carry = %d, want 0", s.Carry)
	}
	allNibblesInRange(t, "A", s.A)
}

func TestSubHexBorrow(t *testing.T) {
	s := NewSaturn()
	s.Hexmode = Hex
	s.A[0] = 3
	s.B[0] = 5
	s.subRegister(regA, regA, regB, WField)

	if s.A[0] != 0xe {
		t.Fatalf("A[0] = %#x, want 0xe", s.A[0])
	}
	if s.A[1] != 0xf {
		t.Fatalf("A[1] = %#x, want 0xf", s.A[1])
	}
	if s.Carry != 1 {
		t.Fatalf("Carry = %d, want 1", s.Carry)
	}
}

func TestShiftRightSetsSB(t *testing.T) {
	s := NewSaturn()
	s.A[0] = 1
	s.A[1] = 7
	s.shiftRightRegister(regA, WField)

	if s.A[0] != 7 {
		t.Fatalf("A[0] = %#x, want A[1]'s old value 7", s.A[0])
	}
	if s.A[15] != 0 {
		t.Fatalf("A[15] = %#x, want 0", s.A[15])
	}
	if !s.SB {
		t.Fatalf("SB = false, want true")
	}
}

func TestPFieldInc(t *testing.T) {
	s := NewSaturn()
	s.P = 3
	s.A[3] = 5
	s.incRegister(regA, PField)

	if s.A[3] != 6 {
		t.Fatalf("A[3] = %d, want 6", s.A[3])
	}
}

func TestReturnStackOverflow(t *testing.T) {
	s := NewSaturn()
	s.Rstkp = -1
	for i := int32(1); i <= 9; i++ {
		s.pushReturnAddr(i)
	}

	if s.Rstkp != nrRstk-1 {
		t.Fatalf("Rstkp = %d, want %d", s.Rstkp, nrRstk-1)
	}
	if s.Rstk[0] != 2 {
		t.Fatalf("Rstk[0] = %d, want 2 (first pushed address dropped)", s.Rstk[0])
	}
	if s.Rstk[nrRstk-1] != 9 {
		t.Fatalf("Rstk[7] = %d, want 9", s.Rstk[nrRstk-1])
	}

	top := s.popReturnAddr()
	if top != 9 {
		t.Fatalf("popReturnAddr() = %d, want 9", top)
	}
	if s.Rstkp != nrRstk-2 {
		t.Fatalf("Rstkp after pop = %d, want %d", s.Rstkp, nrRstk-2)
	}
}

func TestAddSubIsIdentity(t *testing.T) {
	s := NewSaturn()
	s.Hexmode = Hex
	a := [nrRegNibbles]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf, 0}
	b := [nrRegNibbles]uint8{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	s.A = a
	s.C = b

	s.addRegister(regA, regA, regC, WField)
	s.subRegister(regA, regA, regC, WField)

	if s.A != a {
		t.Fatalf("add then sub did not round-trip: got %v, want %v", s.A, a)
	}
}
