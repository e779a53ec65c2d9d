/*
 * HP48 - Saturn instruction decoder.
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

// TestCondJumpZeroDisplacementReturns covers the short conditional
// jump's hardware quirk: a taken jump whose displacement field reads
// as zero acts as a return instead of jumping to itself.
func TestCondJumpZeroDisplacementReturns(t *testing.T) {
	e := newTestEmulator()
	e.Saturn.pushReturnAddr(0x54321)

	e.PC = 0x10000 // megapage 1 is ROM, already zero-initialized

	e.condJump(2, true)

	if e.PC != 0x54321 {
		t.Fatalf("PC = %#x, want %#x (popped return address)", e.PC, 0x54321)
	}
}

// TestCondJumpTakenNonZeroDisplacement confirms the ordinary taken
// path still applies a signed relative jump when the displacement is
// not zero.
func TestCondJumpTakenNonZeroDisplacement(t *testing.T) {
	e := newTestEmulator()
	e.Mem.ROM[0x10000] = 0x5
	e.Mem.ROM[0x10001] = 0x0
	e.PC = 0x10000

	e.condJump(2, true)

	if e.PC != 0x10003 {
		t.Fatalf("PC = %#x, want %#x", e.PC, 0x10003)
	}
}

// TestCondJumpNotTakenSkipsDisplacement confirms a not-taken
// conditional jump still consumes the displacement field and falls
// through, never touching the return stack.
func TestCondJumpNotTakenSkipsDisplacement(t *testing.T) {
	e := newTestEmulator()
	e.PC = 0x10000

	e.condJump(2, false)

	if e.PC != 0x10002 {
		t.Fatalf("PC = %#x, want %#x (fell through)", e.PC, 0x10002)
	}
}
