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
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	s := NewSaturn()
	s.A = [nrRegNibbles]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf, 0}
	s.B = [nrRegNibbles]uint8{0xf, 0xe, 0xd, 0xc, 0xb, 0xa, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	s.D0 = 0x12345
	s.D1 = 0x6789a
	s.P = 7
	s.PC = 0xabcde
	s.Carry = 1
	s.Rstkp = 3
	s.Rstk[0] = 0x111
	s.Rstk[1] = 0x222
	s.CRC = 0xbeef
	s.Hexmode = Dec

	blob := WriteState(s)

	restored := NewSaturn()
	if err := ReadState(restored, blob); err != nil {
		t.Fatalf("ReadState: %v", err)
	}

	if restored.A != s.A || restored.B != s.B {
		t.Fatalf("A/B did not round-trip: got A=%v B=%v, want A=%v B=%v", restored.A, restored.B, s.A, s.B)
	}
	if restored.D0 != s.D0 || restored.D1 != s.D1 {
		t.Fatalf("D0/D1 did not round-trip: got %#x/%#x, want %#x/%#x", restored.D0, restored.D1, s.D0, s.D1)
	}
	if restored.P != s.P || restored.PC != s.PC {
		t.Fatalf("P/PC did not round-trip: got %d/%#x, want %d/%#x", restored.P, restored.PC, s.P, s.PC)
	}
	if restored.Carry != s.Carry {
		t.Fatalf("Carry did not round-trip: got %d, want %d", restored.Carry, s.Carry)
	}
	if restored.Rstkp != s.Rstkp || restored.Rstk != s.Rstk {
		t.Fatalf("return stack did not round-trip: got p=%d stk=%v, want p=%d stk=%v",
			restored.Rstkp, restored.Rstk, s.Rstkp, s.Rstk)
	}
	if restored.CRC != s.CRC {
		t.Fatalf("CRC did not round-trip: got %#x, want %#x", restored.CRC, s.CRC)
	}
	if restored.Hexmode != s.Hexmode {
		t.Fatalf("Hexmode did not round-trip: got %d, want %d", restored.Hexmode, s.Hexmode)
	}

	again := WriteState(restored)
	if !bytes.Equal(blob, again) {
		t.Fatalf("WriteState is not idempotent across a round-trip")
	}
}

func TestReadStateRejectsBadMagic(t *testing.T) {
	s := NewSaturn()
	blob := WriteState(s)
	blob[0] ^= 0xff
	if err := ReadState(NewSaturn(), blob); err == nil {
		t.Fatalf("ReadState accepted a blob with a corrupted magic")
	}
}

func TestPackUnpackNibblesRoundTrip(t *testing.T) {
	nibs := make([]uint8, 0, 256)
	for i := 0; i < 256; i++ {
		nibs = append(nibs, uint8(i&0xf))
	}
	packed := PackNibbles(nibs)
	if len(packed) != len(nibs)/2 {
		t.Fatalf("PackNibbles produced %d bytes, want %d", len(packed), len(nibs)/2)
	}
	unpacked := UnpackNibbles(packed)
	if !bytes.Equal(unpacked, nibs) {
		t.Fatalf("PackNibbles/UnpackNibbles did not round-trip")
	}
}
