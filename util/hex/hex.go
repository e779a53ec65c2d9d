/*
 * HP48 - Format Saturn nibbles, registers and addresses as hex text.
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

// Package hex formats Saturn register and memory nibbles for console
// output: the processor is nibble-addressed, so every formatter here
// works in units of 4 bits rather than bytes.
package hex

import "strings"

var hexMap = "0123456789ABCDEF"

// FormatNibbles writes one hex digit per nibble, most significant
// nibble first, with no separators.
func FormatNibbles(str *strings.Builder, nibs []uint8) {
	for _, n := range nibs {
		str.WriteByte(hexMap[n&0xf])
	}
}

// FormatNibblesLE is FormatNibbles for a register array stored least
// significant nibble first (Saturn's A/B/C/D/R0-R4 layout): it prints
// most significant first by walking the slice backwards.
func FormatNibblesLE(str *strings.Builder, nibs []uint8) {
	for i := len(nibs) - 1; i >= 0; i-- {
		str.WriteByte(hexMap[nibs[i]&0xf])
	}
}

// FormatAddr writes a 20-bit address as five hex digits.
func FormatAddr(str *strings.Builder, addr int32) {
	for shift := 16; shift >= 0; shift -= 4 {
		str.WriteByte(hexMap[(addr>>shift)&0xf])
	}
}

// FormatSpaced writes a nibble dump with a space every group nibbles,
// used for peek output longer than one register width.
func FormatSpaced(str *strings.Builder, nibs []uint8, group int) {
	for i, n := range nibs {
		if i != 0 && group > 0 && i%group == 0 {
			str.WriteByte(' ')
		}
		str.WriteByte(hexMap[n&0xf])
	}
}

// FormatDecimal writes num (0..999) as decimal digits with no padding.
func FormatDecimal(str *strings.Builder, num int) {
	if num >= 100 {
		str.WriteByte(hexMap[num/100])
		num %= 100
	}
	if num >= 10 {
		str.WriteByte(hexMap[num/10])
		num %= 10
	}
	str.WriteByte(hexMap[num])
}
