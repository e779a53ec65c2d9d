/*
 * HP48 - Saturn 9-row keyboard matrix and event queue.
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

// KeyEvent is a single press/release transition on the keyboard matrix,
// identified by (row, bit-within-row).
type KeyEvent struct {
	Row     int
	Bit     uint
	Pressed bool
}

// Keyboard holds the host-supplied event queue; matrix transitions are
// only applied to Saturn.Keybuf at scheduler boundaries, never mid
// instruction, so a key event never interrupts the current opcode.
type Keyboard struct {
	queue []KeyEvent
}

// PushEvent appends a key transition from the host to the FIFO queue.
func (k *Keyboard) PushEvent(ev KeyEvent) {
	k.queue = append(k.queue, ev)
}

// Pending reports whether any row currently has a bit set.
func (k *Keyboard) Pending(s *Saturn) bool {
	for _, row := range s.Keybuf.Rows {
		if row != 0 {
			return true
		}
	}
	return false
}

// Drain applies every queued transition to the key matrix and empties
// the queue. Called once per scheduler pass, never mid instruction.
func (k *Keyboard) Drain(s *Saturn) bool {
	if len(k.queue) == 0 {
		return false
	}
	changed := false
	for _, ev := range k.queue {
		if ev.Row < 0 || ev.Row >= len(s.Keybuf.Rows) {
			continue
		}
		mask := int16(1 << ev.Bit)
		before := s.Keybuf.Rows[ev.Row]
		if ev.Pressed {
			s.Keybuf.Rows[ev.Row] |= mask
		} else {
			s.Keybuf.Rows[ev.Row] &^= mask
		}
		if s.Keybuf.Rows[ev.Row] != before {
			changed = true
		}
	}
	k.queue = k.queue[:0]
	return changed
}

// RowValue returns the OR of the 16-bit states of every keyboard row
// (0-8) whose bit is set in rowMask. DoIn passes the OUT register
// value as the mask, so OUT selects which rows the A=IN/C=IN scan sees.
func (k *Keyboard) RowValue(s *Saturn, rowMask uint16) uint16 {
	var val uint16
	for row := 0; row < len(s.Keybuf.Rows); row++ {
		if rowMask&(1<<row) != 0 {
			val |= uint16(s.Keybuf.Rows[row])
		}
	}
	return val
}
