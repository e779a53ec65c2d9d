/*
 * HP48 - Serial wire stub.
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

// Transport is the wire-level hook the scheduler's receive/transmit
// budgets drive. The reference firmware's serial port is out of scope
// for this emulator; NullSerial is the default and
// a host may supply its own Transport without touching the scheduler.
type Transport interface {
	Init()
	SetBaud(baud uint8)
	TransmitChar(c uint8)
	ReceiveChar() (c uint8, ok bool)
}

// NullSerial implements Transport as a true no-op: every call is a
// no-op and ReceiveChar never has data waiting.
type NullSerial struct{}

func (NullSerial) Init()                  {}
func (NullSerial) SetBaud(uint8)          {}
func (NullSerial) TransmitChar(uint8)     {}
func (NullSerial) ReceiveChar() (uint8, bool) { return 0, false }
