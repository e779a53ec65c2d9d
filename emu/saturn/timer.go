/*
 * HP48 - Saturn hardware timers: T1, RUN, and IDLE wall-clock counters.
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

// Timer ids.
const (
	TimerT1 = iota
	TimerRun
	TimerIdle
	nrTimers
)

// Timer tracks elapsed wall-clock time across start/stop/restart, in
// fractional seconds relative to an arbitrary host clock.
type Timer struct {
	running bool
	elapsed float64 // accumulated seconds while stopped
	started float64 // host clock value when last started
}

// Timers bundles the three hardware timers the firmware can read.
type Timers struct {
	T [nrTimers]Timer
}

// Start begins (or resumes) timer n counting from now.
func (t *Timers) Start(n int, now float64) {
	tm := &t.T[n]
	if !tm.running {
		tm.started = now
		tm.running = true
	}
}

// Stop freezes timer n's accumulated elapsed time.
func (t *Timers) Stop(n int, now float64) {
	tm := &t.T[n]
	if tm.running {
		tm.elapsed += now - tm.started
		tm.running = false
	}
}

// Restart resets timer n to zero and starts it running from now.
func (t *Timers) Restart(n int, now float64) {
	tm := &t.T[n]
	tm.elapsed = 0
	tm.started = now
	tm.running = true
}

// Reset zeroes timer n's accumulated time without changing run state.
func (t *Timers) Reset(n int) {
	tm := &t.T[n]
	tm.elapsed = 0
	if tm.running {
		tm.started = 0
	}
}

// GetSecs returns timer n's total elapsed seconds as of now.
func (t *Timers) GetSecs(n int, now float64) float64 {
	tm := &t.T[n]
	if tm.running {
		return tm.elapsed + (now - tm.started)
	}
	return tm.elapsed
}

// secsToT1Encoding converts a seconds value to the firmware's 16 Hz T1
// hardware encoding: (sec << 9) | (usec / 62500).
func secsToT1Encoding(secs float64) uint32 {
	whole := int64(secs)
	usec := int64((secs - float64(whole)) * 1e6)
	return uint32(whole)<<9 | uint32(usec/62500)
}

// secsToEncoding8192 converts a seconds value to the firmware's 8192 Hz
// RUN/IDLE hardware encoding: (sec << 13) | ((usec << 7) / 15625).
func secsToEncoding8192(secs float64) uint32 {
	whole := int64(secs)
	usec := int64((secs - float64(whole)) * 1e6)
	return uint32(whole)<<13 | uint32((usec<<7)/15625)
}

// GetT1Encoding returns timer n's value in the 16 Hz T1 encoding.
func (t *Timers) GetT1Encoding(n int, now float64) uint32 {
	return secsToT1Encoding(t.GetSecs(n, now))
}

// GetEncoding8192 returns timer n's value in the 8192 Hz RUN/IDLE encoding.
func (t *Timers) GetEncoding8192(n int, now float64) uint32 {
	return secsToEncoding8192(t.GetSecs(n, now))
}
