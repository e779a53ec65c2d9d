/*
 * HP48 - Saturn speaker tone detector.
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

// hp48IPS is the nominal Saturn instruction rate (instructions per
// second) used to convert an instruction-count gap between OUT[2] bit-3
// toggles into an audible frequency.
const hp48IPS = 169000

const (
	speakerMinHz = 20
	speakerMaxHz = 20000
)

// Speaker derives a tone frequency from the firmware's OUT[2] bit-3
// toggling: the firmware bit-bangs the speaker line, so the emulator
// recovers a frequency by timing consecutive toggles in instruction
// counts rather than emulating an actual piezo waveform.
type Speaker struct {
	lastBit     bool
	lastToggle  int64
	haveToggle  bool
	frequencyHz float64
}

// Sample inspects the current OUT[2] bit-3 state at the given
// instruction count and updates the detected frequency on every
// high-to-low or low-to-high edge.
func (sp *Speaker) Sample(out2 uint8, instr int64) {
	bit := out2&0x8 != 0
	if bit == sp.lastBit {
		return
	}
	sp.lastBit = bit
	if sp.haveToggle {
		period := instr - sp.lastToggle
		if period > 0 {
			hz := hp48IPS / float64(2*period)
			if hz < speakerMinHz {
				hz = speakerMinHz
			} else if hz > speakerMaxHz {
				hz = speakerMaxHz
			}
			sp.frequencyHz = hz
		}
	}
	sp.lastToggle = instr
	sp.haveToggle = true
}

// FrequencyHz returns the most recently detected tone frequency.
func (sp *Speaker) FrequencyHz() float64 {
	return sp.frequencyHz
}

// Active reports whether the speaker line toggled recently enough
// (within two periods of the last detected tone, at the current
// instruction count) to still be considered sounding.
func (sp *Speaker) Active(instr int64) bool {
	if !sp.haveToggle || sp.frequencyHz <= 0 {
		return false
	}
	period := int64(hp48IPS / sp.frequencyHz)
	return instr-sp.lastToggle < 2*period
}
