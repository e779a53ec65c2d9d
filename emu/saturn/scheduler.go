/*
 * HP48 - Saturn instruction-counted scheduler.
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

// Service-I/O window: while PC is inside this range the drift
// correction budget defers itself rather than touching ACCESSTIME.
const (
	SrvcIOStart = 0x3c0
	SrvcIOEnd   = 0x5ec
)

// Budget reload constants, in instructions.
const (
	SchedInstrRollover = 0x3fffffff
	SchedReceive       = 0x7ff
	SchedAdjTime       = 0x1ffe
	SchedTimer1        = 0x1e00
	SchedTimer2        = 0xf
	SchedStatistics    = 0x7ffff
	SchedNever         = 0x7fffffff
	nrSamples          = 10
)

// Scheduler holds the free-running instruction counter and the eight
// budgets that fire timer ticks, device dispatch, serial polling, and
// drift correction.
type Scheduler struct {
	Instructions  uint32
	OldSchedInstr uint32

	ScheduleEvent  int32
	DeviceCheck    bool
	AdjTimePending bool
	SetT1          int32

	SchedInstrRollover int32
	SchedReceive       int32
	SchedAdjTime       int32
	SchedTimer1        int32
	SchedTimer2        int32
	SchedStatistics    int32
	SchedDisplay       int32

	T1IPerTick int32
	T2IPerTick int32

	S1, S16       uint32
	OldS1, OldS16 uint32

	OldStatInstr uint32
}

// NewScheduler returns a Scheduler with every budget at its reload value.
func NewScheduler() *Scheduler {
	return &Scheduler{
		SchedInstrRollover: SchedInstrRollover,
		SchedReceive:       SchedReceive,
		SchedAdjTime:       SchedAdjTime,
		SchedTimer1:        SchedTimer1,
		SchedTimer2:        SchedTimer2,
		SchedStatistics:    SchedStatistics,
		SchedDisplay:       SchedNever,
		T1IPerTick:         8192,
		T2IPerTick:         16,
	}
}

// Init seeds the timer1/timer2 budgets and their instructions-per-tick
// reloads from t1Tick/t2Tick, and SetT1 from timer1. The state file
// carries no tick ratios, so after a restore these are the Saturn's
// T1Tick/T2Tick as they stood before ReadState.
func (sc *Scheduler) Init(t1Tick, t2Tick int, timer1 int8) {
	sc.SchedTimer1 = int32(t1Tick)
	sc.T1IPerTick = int32(t1Tick)
	sc.SchedTimer2 = int32(t2Tick)
	sc.T2IPerTick = int32(t2Tick)
	sc.SetT1 = int32(timer1)
}
