/*
 * HP48 - Emulator: wires Saturn, Memory, Scheduler, Timers, Keyboard,
 * Speaker, and Display together and drives the frame loop.
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

// unix0Time is the firmware's epoch origin (0x0001cf2e_8f800000, a
// 64-bit tick count in the 8192 Hz RUN encoding) used to convert
// between host wall-clock time and the ACCESSTIME RAM cell.
const unix0Time = (int64(0x0001cf2e) << 32) | 0x8f800000

// Frame-loop tuning. TargetIPS approximates the host running ~27x a
// real Saturn; TargetIPSBeep drops close to native speed while a tone
// is sounding, since the speaker's pitch is derived from instruction
// timing and running too fast distorts it.
const (
	TargetIPS         = 5_000_000.0
	TargetIPSBeep     = 184_000.0
	MaxInstrPerFrame  = 100_000
	maxFrameElapsedMs = 100.0
)

// Emulator is the complete runnable machine: CPU state, address
// space, scheduler, timers, keyboard queue, speaker detector, display
// renderer, and the serial transport hook.
type Emulator struct {
	*Saturn
	Mem   *Memory
	Sched *Scheduler
	Timer *Timers
	Kbd   *Keyboard
	Spk   *Speaker
	Disp  *Display
	Model Model
	Wire  Transport

	devFlags DeviceFlags

	epochOffset int64
	timeOffset  int64
	set0Time    int64
}

// New builds an Emulator from ROM/RAM images for the given model. The
// caller restores persisted Saturn state afterward via persist.go's
// ReadState, which overwrites the zeroed defaults seeded here.
func New(model Model, rom, ram []uint8) *Emulator {
	e := &Emulator{
		Saturn: NewSaturn(),
		Mem:    NewMemory(rom, ram),
		Sched:  NewScheduler(),
		Timer:  &Timers{},
		Kbd:    &Keyboard{},
		Spk:    &Speaker{},
		Disp:   NewDisplay(),
		Model:  model,
		Wire:   NullSerial{},
	}
	e.doReset(model)
	return e
}

// Start begins the wall-clock timers and seeds the scheduler from the
// Saturn's T1Tick, T2Tick and Timer1. Call it after state restore and
// before the first RunFrame; it does not touch RAM (the ACCESSTIME
// cell is read lazily by getT1T2). Calling it twice is harmless, but
// calling it before state restore seeds the scheduler's SetT1 from the
// pre-restore Timer1.
func (e *Emulator) Start(now float64, unixEpochSecs int64) {
	e.Timer.Start(TimerRun, now)
	e.Timer.Start(TimerIdle, now)
	e.timeOffset = unix0Time + e.set0Time
	e.epochOffset = unixEpochSecs
	e.Sched.Init(e.T1Tick, e.T2Tick, e.Timer1)
}

// --- MMU-level nibble access, dispatched by model ---

func (e *Emulator) ReadNibble(addr int32) uint8 {
	if e.Model == ModelGX {
		return e.Mem.ReadNibbleGX(e.Saturn, &e.devFlags, addr)
	}
	return e.Mem.ReadNibbleSX(e.Saturn, &e.devFlags, addr)
}

func (e *Emulator) ReadNibbleDisplay(addr int32) uint8 {
	if e.Model == ModelGX {
		return e.Mem.ReadNibbleGXDisplay(e.Saturn, addr)
	}
	return e.Mem.ReadNibbleSX(e.Saturn, &e.devFlags, addr)
}

func (e *Emulator) ReadNibbleCRC(addr int32) uint8 {
	if e.Model == ModelGX {
		return e.Mem.ReadNibbleCRCGX(e.Saturn, addr)
	}
	return e.Mem.ReadNibbleCRCSX(e.Saturn, addr)
}

// ReadNibbles reads n nibbles starting at addr into a little-endian
// (least-significant-first) slice, as used by register load/store.
func (e *Emulator) ReadNibbles(addr int32, n int) []uint8 {
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		out[i] = e.ReadNibble(addr + int32(i))
	}
	return out
}

// WriteNibble writes a nibble through the MMU and, when the write
// landed in a RAM cell inside the display or menu windows, updates
// the incremental display diff buffers immediately.
func (e *Emulator) WriteNibble(addr int32, val uint8) {
	var wroteRAM bool
	if e.Model == ModelGX {
		wroteRAM = e.Mem.WriteNibbleGX(e.Saturn, &e.devFlags, addr, val)
	} else {
		wroteRAM = e.Mem.WriteNibbleSX(e.Saturn, &e.devFlags, addr, val)
	}
	if !wroteRAM || !e.Display.On {
		return
	}
	d := &e.Display
	if addr >= d.DispStart && addr < d.DispEnd {
		e.Disp.DispDrawNibble(d.DispStart, d.NibsPerLine, d.Lines, addr, val)
	} else if addr >= d.MenuStart && addr < d.MenuEnd {
		e.Disp.MenuDrawNibble(d.MenuStart, d.Lines, addr, val)
	}
}

func (e *Emulator) WriteNibbles(addr int32, vals []uint8) {
	for i, v := range vals {
		e.WriteNibble(addr+int32(i), v)
	}
}

// --- Register <-> memory transfer (STORE/RECALL opcode family) ---

// Store writes field [start,end] of register r into memory at addr.
func (e *Emulator) Store(r regID, addr int32, start, end int) {
	reg := e.reg(r)
	for i := start; i <= end; i++ {
		e.WriteNibble(addr+int32(i-start), reg[i])
	}
}

// Recall reads field [start,end] of memory at addr into register r.
func (e *Emulator) Recall(r regID, addr int32, start, end int) {
	reg := e.reg(r)
	for i := start; i <= end; i++ {
		reg[i] = e.ReadNibble(addr+int32(i-start)) & 0xf
	}
}

// LoadConstant writes n literal nibbles from lits into field r[start:].
func (e *Emulator) LoadConstant(r regID, start int, lits []uint8) {
	reg := e.reg(r)
	for i, v := range lits {
		reg[start+i] = v & 0xf
	}
}

// LoadAddr reads a 5-nibble address literal from the instruction
// stream starting at PC and advances PC past it.
func (e *Emulator) LoadAddr() int32 {
	addr := e.ReadNibbles(e.PC, 5)
	e.PC += 5
	var val int32
	for i := 4; i >= 0; i-- {
		val = (val << 4) | int32(addr[i])
	}
	return val
}

// --- Persistence ---

// SaveState serializes the emulator's CPU/MMIO state to the v0.4.0
// binary layout.
func (e *Emulator) SaveState() []byte { return WriteState(e.Saturn) }

// SaveRAM packs the emulator's RAM to the canonical two-nibbles-per-byte format.
func (e *Emulator) SaveRAM() []byte { return PackNibbles(e.Mem.RAM) }

// --- Configuration opcodes, delegated to actions.go ---

func (e *Emulator) DoConfigure()       { e.doConfigure() }
func (e *Emulator) DoUnconfigure()     { e.doUnconfigure(e.Model) }
func (e *Emulator) DoReset()           { e.doReset(e.Model) }
func (e *Emulator) GetIdentification() { e.getIdentification() }

// --- Keyboard ---

// DoIn implements the A=IN/C=IN opcodes' keyboard scan, including the
// firmware debounce patch at PC==0x00E31: when the scanned row lines
// up with one of three known false-retrigger patterns and this isn't
// the first press since the last DoIn call, the matched rows are
// cleared before being reported so the firmware sees a clean release.
func (e *Emulator) DoIn() uint16 {
	out := uint16(e.Out[0]) | uint16(e.Out[1])<<4 | uint16(e.Out[2])<<8
	inVal := e.Kbd.RowValue(e.Saturn, out)

	if e.PC == 0x00E31 && !e.firstPress &&
		((out&0x10 != 0 && inVal&0x1 != 0) ||
			(out&0x40 != 0 && inVal&0x7 != 0) ||
			(out&0x80 != 0 && inVal&0x2 != 0)) {
		for row := 0; row < len(e.Keybuf.Rows); row++ {
			if out&(1<<row) != 0 {
				e.Keybuf.Rows[row] = 0
			}
		}
		inVal = e.Kbd.RowValue(e.Saturn, out)
		e.firstPress = true
	} else {
		e.firstPress = false
	}

	e.In[0] = uint8(inVal) & 0xf
	e.In[1] = uint8(inVal>>4) & 0xf
	e.In[2] = uint8(inVal>>8) & 0xf
	e.In[3] = uint8(inVal>>12) & 0xf
	return inVal
}

// --- Interrupts ---

func (e *Emulator) doInterrupt(vector int32) {
	if !e.IntEnable {
		return
	}
	e.IntEnable = false
	e.pushReturnAddr(e.PC)
	e.PC = vector
}

// DoKbdInt fires the keyboard interrupt vector (0x0) when the
// keyboard-specific enable and the master enable both allow it.
func (e *Emulator) DoKbdInt() {
	if !e.KbdIEN {
		return
	}
	e.doInterrupt(0)
}

// DoResetInterruptSystem implements RSI: re-arms keyboard interrupts
// without touching the master enable flag toggled by INTON/INTOFF.
func (e *Emulator) DoResetInterruptSystem() {
	e.KbdIEN = true
}

// DoReturnInterrupt implements RTI: pop the saved PC and re-enable
// interrupts.
func (e *Emulator) DoReturnInterrupt() {
	e.PC = e.popReturnAddr()
	e.IntEnable = true
}

// --- Shutdown / low-power ---

// DoShutdown implements the SHUTDN opcode: the processor halts fetch
// until a keyboard event or enabled timer interrupt wakes it.
func (e *Emulator) DoShutdown() {
	e.shutdown = true
}

// DoShutdownCheck is polled by RunFrame's loop while the CPU is shut down;
// it wakes the CPU on a pending keyboard event or a fired interrupt.
func (e *Emulator) DoShutdownCheck() {
	if e.Kbd.Pending(e.Saturn) || e.IntPending {
		e.shutdown = false
		e.IntPending = false
	}
}

// --- Speaker ---

// CheckOutRegister samples the speaker edge from OUT[2] after an
// OUT=C/OUT=CS write.
func (e *Emulator) CheckOutRegister() {
	e.Spk.Sample(e.Out[2], int64(e.Sched.Instructions))
}

// --- Timer reconciliation (ACCESSTIME <-> timer2 drift correction) ---

const accessTimeOffsetSX = 0x52
const accessTimeOffsetGX = 0x58

// getT1T2 reconciles the firmware's ACCESSTIME RAM cell against the
// host wall clock, correcting for drift beyond 30 seconds (0x3c000
// ticks at 8192Hz) by folding it into set0Time rather than stepping
// timer2 discontinuously every call.
func (e *Emulator) getT1T2(now float64) uint32 {
	epochNow := int64(now) + e.epochOffset
	stop := secsToEncoding8192(float64(epochNow)) + uint32(e.timeOffset)

	off := int32(accessTimeOffsetSX)
	if e.Model == ModelGX {
		off = accessTimeOffsetGX
	}
	nibs := e.ReadNibbles(off, 13)
	var accessTime int64
	for i := 12; i >= 0; i-- {
		accessTime = (accessTime << 4) | int64(nibs[i]&0xf)
	}
	accessTime -= int64(stop)

	sanity := func(atLo int64) uint32 {
		t2 := int64(e.Timer2)
		diff := atLo - t2
		if diff < -0x8 || diff > 0x8 {
			e.Timer2++
			return uint32(t2)
		}
		return uint32(atLo)
	}

	if e.Sched.AdjTimePending {
		return sanity(accessTime & 0xffffffff)
	}

	adjTime := accessTime - int64(e.Timer2)
	if adjTime < 0 {
		adjTime = -adjTime
	}
	if adjTime > 0x3c000 {
		e.set0Time += accessTime - int64(e.Timer2)
		e.timeOffset = unix0Time + e.set0Time
		accessTime = int64(e.Timer2)
	}
	return sanity(accessTime & 0xffffffff)
}

// --- Display ---

// UpdateDisplay re-renders the display into the RGBA framebuffer from
// current MMU-visible state.
func (e *Emulator) UpdateDisplay() {
	d := &e.Display
	e.Disp.Render(d.On, e.ReadNibbleDisplay, d.DispStart, d.NibsPerLine, d.Lines, d.Offset, d.MenuStart)
}

// --- Device dispatch, scheduler, frame driver ---

// checkDevices fans touched-device flags out to their handlers: the
// display reschedules itself while its countdown is running, timers
// reset their scheduler budgets, and the serial transport is driven
// on RBR/TBR activity.
func (e *Emulator) checkDevices(now float64) {
	df := &e.devFlags
	if df.DisplayTouched > 0 {
		e.UpdateDisplay()
		df.DisplayTouched--
		if df.DisplayTouched > 0 {
			e.Sched.SchedDisplay = 1
		}
	}
	if df.ContrastTouched {
		df.ContrastTouched = false
	}
	if df.DispTestTouched {
		df.DispTestTouched = false
	}
	if df.BaudTouched {
		e.Wire.SetBaud(e.Baud)
		df.BaudTouched = false
	}
	if df.IOCTouched {
		if e.IOCtrl&0x02 != 0 && e.RCS&0x01 != 0 {
			e.doInterrupt(0x8)
		}
		df.IOCTouched = false
	}
	if df.RBRTouched {
		if c, ok := e.Wire.ReceiveChar(); ok {
			e.RBR = c
			e.RCS |= 0x01
		}
		df.RBRTouched = false
	}
	if df.TBRTouched {
		e.Wire.TransmitChar(e.TBR)
		e.TCS &^= 0x01
		df.TBRTouched = false
	}
	if df.T1Touched {
		e.Sched.SchedTimer1 = e.Sched.T1IPerTick
		e.Timer.Restart(TimerT1, now)
		e.Sched.SetT1 = int32(e.Timer1)
		df.T1Touched = false
	}
	if df.T2Touched {
		e.Sched.SchedTimer2 = e.Sched.T2IPerTick
		df.T2Touched = false
	}
	e.CheckOutRegister()
}

// schedule runs the eight instruction-counted budgets, firing timer
// ticks, device rechecks, serial polling, drift correction, and
// periodic statistics resampling. It is called whenever
// Sched.ScheduleEvent reaches zero.
func (e *Emulator) schedule(now float64) {
	sc := e.Sched
	steps := int32(sc.Instructions - sc.OldSchedInstr)
	sc.OldSchedInstr = sc.Instructions

	min := sc.SchedInstrRollover

	sc.SchedTimer2 -= steps
	if sc.SchedTimer2 <= 0 {
		if e.T2Ctrl&0x01 != 0 {
			if e.Timer2 > 0 {
				e.Timer2--
			}
			if e.Timer2 == 0 && e.T2Ctrl&0x02 != 0 && e.T2Ctrl&0x08 == 0 {
				e.T2Ctrl |= 0x08
				e.doInterrupt(0xC)
			}
		}
		sc.SchedTimer2 = sc.T2IPerTick
	}
	if sc.SchedTimer2 < min {
		min = sc.SchedTimer2
	}

	if sc.SchedDisplay > 0 {
		sc.SchedDisplay -= steps
		if sc.SchedDisplay <= 0 {
			e.checkDevices(now)
			sc.SchedDisplay = SchedNever
		}
	}
	if sc.SchedDisplay > 0 && sc.SchedDisplay < min {
		min = sc.SchedDisplay
	}

	sc.SchedReceive -= steps
	if sc.SchedReceive <= 0 {
		if e.RCS&0x01 == 0 {
			if c, ok := e.Wire.ReceiveChar(); ok {
				e.RBR = c
				e.RCS |= 0x01
			}
		}
		sc.SchedReceive = SchedReceive
	}
	if sc.SchedReceive < min {
		min = sc.SchedReceive
	}

	sc.SchedAdjTime -= steps
	if sc.SchedAdjTime <= 0 {
		if e.PC < SrvcIOStart || e.PC > SrvcIOEnd {
			at := e.getT1T2(now)
			sc.AdjTimePending = false
			delta := int64(at) - int64(e.Timer2)
			if delta != 0 {
				if e.T1Ctrl&0x08 == 0 {
					if e.T1Ctrl&0x02 != 0 {
						e.doInterrupt(0x4)
					}
					e.T1Ctrl |= 0x08
				}
			}
		} else {
			sc.AdjTimePending = true
		}
		sc.SchedAdjTime = SchedAdjTime
	}
	if sc.SchedAdjTime < min {
		min = sc.SchedAdjTime
	}

	sc.SchedTimer1 -= steps
	if sc.SchedTimer1 <= 0 {
		e.Timer1 = int8((int(e.Timer1) - 1) & 0xf)
		if e.T1Ctrl&0x02 != 0 {
			e.doInterrupt(0x4)
		}
		sc.SchedTimer1 = sc.T1IPerTick
	}
	if sc.SchedTimer1 < min {
		min = sc.SchedTimer1
	}

	sc.SchedStatistics -= steps
	if sc.SchedStatistics <= 0 {
		s1 := e.Timer.GetT1Encoding(TimerRun, now)
		s16 := e.Timer.GetEncoding8192(TimerRun, now)
		if sc.OldS1 != 0 {
			dInstr := int32(sc.Instructions - sc.OldStatInstr)
			dS1 := int32(s1 - sc.OldS1)
			dS16 := int32(s16 - sc.OldS16)
			if dS1 > 0 {
				sc.T1IPerTick = (sc.T1IPerTick + dInstr/dS1) / 2
			}
			if dS16 > 0 {
				sc.T2IPerTick = (sc.T2IPerTick + dInstr/dS16) / 2
			}
		}
		sc.OldS1, sc.OldS16 = s1, s16
		sc.OldStatInstr = sc.Instructions
		sc.SchedStatistics = SchedStatistics
	}
	if sc.SchedStatistics < min {
		min = sc.SchedStatistics
	}

	sc.SchedInstrRollover -= steps
	if sc.SchedInstrRollover <= 0 {
		sc.Instructions = 1
		sc.OldSchedInstr = 0
		e.Timer.Restart(TimerRun, now)
		sc.SchedInstrRollover = SchedInstrRollover
	}
	if sc.SchedInstrRollover < min {
		min = sc.SchedInstrRollover
	}

	if e.Kbd.Drain(e.Saturn) {
		e.DoKbdInt()
	}

	sc.ScheduleEvent = min
}

// RunFrame advances the emulator by roughly elapsedMs of wall-clock
// time, converting that into an instruction budget at TargetIPS (or
// the slower TargetIPSBeep while the speaker is actively toggling),
// capped at MaxInstrPerFrame so a debugger pause never produces a
// runaway catch-up burst.
func (e *Emulator) RunFrame(elapsedMs float64, now float64, step func()) {
	if elapsedMs > maxFrameElapsedMs {
		elapsedMs = maxFrameElapsedMs
	}

	rate := TargetIPS
	if e.Spk.Active(int64(e.Sched.Instructions)) {
		rate = TargetIPSBeep
	}

	budget := int(elapsedMs / 1000.0 * rate)
	if budget > MaxInstrPerFrame {
		budget = MaxInstrPerFrame
	}

	for n := 0; n < budget; n++ {
		if e.shutdown {
			e.DoShutdownCheck()
			if e.shutdown {
				break
			}
		}
		e.Sched.Instructions++
		step()
		e.Sched.ScheduleEvent--
		if e.Sched.ScheduleEvent <= 0 {
			e.schedule(now)
		}
	}
}
