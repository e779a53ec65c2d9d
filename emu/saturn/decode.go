/*
 * HP48 - Saturn instruction decoder: nibble-addressed prefix-tree
 * dispatch from the current PC to an ALU, MMU, or control-flow action.
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

// jumpMasks gives the sign-extension threshold applied to a relative
// jump displacement of n nibbles, so a negative displacement subtracts
// correctly from PC regardless of encoded width.
var jumpMasks = map[int]int32{2: 0x80, 3: 0x800, 4: 0x8000}

// fetchNibble reads the nibble at PC and advances PC by one.
func (e *Emulator) fetchNibble() uint8 {
	v := e.ReadNibble(e.PC)
	e.PC++
	return v
}

// fetchField reads n nibbles starting at PC as a little-endian value
// and advances PC past them, used for jump displacements and literals.
func (e *Emulator) fetchField(n int) int32 {
	var val int32
	for i := 0; i < n; i++ {
		val |= int32(e.fetchNibble()) << uint(4*i)
	}
	return val
}

// peekField reads n nibbles starting at PC without advancing PC, used
// where an opcode's continuation depends on the raw field value (the
// GOC/GOTO NOP and TRAP special cases).
func (e *Emulator) peekField(n int) int32 {
	var val int32
	for i := 0; i < n; i++ {
		val |= int32(e.ReadNibble(e.PC+int32(i))) << uint(4*i)
	}
	return val
}

// condJump applies a relative jump of n hex-digit width if cond is
// true, sign-extending the displacement; it always consumes the
// displacement field from the instruction stream regardless of cond,
// matching real hardware (the PC has already moved past the opcode).
//
// The short (2-nibble) family has a hardware quirk: when the jump is
// taken and the displacement reads as zero, the instruction acts as
// a return instead of a self-jump.
func (e *Emulator) condJump(n int, cond bool) {
	base := e.PC
	disp := e.fetchField(n)
	if cond && n == 2 && disp == 0 {
		e.PC = e.popReturnAddr()
		return
	}
	if mask, ok := jumpMasks[n]; ok && disp >= mask {
		disp -= mask << 1
	}
	if cond {
		e.PC = base + disp - int32(n)
	}
}

// condCall is condJump's CALL-family counterpart: it pushes the
// return address (the instruction after the displacement field)
// before redirecting PC.
func (e *Emulator) condCall(n int, cond bool) {
	base := e.PC
	disp := e.fetchField(n)
	if mask, ok := jumpMasks[n]; ok && disp >= mask {
		disp -= mask << 1
	}
	if cond {
		e.pushReturnAddr(e.PC)
		e.PC = base + disp - int32(n)
	}
}

// fieldStore/fieldRecall move a register's field-code window to or
// from memory addressed by D0 (dSel==0) or D1 (dSel==1).
func (e *Emulator) fieldStore(r regID, code uint8, dSel int) {
	addr := e.D0
	if dSel == 1 {
		addr = e.D1
	}
	st, en := e.window(code)
	e.Store(r, addr, st, en)
}

func (e *Emulator) fieldRecall(r regID, code uint8, dSel int) {
	addr := e.D0
	if dSel == 1 {
		addr = e.D1
	}
	st, en := e.window(code)
	e.Recall(r, addr, st, en)
}

// fieldStoreN/fieldRecallN are the literal-width (not field-code)
// counterparts used by the n-nibble STO/RCL instructions, which
// always move register nibbles 0..n-1.
func (e *Emulator) fieldStoreN(r regID, n, dSel int) {
	addr := e.D0
	if dSel == 1 {
		addr = e.D1
	}
	e.Store(r, addr, 0, n-1)
}

func (e *Emulator) fieldRecallN(r regID, n, dSel int) {
	addr := e.D0
	if dSel == 1 {
		addr = e.D1
	}
	e.Recall(r, addr, 0, n-1)
}

// decodeGroup80 covers opcode prefix 8 0 x: system/control
// instructions (OUT=, keyboard scan, memory configuration, chip
// identification, shutdown, INTON and RSI). Sub-opcodes 0xa-0xf are
// all decoded as literal loads into C; there is no INTOFF arm.
func (e *Emulator) decodeGroup80() {
	op := e.fetchNibble()
	switch op {
	case 0x0: // OUT=CS
		v := e.getRegisterNibble(regC, 0)
		e.Out[0] = v
		e.CheckOutRegister()
	case 0x1: // OUT=C
		e.Out[0] = e.getRegisterNibble(regC, 0)
		e.Out[1] = e.getRegisterNibble(regC, 1)
		e.Out[2] = e.getRegisterNibble(regC, 2)
		e.CheckOutRegister()
	case 0x2: // A=IN
		v := e.DoIn()
		for i := 0; i < 4; i++ {
			e.A[i] = uint8(v>>(4*i)) & 0xf
		}
	case 0x3: // C=IN
		v := e.DoIn()
		for i := 0; i < 4; i++ {
			e.C[i] = uint8(v>>(4*i)) & 0xf
		}
	case 0x4: // UNCNFG
		e.DoUnconfigure()
	case 0x5: // CONFIG
		e.DoConfigure()
	case 0x6: // C=ID
		e.GetIdentification()
	case 0x7: // SHUTDN
		e.DoShutdown()
	case 0x8: // INTON
		e.doInton()
	case 0x9: // RSI
		e.DoResetInterruptSystem()
	default:
		// 0xa-0xf: LA(n) long literal loads, width selected by op.
		width := int(op-0xa) + 1
		lits := make([]uint8, width)
		for i := 0; i < width; i++ {
			lits[i] = e.fetchNibble()
		}
		e.LoadConstant(regC, 0, lits)
	}
}

// decodeGroup1 covers top nibble 1: the D0/D1 pointer-register
// instruction family — register<->pointer moves, pointer exchanges,
// STORE/RECALL (field-code and literal-width forms), and pointer
// arithmetic/indirect loads.
func (e *Emulator) decodeGroup1() {
	op2 := e.fetchNibble()
	switch op2 {
	case 0x0: // Rn=A, field W
		e.decodeRnMove(regA, true)
	case 0x1: // A=Rn, field W
		e.decodeRnMove(regA, false)
	case 0x2: // A/C R exchange, field W
		e.decodeRnExchange()
	case 0x3:
		e.decodeD0D1Moves()
	case 0x4: // STO/RCL, field-code form
		op3 := e.fetchNibble()
		code := WField
		if op3 >= 8 {
			code = BField
		}
		switch op3 & 7 {
		case 0:
			e.fieldStore(regA, code, 0)
		case 1:
			e.fieldStore(regA, code, 1)
		case 2:
			e.fieldRecall(regA, code, 0)
		case 3:
			e.fieldRecall(regA, code, 1)
		case 4:
			e.fieldStore(regC, code, 0)
		case 5:
			e.fieldStore(regC, code, 1)
		case 6:
			e.fieldRecall(regC, code, 0)
		case 7:
			e.fieldRecall(regC, code, 1)
		}
	case 0x5: // STO/RCL, literal-width or field-code depending on op3
		op3 := e.fetchNibble()
		op4 := e.fetchNibble()
		if op3 >= 8 {
			n := int(op4) + 1
			switch op3 & 7 {
			case 0:
				e.fieldStoreN(regA, n, 0)
			case 1:
				e.fieldStoreN(regA, n, 1)
			case 2:
				e.fieldRecallN(regA, n, 0)
			case 3:
				e.fieldRecallN(regA, n, 1)
			case 4:
				e.fieldStoreN(regC, n, 0)
			case 5:
				e.fieldStoreN(regC, n, 1)
			case 6:
				e.fieldRecallN(regC, n, 0)
			case 7:
				e.fieldRecallN(regC, n, 1)
			}
		} else {
			code := op4
			switch op3 {
			case 0:
				e.fieldStore(regA, code, 0)
			case 1:
				e.fieldStore(regA, code, 1)
			case 2:
				e.fieldRecall(regA, code, 0)
			case 3:
				e.fieldRecall(regA, code, 1)
			case 4:
				e.fieldStore(regC, code, 0)
			case 5:
				e.fieldStore(regC, code, 1)
			case 6:
				e.fieldRecall(regC, code, 0)
			case 7:
				e.fieldRecall(regC, code, 1)
			}
		}
	case 0x6: // D0=D0+(n+1)
		n := int(e.fetchNibble())
		e.addAddress(0, int32(n+1))
	case 0x7: // D1=D1+(n+1)
		n := int(e.fetchNibble())
		e.addAddress(1, int32(n+1))
	case 0x8: // D0=D0-(n+1)
		n := int(e.fetchNibble())
		e.addAddress(0, -int32(n+1))
	case 0x9: // D0=(2) literal address
		e.D0 = e.fetchField(2)
	case 0xa: // D0=(4) literal address
		e.D0 = e.fetchField(4)
	case 0xb: // D0=(5) literal address
		e.D0 = e.fetchField(5)
	case 0xc: // D1=D1-(n+1)
		n := int(e.fetchNibble())
		e.addAddress(1, -int32(n+1))
	case 0xd: // D1=(2) literal address
		e.D1 = e.fetchField(2)
	case 0xe: // D1=(4) literal address
		e.D1 = e.fetchField(4)
	case 0xf: // D1=(5) literal address
		e.D1 = e.fetchField(5)
	}
}

// decodeRnMove implements the Rn<->A field-W move family reached from
// decodeGroup1's op2 0/1: toR selects the direction (true: Rn=A).
func (e *Emulator) decodeRnMove(src regID, toR bool) {
	op3 := e.fetchNibble()
	var dst regID
	switch op3 {
	case 0x0:
		dst = regR0
	case 0x1, 0x5:
		dst = regR1
	case 0x2, 0x6:
		dst = regR2
	case 0x3, 0x7:
		dst = regR3
	case 0x4:
		dst = regR4
	case 0x8:
		dst, src = regR0, regC
	case 0x9, 0xd:
		dst, src = regR1, regC
	case 0xa, 0xe:
		dst, src = regR2, regC
	case 0xb, 0xf:
		dst, src = regR3, regC
	case 0xc:
		dst, src = regR4, regC
	default:
		return
	}
	if toR {
		e.copyRegister(dst, src, WField)
	} else {
		e.copyRegister(src, dst, WField)
	}
}

// decodeRnExchange implements the A/C<->Rn field-W exchange family
// reached from decodeGroup1's op2 2.
func (e *Emulator) decodeRnExchange() {
	op3 := e.fetchNibble()
	src := regA
	var dst regID
	switch op3 {
	case 0x0:
		dst = regR0
	case 0x1, 0x5:
		dst = regR1
	case 0x2, 0x6:
		dst = regR2
	case 0x3, 0x7:
		dst = regR3
	case 0x4:
		dst = regR4
	case 0x8:
		src, dst = regC, regR0
	case 0x9, 0xd:
		src, dst = regC, regR1
	case 0xa, 0xe:
		src, dst = regC, regR2
	case 0xb, 0xf:
		src, dst = regC, regR3
	case 0xc:
		src, dst = regC, regR4
	default:
		return
	}
	e.exchangeRegister(src, dst, WField)
}

// decodeD0D1Moves covers decodeGroup1's op2 3: direct D0/D1 loads
// and exchanges against A/C, short (4-nibble) or full (5-nibble).
func (e *Emulator) decodeD0D1Moves() {
	op3 := e.fetchNibble()
	switch op3 {
	case 0x0:
		e.registerToAddress(regA, 0, false)
	case 0x1:
		e.registerToAddress(regA, 1, false)
	case 0x2:
		e.exchangeRegDat(regA, 0, AField)
	case 0x3:
		e.exchangeRegDat(regA, 1, AField)
	case 0x4:
		e.registerToAddress(regC, 0, false)
	case 0x5:
		e.registerToAddress(regC, 1, false)
	case 0x6:
		e.exchangeRegDat(regC, 0, AField)
	case 0x7:
		e.exchangeRegDat(regC, 1, AField)
	case 0x8:
		e.registerToAddress(regA, 0, true)
	case 0x9:
		e.registerToAddress(regA, 1, true)
	case 0xa:
		e.exchangeRegDat(regA, 0, InField)
	case 0xb:
		e.exchangeRegDat(regA, 1, InField)
	case 0xc:
		e.registerToAddress(regC, 0, true)
	case 0xd:
		e.registerToAddress(regC, 1, true)
	case 0xe:
		e.exchangeRegDat(regC, 0, InField)
	case 0xf:
		e.exchangeRegDat(regC, 1, InField)
	}
}

// decode8Sub1 covers opcode prefix 8 1 x: circular/bit shifts with
// explicit register and field-W, constant add/subtract, shift-right-
// bit with field selector, R<->Rn moves with field selector, and the
// PC<->A/C transfer family.
func (e *Emulator) decode8Sub1() {
	op3 := e.fetchNibble()
	switch op3 {
	case 0x0:
		e.shiftLeftCircRegister(regA, WField)
	case 0x1:
		e.shiftLeftCircRegister(regB, WField)
	case 0x2:
		e.shiftLeftCircRegister(regC, WField)
	case 0x3:
		e.shiftLeftCircRegister(regD, WField)
	case 0x4:
		e.shiftRightCircRegister(regA, WField)
	case 0x5:
		e.shiftRightCircRegister(regB, WField)
	case 0x6:
		e.shiftRightCircRegister(regC, WField)
	case 0x7:
		e.shiftRightCircRegister(regD, WField)
	case 0x8: // R = R +/- CON, field selector
		code := e.fetchNibble()
		op5 := e.fetchNibble()
		op6 := int(e.fetchNibble())
		regs := [4]regID{regA, regB, regC, regD}
		r := regs[op5&3]
		if op5 < 8 {
			e.addRegisterConstant(r, code, op6+1)
		} else {
			e.subRegisterConstant(r, code, op6+1)
		}
	case 0x9: // R SRB field
		code := e.fetchNibble()
		op5 := e.fetchNibble()
		regs := [4]regID{regA, regB, regC, regD}
		e.shiftRightBitRegister(regs[op5&3], code)
	case 0xa: // R=Rn / Rn=R / exchange, field selector
		code := e.fetchNibble()
		op5 := e.fetchNibble()
		op6 := e.fetchNibble()
		var dst regID
		switch op6 {
		case 0x0:
			dst = regR0
		case 0x1, 0x5:
			dst = regR1
		case 0x2, 0x6:
			dst = regR2
		case 0x3, 0x7:
			dst = regR3
		case 0x4:
			dst = regR4
		case 0x8:
			dst = regR0
		case 0x9, 0xd:
			dst = regR1
		case 0xa, 0xe:
			dst = regR2
		case 0xb, 0xf:
			dst = regR3
		case 0xc:
			dst = regR4
		default:
			return
		}
		src := regA
		if op6 >= 8 {
			src = regC
		}
		switch op5 {
		case 0x0:
			e.copyRegister(dst, src, code)
		case 0x1:
			e.copyRegister(src, dst, code)
		case 0x2:
			e.exchangeRegister(src, dst, code)
		}
	case 0xb: // PC<->A/C transfer family
		op4 := e.fetchNibble()
		switch op4 {
		case 0x2:
			e.PC = datToAddr(e.A)
		case 0x3:
			e.PC = datToAddr(e.C)
		case 0x4:
			addrToDat(e.PC, &e.A)
		case 0x5:
			addrToDat(e.PC, &e.C)
		case 0x6:
			jumpAddr := datToAddr(e.A)
			addrToDat(e.PC, &e.A)
			e.PC = jumpAddr
		case 0x7:
			jumpAddr := datToAddr(e.C)
			addrToDat(e.PC, &e.C)
			e.PC = jumpAddr
		}
	case 0xc:
		e.shiftRightBitRegister(regA, WField)
	case 0xd:
		e.shiftRightBitRegister(regB, WField)
	case 0xe:
		e.shiftRightBitRegister(regC, WField)
	case 0xf:
		e.shiftRightBitRegister(regD, WField)
	}
}

// decode8TestGroup covers opcode prefix 8 2..b x: hardware/program
// status tests and the fixed-field equality/comparison test groups.
// Every test ends in a 2-nibble conditional relative jump (or return,
// on a zero displacement); CLRHST, CLRST and SETST do not jump.
func (e *Emulator) decode8TestGroup(op2 uint8) {
	switch op2 {
	case 0x2: // CLRHST
		mask := int(e.fetchNibble())
		e.clearHardwareStat(mask)
	case 0x3: // ?HSTBIT=0
		mask := int(e.fetchNibble())
		e.Carry = boolToCarry(e.isZeroHardwareStat(mask))
		e.condJump(2, e.Carry != 0)
	case 0x4: // CLRST n
		n := int(e.fetchNibble())
		e.clearProgramStat(n)
	case 0x5: // SETST n
		n := int(e.fetchNibble())
		e.setProgramStat(n)
	case 0x6: // ?ST=0 n
		n := int(e.fetchNibble())
		e.Carry = boolToCarry(!e.getProgramStat(n))
		e.condJump(2, e.Carry != 0)
	case 0x7: // ?ST=1 n
		n := int(e.fetchNibble())
		e.Carry = boolToCarry(e.getProgramStat(n))
		e.condJump(2, e.Carry != 0)
	case 0x8: // ?P#n
		n := e.fetchNibble()
		e.Carry = boolToCarry(e.P != n)
		e.condJump(2, e.Carry != 0)
	case 0x9: // ?P=n
		n := e.fetchNibble()
		e.Carry = boolToCarry(e.P == n)
		e.condJump(2, e.Carry != 0)
	case 0xa: // test group A: equality/zero, fixed A field
		op3 := e.fetchNibble()
		switch op3 {
		case 0x0:
			e.Carry = boolToCarry(e.isEqualRegister(regA, regB, AField))
		case 0x1:
			e.Carry = boolToCarry(e.isEqualRegister(regB, regC, AField))
		case 0x2:
			e.Carry = boolToCarry(e.isEqualRegister(regA, regC, AField))
		case 0x3:
			e.Carry = boolToCarry(e.isEqualRegister(regC, regD, AField))
		case 0x4:
			e.Carry = boolToCarry(e.isNotEqualRegister(regA, regB, AField))
		case 0x5:
			e.Carry = boolToCarry(e.isNotEqualRegister(regB, regC, AField))
		case 0x6:
			e.Carry = boolToCarry(e.isNotEqualRegister(regA, regC, AField))
		case 0x7:
			e.Carry = boolToCarry(e.isNotEqualRegister(regC, regD, AField))
		case 0x8:
			e.Carry = boolToCarry(e.isZeroRegister(regA, AField))
		case 0x9:
			e.Carry = boolToCarry(e.isZeroRegister(regB, AField))
		case 0xa:
			e.Carry = boolToCarry(e.isZeroRegister(regC, AField))
		case 0xb:
			e.Carry = boolToCarry(e.isZeroRegister(regD, AField))
		case 0xc:
			e.Carry = boolToCarry(e.isNotZeroRegister(regA, AField))
		case 0xd:
			e.Carry = boolToCarry(e.isNotZeroRegister(regB, AField))
		case 0xe:
			e.Carry = boolToCarry(e.isNotZeroRegister(regC, AField))
		case 0xf:
			e.Carry = boolToCarry(e.isNotZeroRegister(regD, AField))
		}
		e.condJump(2, e.Carry != 0)
	case 0xb: // test group B: comparison, fixed A field
		op3 := e.fetchNibble()
		switch op3 {
		case 0x0:
			e.Carry = boolToCarry(e.isGreaterRegister(regA, regB, AField))
		case 0x1:
			e.Carry = boolToCarry(e.isGreaterRegister(regB, regC, AField))
		case 0x2:
			e.Carry = boolToCarry(e.isGreaterRegister(regC, regA, AField))
		case 0x3:
			e.Carry = boolToCarry(e.isGreaterRegister(regD, regC, AField))
		case 0x4:
			e.Carry = boolToCarry(e.isLessRegister(regA, regB, AField))
		case 0x5:
			e.Carry = boolToCarry(e.isLessRegister(regB, regC, AField))
		case 0x6:
			e.Carry = boolToCarry(e.isLessRegister(regC, regA, AField))
		case 0x7:
			e.Carry = boolToCarry(e.isLessRegister(regD, regC, AField))
		case 0x8:
			e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regA, regB, AField))
		case 0x9:
			e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regB, regC, AField))
		case 0xa:
			e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regC, regA, AField))
		case 0xb:
			e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regD, regC, AField))
		case 0xc:
			e.Carry = boolToCarry(e.isLessOrEqualRegister(regA, regB, AField))
		case 0xd:
			e.Carry = boolToCarry(e.isLessOrEqualRegister(regB, regC, AField))
		case 0xe:
			e.Carry = boolToCarry(e.isLessOrEqualRegister(regC, regA, AField))
		case 0xf:
			e.Carry = boolToCarry(e.isLessOrEqualRegister(regD, regC, AField))
		}
		e.condJump(2, e.Carry != 0)
	}
}

// boolToCarry converts a test result to the 0/1 encoding Carry uses.
func boolToCarry(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// decode8ThruF covers the top-nibble 8..f opcode space.
func (e *Emulator) decode8ThruF(top uint8) {
	switch top {
	case 0x8:
		op2 := e.fetchNibble()
		switch op2 {
		case 0x0:
			e.decodeGroup80()
		case 0x1:
			e.decode8Sub1()
		case 0xc: // GOTO, 4-nibble relative
			e.condJump(4, true)
		case 0xd: // GOTO, 5-nibble absolute
			e.PC = e.fetchField(5)
		case 0xe: // GOSUB, 4-nibble relative
			e.condCall(4, true)
		case 0xf: // GOSUB, 5-nibble absolute
			addr := e.fetchField(5)
			e.pushReturnAddr(e.PC)
			e.PC = addr
		default:
			e.decode8TestGroup(op2)
		}
	case 0x9: // register tests, free field selector
		op2 := e.fetchNibble()
		op3 := e.fetchNibble()
		if op2 < 8 {
			code := op2
			switch op3 {
			case 0x0:
				e.Carry = boolToCarry(e.isEqualRegister(regA, regB, code))
			case 0x1:
				e.Carry = boolToCarry(e.isEqualRegister(regB, regC, code))
			case 0x2:
				e.Carry = boolToCarry(e.isEqualRegister(regA, regC, code))
			case 0x3:
				e.Carry = boolToCarry(e.isEqualRegister(regC, regD, code))
			case 0x4:
				e.Carry = boolToCarry(e.isNotEqualRegister(regA, regB, code))
			case 0x5:
				e.Carry = boolToCarry(e.isNotEqualRegister(regB, regC, code))
			case 0x6:
				e.Carry = boolToCarry(e.isNotEqualRegister(regA, regC, code))
			case 0x7:
				e.Carry = boolToCarry(e.isNotEqualRegister(regC, regD, code))
			case 0x8:
				e.Carry = boolToCarry(e.isZeroRegister(regA, code))
			case 0x9:
				e.Carry = boolToCarry(e.isZeroRegister(regB, code))
			case 0xa:
				e.Carry = boolToCarry(e.isZeroRegister(regC, code))
			case 0xb:
				e.Carry = boolToCarry(e.isZeroRegister(regD, code))
			case 0xc:
				e.Carry = boolToCarry(e.isNotZeroRegister(regA, code))
			case 0xd:
				e.Carry = boolToCarry(e.isNotZeroRegister(regB, code))
			case 0xe:
				e.Carry = boolToCarry(e.isNotZeroRegister(regC, code))
			case 0xf:
				e.Carry = boolToCarry(e.isNotZeroRegister(regD, code))
			}
		} else {
			code := op2 & 7
			switch op3 {
			case 0x0:
				e.Carry = boolToCarry(e.isGreaterRegister(regA, regB, code))
			case 0x1:
				e.Carry = boolToCarry(e.isGreaterRegister(regB, regC, code))
			case 0x2:
				e.Carry = boolToCarry(e.isGreaterRegister(regC, regA, code))
			case 0x3:
				e.Carry = boolToCarry(e.isGreaterRegister(regD, regC, code))
			case 0x4:
				e.Carry = boolToCarry(e.isLessRegister(regA, regB, code))
			case 0x5:
				e.Carry = boolToCarry(e.isLessRegister(regB, regC, code))
			case 0x6:
				e.Carry = boolToCarry(e.isLessRegister(regC, regA, code))
			case 0x7:
				e.Carry = boolToCarry(e.isLessRegister(regD, regC, code))
			case 0x8:
				e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regA, regB, code))
			case 0x9:
				e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regB, regC, code))
			case 0xa:
				e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regC, regA, code))
			case 0xb:
				e.Carry = boolToCarry(e.isGreaterOrEqualRegister(regD, regC, code))
			case 0xc:
				e.Carry = boolToCarry(e.isLessOrEqualRegister(regA, regB, code))
			case 0xd:
				e.Carry = boolToCarry(e.isLessOrEqualRegister(regB, regC, code))
			case 0xe:
				e.Carry = boolToCarry(e.isLessOrEqualRegister(regC, regA, code))
			case 0xf:
				e.Carry = boolToCarry(e.isLessOrEqualRegister(regD, regC, code))
			}
		}
		e.condJump(2, e.Carry != 0)
	case 0xa: // Axxx — add/dec, free field selector
		op2 := e.fetchNibble()
		op3 := e.fetchNibble()
		if op2 < 8 {
			code := op2
			switch op3 {
			case 0x0:
				e.addRegister(regA, regA, regB, code)
			case 0x1:
				e.addRegister(regB, regB, regC, code)
			case 0x2:
				e.addRegister(regC, regC, regA, code)
			case 0x3:
				e.addRegister(regD, regD, regC, code)
			case 0x4:
				e.addRegister(regA, regA, regA, code)
			case 0x5:
				e.addRegister(regB, regB, regB, code)
			case 0x6:
				e.addRegister(regC, regC, regC, code)
			case 0x7:
				e.addRegister(regD, regD, regD, code)
			case 0x8:
				e.addRegister(regB, regB, regA, code)
			case 0x9:
				e.addRegister(regC, regC, regB, code)
			case 0xa:
				e.addRegister(regA, regA, regC, code)
			case 0xb:
				e.addRegister(regC, regC, regD, code)
			case 0xc:
				e.decRegister(regA, code)
			case 0xd:
				e.decRegister(regB, code)
			case 0xe:
				e.decRegister(regC, code)
			case 0xf:
				e.decRegister(regD, code)
			}
		} else {
			code := op2 & 7
			switch op3 {
			case 0x0:
				e.zeroRegister(regA, code)
			case 0x1:
				e.zeroRegister(regB, code)
			case 0x2:
				e.zeroRegister(regC, code)
			case 0x3:
				e.zeroRegister(regD, code)
			case 0x4:
				e.copyRegister(regA, regB, code)
			case 0x5:
				e.copyRegister(regB, regC, code)
			case 0x6:
				e.copyRegister(regC, regA, code)
			case 0x7:
				e.copyRegister(regD, regC, code)
			case 0x8:
				e.copyRegister(regB, regA, code)
			case 0x9:
				e.copyRegister(regC, regB, code)
			case 0xa:
				e.copyRegister(regA, regC, code)
			case 0xb:
				e.copyRegister(regC, regD, code)
			case 0xc:
				e.exchangeRegister(regA, regB, code)
			case 0xd:
				e.exchangeRegister(regB, regC, code)
			case 0xe:
				e.exchangeRegister(regA, regC, code)
			case 0xf:
				e.exchangeRegister(regC, regD, code)
			}
		}
	case 0xb: // Bxxx — sub/inc/shift, free field selector
		op2 := e.fetchNibble()
		op3 := e.fetchNibble()
		if op2 < 8 {
			code := op2
			switch op3 {
			case 0x0:
				e.subRegister(regA, regA, regB, code)
			case 0x1:
				e.subRegister(regB, regB, regC, code)
			case 0x2:
				e.subRegister(regC, regC, regA, code)
			case 0x3:
				e.subRegister(regD, regD, regC, code)
			case 0x4:
				e.incRegister(regA, code)
			case 0x5:
				e.incRegister(regB, code)
			case 0x6:
				e.incRegister(regC, code)
			case 0x7:
				e.incRegister(regD, code)
			case 0x8:
				e.subRegister(regB, regB, regA, code)
			case 0x9:
				e.subRegister(regC, regC, regB, code)
			case 0xa:
				e.subRegister(regA, regA, regC, code)
			case 0xb:
				e.subRegister(regC, regC, regD, code)
			case 0xc:
				e.subRegister(regA, regB, regA, code)
			case 0xd:
				e.subRegister(regB, regC, regB, code)
			case 0xe:
				e.subRegister(regC, regA, regC, code)
			case 0xf:
				e.subRegister(regD, regC, regD, code)
			}
		} else {
			code := op2 & 7
			switch op3 {
			case 0x0:
				e.shiftLeftRegister(regA, code)
			case 0x1:
				e.shiftLeftRegister(regB, code)
			case 0x2:
				e.shiftLeftRegister(regC, code)
			case 0x3:
				e.shiftLeftRegister(regD, code)
			case 0x4:
				e.shiftRightRegister(regA, code)
			case 0x5:
				e.shiftRightRegister(regB, code)
			case 0x6:
				e.shiftRightRegister(regC, code)
			case 0x7:
				e.shiftRightRegister(regD, code)
			case 0x8:
				e.complement2Register(regA, code)
			case 0x9:
				e.complement2Register(regB, code)
			case 0xa:
				e.complement2Register(regC, code)
			case 0xb:
				e.complement2Register(regD, code)
			case 0xc:
				e.complement1Register(regA, code)
			case 0xd:
				e.complement1Register(regB, code)
			case 0xe:
				e.complement1Register(regC, code)
			case 0xf:
				e.complement1Register(regD, code)
			}
		}
	case 0xc: // Cxx — add, A-field shorthand
		op2 := e.fetchNibble()
		switch op2 {
		case 0x0:
			e.addRegister(regA, regA, regB, AField)
		case 0x1:
			e.addRegister(regB, regB, regC, AField)
		case 0x2:
			e.addRegister(regC, regC, regA, AField)
		case 0x3:
			e.addRegister(regD, regD, regC, AField)
		case 0x4:
			e.addRegister(regA, regA, regA, AField)
		case 0x5:
			e.addRegister(regB, regB, regB, AField)
		case 0x6:
			e.addRegister(regC, regC, regC, AField)
		case 0x7:
			e.addRegister(regD, regD, regD, AField)
		case 0x8:
			e.addRegister(regB, regB, regA, AField)
		case 0x9:
			e.addRegister(regC, regC, regB, AField)
		case 0xa:
			e.addRegister(regA, regA, regC, AField)
		case 0xb:
			e.addRegister(regC, regC, regD, AField)
		case 0xc:
			e.decRegister(regA, AField)
		case 0xd:
			e.decRegister(regB, AField)
		case 0xe:
			e.decRegister(regC, AField)
		case 0xf:
			e.decRegister(regD, AField)
		}
	case 0xd: // Dxx — zero/copy/exchange, A-field shorthand
		op2 := e.fetchNibble()
		switch op2 {
		case 0x0:
			e.zeroRegister(regA, AField)
		case 0x1:
			e.zeroRegister(regB, AField)
		case 0x2:
			e.zeroRegister(regC, AField)
		case 0x3:
			e.zeroRegister(regD, AField)
		case 0x4:
			e.copyRegister(regA, regB, AField)
		case 0x5:
			e.copyRegister(regB, regC, AField)
		case 0x6:
			e.copyRegister(regC, regA, AField)
		case 0x7:
			e.copyRegister(regD, regC, AField)
		case 0x8:
			e.copyRegister(regB, regA, AField)
		case 0x9:
			e.copyRegister(regC, regB, AField)
		case 0xa:
			e.copyRegister(regA, regC, AField)
		case 0xb:
			e.copyRegister(regC, regD, AField)
		case 0xc:
			e.exchangeRegister(regA, regB, AField)
		case 0xd:
			e.exchangeRegister(regB, regC, AField)
		case 0xe:
			e.exchangeRegister(regA, regC, AField)
		case 0xf:
			e.exchangeRegister(regC, regD, AField)
		}
	case 0xe: // Exx — sub/inc, A-field shorthand
		op2 := e.fetchNibble()
		switch op2 {
		case 0x0:
			e.subRegister(regA, regA, regB, AField)
		case 0x1:
			e.subRegister(regB, regB, regC, AField)
		case 0x2:
			e.subRegister(regC, regC, regA, AField)
		case 0x3:
			e.subRegister(regD, regD, regC, AField)
		case 0x4:
			e.incRegister(regA, AField)
		case 0x5:
			e.incRegister(regB, AField)
		case 0x6:
			e.incRegister(regC, AField)
		case 0x7:
			e.incRegister(regD, AField)
		case 0x8:
			e.subRegister(regB, regB, regA, AField)
		case 0x9:
			e.subRegister(regC, regC, regB, AField)
		case 0xa:
			e.subRegister(regA, regA, regC, AField)
		case 0xb:
			e.subRegister(regC, regC, regD, AField)
		case 0xc:
			e.subRegister(regA, regB, regA, AField)
		case 0xd:
			e.subRegister(regB, regC, regB, AField)
		case 0xe:
			e.subRegister(regC, regA, regC, AField)
		case 0xf:
			e.subRegister(regD, regC, regD, AField)
		}
	case 0xf: // Fxx — shift/complement, A-field shorthand
		op2 := e.fetchNibble()
		switch op2 {
		case 0x0:
			e.shiftLeftRegister(regA, AField)
		case 0x1:
			e.shiftLeftRegister(regB, AField)
		case 0x2:
			e.shiftLeftRegister(regC, AField)
		case 0x3:
			e.shiftLeftRegister(regD, AField)
		case 0x4:
			e.shiftRightRegister(regA, AField)
		case 0x5:
			e.shiftRightRegister(regB, AField)
		case 0x6:
			e.shiftRightRegister(regC, AField)
		case 0x7:
			e.shiftRightRegister(regD, AField)
		case 0x8:
			e.complement2Register(regA, AField)
		case 0x9:
			e.complement2Register(regB, AField)
		case 0xa:
			e.complement2Register(regC, AField)
		case 0xb:
			e.complement2Register(regD, AField)
		case 0xc:
			e.complement1Register(regA, AField)
		case 0xd:
			e.complement1Register(regB, AField)
		case 0xe:
			e.complement1Register(regC, AField)
		case 0xf:
			e.complement1Register(regD, AField)
		}
	}
}

// StepInstruction fetches and executes exactly one instruction at the
// current PC.
func (e *Emulator) StepInstruction() {
	if e.shutdown {
		return
	}
	top := e.fetchNibble()
	if top <= 0x7 {
		e.decodeTop07(top)
		return
	}
	e.decode8ThruF(top)
}

// decodeTop07 covers top nibbles 0..7: returns/status moves, the
// D0/D1 pointer family, P-register loads, literal loads into C, and
// the carry-conditional and unconditional relative jump/call family.
// A TRAP encountering a nonzero operand halts the processor, the same
// illegal-instruction response as decode.rs's own catch-all arms.
func (e *Emulator) decodeTop07(top uint8) {
	switch top {
	case 0x0:
		op1 := e.fetchNibble()
		switch op1 {
		case 0x0: // RTNSXM
			e.XM = true
			e.PC = e.popReturnAddr()
		case 0x1: // RTN
			e.PC = e.popReturnAddr()
		case 0x2: // RTNSC
			e.Carry = 1
			e.PC = e.popReturnAddr()
		case 0x3: // RTNCC
			e.Carry = 0
			e.PC = e.popReturnAddr()
		case 0x4: // SETHEX
			e.Hexmode = Hex
		case 0x5: // SETDEC
			e.Hexmode = Dec
		case 0x6: // RSTK=C
			e.pushReturnAddr(e.cRegisterAddress())
		case 0x7: // C=RSTK
			addrToDat(e.popReturnAddr(), &e.C)
		case 0x8: // CLRST
			e.clearStatus()
		case 0x9: // C=ST
			e.statusToRegister(regC)
		case 0xa: // ST=C
			e.registerToStatus(regC)
		case 0xb: // CSTEX
			e.swapRegisterStatus(regC)
		case 0xc: // P=P+1
			if e.P == 0xf {
				e.P = 0
				e.Carry = 1
			} else {
				e.P++
				e.Carry = 0
			}
		case 0xd: // P=P-1
			if e.P == 0 {
				e.P = 0xf
				e.Carry = 1
			} else {
				e.P--
				e.Carry = 0
			}
		case 0xe: // AND/OR register operations
			op2 := e.fetchNibble()
			op3 := e.fetchNibble()
			switch op3 {
			case 0x0:
				e.andRegister(regA, regA, regB, op2)
			case 0x1:
				e.andRegister(regB, regB, regC, op2)
			case 0x2:
				e.andRegister(regC, regC, regA, op2)
			case 0x3:
				e.andRegister(regD, regD, regC, op2)
			case 0x4:
				e.andRegister(regB, regB, regA, op2)
			case 0x5:
				e.andRegister(regC, regC, regB, op2)
			case 0x6:
				e.andRegister(regA, regA, regC, op2)
			case 0x7:
				e.andRegister(regC, regC, regD, op2)
			case 0x8:
				e.orRegister(regA, regA, regB, op2)
			case 0x9:
				e.orRegister(regB, regB, regC, op2)
			case 0xa:
				e.orRegister(regC, regC, regA, op2)
			case 0xb:
				e.orRegister(regD, regD, regC, op2)
			case 0xc:
				e.orRegister(regB, regB, regA, op2)
			case 0xd:
				e.orRegister(regC, regC, regB, op2)
			case 0xe:
				e.orRegister(regA, regA, regC, op2)
			case 0xf:
				e.orRegister(regC, regC, regD, op2)
			}
		case 0xf: // RTI
			e.DoReturnInterrupt()
		}
	case 0x1:
		e.decodeGroup1()
	case 0x2: // P = nibble
		e.P = e.fetchNibble()
	case 0x3:
		// LC(n): literal load into C, width = next nibble + 1.
		width := int(e.fetchNibble()) + 1
		lits := make([]uint8, width)
		for i := 0; i < width; i++ {
			lits[i] = e.fetchNibble()
		}
		e.LoadConstant(regC, 0, lits)
	case 0x4: // GOC: conditional jump if carry set, with a NOP3 special case
		if e.peekField(2) == 0x02 {
			e.PC += 2
			return
		}
		e.condJump(2, e.Carry != 0)
	case 0x5: // GONC: conditional jump if carry clear
		e.condJump(2, e.Carry == 0)
	case 0x6: // GOTO (3-nibble relative), with NOP4/TRAP special cases
		switch e.peekField(3) {
		case 0x003: // NOP4
			e.PC += 3
		case 0x004: // TRAP
			e.PC += 3
			op3 := e.fetchNibble()
			if op3 != 0 {
				e.shutdown = true
			}
		default:
			e.condJump(3, true)
		}
	case 0x7: // GOSUB (3-nibble relative, unconditional)
		e.condCall(3, true)
	}
}
