/*
 * HP48 - Debug command parser.
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

// Package debug implements the interactive console commands used to
// inspect and drive a running Saturn emulator: register dump, memory
// peek/poke, single-step, frame advance, and key injection.
package debug

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/hp48emu/emu/saturn"
	hexfmt "github.com/rcornwell/hp48emu/util/hex"
)

type cmd struct {
	name    string
	min     int
	process func(*cmdLine, *saturn.Emulator) (bool, error)
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "registers", min: 3, process: registers},
	{name: "peek", min: 2, process: peek},
	{name: "poke", min: 2, process: poke},
	{name: "step", min: 2, process: step},
	{name: "frame", min: 2, process: frame},
	{name: "key", min: 3, process: key},
	{name: "reset", min: 3, process: reset},
	{name: "quit", min: 4, process: quit},
}

// ProcessCommand executes one command line against e, returning true
// if the console should exit.
func ProcessCommand(commandLine string, e *saturn.Emulator) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].process(&line, e)
}

func matchCommand(m cmd, name string) bool {
	if len(name) > len(m.name) {
		return false
	}
	for i := range name {
		if m.name[i] != name[i] {
			return false
		}
	}
	return len(name) >= m.min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, name) {
			match = append(match, m)
		}
	}
	return match
}

func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *cmdLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

// getWord returns the next space-delimited word, lower-cased.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for !line.isEOL() && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

func parseHex(tok string) (int64, error) {
	tok = strings.TrimPrefix(tok, "0x")
	return strconv.ParseInt(tok, 16, 64)
}

// registers prints the CPU register file, carry, and P register.
func registers(_ *cmdLine, e *saturn.Emulator) (bool, error) {
	var b strings.Builder
	b.WriteString("PC=")
	hexfmt.FormatAddr(&b, e.PC)
	fmt.Fprintf(&b, " P=%x Carry=%d\n", e.P, e.Carry)
	regs := []struct {
		name string
		reg  []uint8
	}{{"A", e.A[:]}, {"B", e.B[:]}, {"C", e.C[:]}, {"D", e.D[:]}}
	for _, r := range regs {
		b.WriteString(r.name + "=")
		hexfmt.FormatNibblesLE(&b, r.reg)
		b.WriteByte('\n')
	}
	b.WriteString("D0=")
	hexfmt.FormatAddr(&b, e.D0)
	b.WriteString(" D1=")
	hexfmt.FormatAddr(&b, e.D1)
	fmt.Fprintf(&b, " Rstkp=%d\n", e.Rstkp)
	fmt.Print(b.String())
	return false, nil
}

// peek prints n nibbles (default 1) starting at addr.
func peek(line *cmdLine, e *saturn.Emulator) (bool, error) {
	addrTok := line.getWord()
	addr, err := parseHex(addrTok)
	if err != nil {
		return false, errors.New("peek requires a hex address")
	}
	n := int64(1)
	if countTok := line.getWord(); countTok != "" {
		n, err = strconv.ParseInt(countTok, 10, 32)
		if err != nil {
			return false, errors.New("peek count must be decimal")
		}
	}
	nibs := e.ReadNibbles(int32(addr), int(n))
	var b strings.Builder
	hexfmt.FormatAddr(&b, int32(addr))
	b.WriteString(": ")
	hexfmt.FormatSpaced(&b, nibs, 4)
	fmt.Println(b.String())
	return false, nil
}

// poke writes a single nibble value at addr.
func poke(line *cmdLine, e *saturn.Emulator) (bool, error) {
	addrTok := line.getWord()
	addr, err := parseHex(addrTok)
	if err != nil {
		return false, errors.New("poke requires a hex address")
	}
	valTok := line.getWord()
	val, err := parseHex(valTok)
	if err != nil || val > 0xf {
		return false, errors.New("poke requires a single hex nibble value")
	}
	e.WriteNibble(int32(addr), uint8(val))
	return false, nil
}

// step executes n instructions (default 1).
func step(line *cmdLine, e *saturn.Emulator) (bool, error) {
	n := int64(1)
	if tok := line.getWord(); tok != "" {
		var err error
		n, err = strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return false, errors.New("step count must be decimal")
		}
	}
	for i := int64(0); i < n; i++ {
		e.StepInstruction()
	}
	return false, nil
}

// frame runs RunFrame for the given elapsed milliseconds (default 20).
func frame(line *cmdLine, e *saturn.Emulator) (bool, error) {
	ms := 20.0
	if tok := line.getWord(); tok != "" {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return false, errors.New("frame elapsed-ms must be numeric")
		}
		ms = v
	}
	e.RunFrame(ms, 0, e.StepInstruction)
	return false, nil
}

// key queues a press or release on (row, bit).
func key(line *cmdLine, e *saturn.Emulator) (bool, error) {
	rowTok := line.getWord()
	bitTok := line.getWord()
	stateTok := line.getWord()
	row, err := strconv.Atoi(rowTok)
	if err != nil {
		return false, errors.New("key requires a row number")
	}
	bit, err := strconv.Atoi(bitTok)
	if err != nil {
		return false, errors.New("key requires a bit number")
	}
	pressed := stateTok != "up"
	e.Kbd.PushEvent(saturn.KeyEvent{Row: row, Bit: uint(bit), Pressed: pressed})
	return false, nil
}

// reset reapplies the memory-controller configuration as RESET would.
func reset(_ *cmdLine, e *saturn.Emulator) (bool, error) {
	e.DoReset()
	return false, nil
}

func quit(_ *cmdLine, _ *saturn.Emulator) (bool, error) {
	return true, nil
}
