/*
 * HP48 - Configuration file parser
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

// Package hp48config loads the daemon's key=value configuration file:
// ROM/RAM/state paths, calculator model, and the debug listener
// address.
package hp48config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <key> '=' <quoteopt>
 * <key>  := <string>
 * <quoteopt> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 */

// Config holds every setting recognized in a configuration file,
// defaulted to values appropriate for a cold-started SX.
type Config struct {
	Model    string // "SX" or "GX".
	ROM      string // Path to ROM image.
	RAM      string // Path to RAM image, created if missing.
	State    string // Path to saved state blob, loaded at startup if present.
	LogFile  string // Path to log file, stderr only if empty.
	Listen   string // host:port for the debug/display listener.
	FrameHz  int    // Target frame rate for RunFrame's driving loop.
}

// Default returns a Config with the daemon's built-in defaults.
func Default() Config {
	return Config{
		Model:   "SX",
		Listen:  "localhost:2048",
		FrameHz: 50,
	}
}

var keyNumber int

// Load reads name and applies every recognized key=value line onto a
// Default() Config.
func Load(name string) (Config, error) {
	cfg := Default()

	file, err := os.Open(name)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	keyNumber = 0
	reader := bufio.NewReader(file)
	for {
		var line optionLine
		var rerr error
		line.line, rerr = reader.ReadString('\n')
		keyNumber++
		if len(line.line) == 0 && rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return cfg, rerr
		}
		if err := line.apply(&cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// optionLine is one line of the configuration file being scanned.
type optionLine struct {
	line string
	pos  int
}

// skipSpace advances over whitespace.
func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// isEOL reports end of line or the start of a comment.
func (line *optionLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

func (line *optionLine) getNext(inQuote bool) byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || inQuote {
		return by
	}
	return 0
}

func (line *optionLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

// parseQuoteString reads a bare word or a "quoted string".
func (line *optionLine) parseQuoteString() (string, bool) {
	inQuote := false
	value := ""

	if line.getPeek() == '"' {
		inQuote = true
		_ = line.getNext(true)
	}

	for {
		by := line.getNext(inQuote)
		if by == '"' && inQuote {
			by = line.getNext(inQuote)
			if by != '"' {
				return value, true
			}
		}
		space := unicode.IsSpace(rune(by))
		if !inQuote && (space || by == 0) {
			return value, true
		}
		value += string(by)
		if line.isEOL() {
			return value, !inQuote
		}
	}
}

// apply parses one key=value line and stores it into cfg.
func (line *optionLine) apply(cfg *Config) error {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	key := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		if !unicode.IsLetter(rune(by)) {
			break
		}
		key += string(by)
		line.pos++
	}
	key = strings.ToLower(key)
	if key == "" {
		return fmt.Errorf("invalid configuration line %d", keyNumber)
	}

	line.skipSpace()
	if line.isEOL() || line.line[line.pos] != '=' {
		return fmt.Errorf("key %q missing '=' on line %d", key, keyNumber)
	}

	value, ok := line.parseQuoteString()
	if !ok {
		return fmt.Errorf("invalid value for %q on line %d", key, keyNumber)
	}

	switch key {
	case "model":
		cfg.Model = strings.ToUpper(value)
	case "rom":
		cfg.ROM = value
	case "ram":
		cfg.RAM = value
	case "state":
		cfg.State = value
	case "logfile":
		cfg.LogFile = value
	case "listen":
		cfg.Listen = value
	case "framehz":
		n := 0
		for _, d := range value {
			if d < '0' || d > '9' {
				return fmt.Errorf("framehz must be numeric on line %d", keyNumber)
			}
			n = n*10 + int(d-'0')
		}
		cfg.FrameHz = n
	default:
		return fmt.Errorf("unknown configuration key %q on line %d", key, keyNumber)
	}
	return nil
}
