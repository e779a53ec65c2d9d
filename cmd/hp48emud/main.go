/*
 * HP48 - Emulator daemon: loads a calculator image, drives the frame
 * loop, and serves the debug console and display stream.
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"
	"github.com/google/uuid"

	"github.com/rcornwell/hp48emu/command/reader"
	"github.com/rcornwell/hp48emu/config/hp48config"
	"github.com/rcornwell/hp48emu/emu/display/stream"
	"github.com/rcornwell/hp48emu/emu/saturn"
	logger "github.com/rcornwell/hp48emu/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "hp48.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	debug := false
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	sessionID := uuid.New()
	Logger.Info("hp48emud started", "session", sessionID.String())

	cfg := hp48config.Default()
	if _, err := os.Stat(*optConfig); err == nil {
		cfg, err = hp48config.Load(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	} else {
		Logger.Info("no configuration file found, using defaults", "path", *optConfig)
	}
	if cfg.LogFile != "" && *optLogFile == "" {
		if f, err := os.Create(cfg.LogFile); err == nil {
			file = f
			Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
			slog.SetDefault(Logger)
		}
	}

	model := saturn.ModelSX
	if cfg.Model == "GX" {
		model = saturn.ModelGX
	}

	romData, err := os.ReadFile(cfg.ROM)
	if err != nil {
		Logger.Error("unable to read ROM image", "path", cfg.ROM, "error", err.Error())
		os.Exit(1)
	}
	rom := saturn.LoadROM(romData, model)

	ramSize := saturn.RAMSizeSX
	if model == saturn.ModelGX {
		ramSize = saturn.RAMSizeGX
	}
	ram := make([]uint8, ramSize)
	if cfg.RAM != "" {
		if packed, err := os.ReadFile(cfg.RAM); err == nil {
			ram = saturn.UnpackNibbles(packed)
		}
	}

	emu := saturn.New(model, rom, ram)

	if cfg.State != "" {
		if blob, err := os.ReadFile(cfg.State); err == nil {
			if err := saturn.ReadState(emu.Saturn, blob); err != nil {
				Logger.Warn("saved state rejected, starting cold", "error", err.Error())
			}
		}
	}
	emu.Start(0, time.Now().Unix())

	disp := stream.NewServer(emu, sessionID)
	go func() {
		if err := disp.ListenAndServe(cfg.Listen); err != nil {
			Logger.Error("display stream server exited", "error", err.Error())
		}
	}()

	frameHz := cfg.FrameHz
	if frameHz <= 0 {
		frameHz = 50
	}
	period := time.Second / time.Duration(frameHz)

	var mu sync.Mutex
	stopped := make(chan struct{})
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				elapsed := now.Sub(last).Seconds() * 1000.0
				last = now
				mu.Lock()
				emu.RunFrame(elapsed, float64(now.UnixNano())/1e9, emu.StepInstruction)
				mu.Unlock()
			case <-stopped:
				return
			}
		}
	}()

	go reader.ConsoleReader(emu)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	close(stopped)

	Logger.Info("shutting down")
	if cfg.State != "" {
		mu.Lock()
		blob := emu.SaveState()
		mu.Unlock()
		if err := os.WriteFile(cfg.State, blob, 0o600); err != nil {
			Logger.Error("unable to save state", "error", err.Error())
		}
	}
	if cfg.RAM != "" {
		mu.Lock()
		ramBlob := emu.SaveRAM()
		mu.Unlock()
		if err := os.WriteFile(cfg.RAM, ramBlob, 0o600); err != nil {
			Logger.Error("unable to save RAM", "error", err.Error())
		}
	}
	Logger.Info("stopped")
}
