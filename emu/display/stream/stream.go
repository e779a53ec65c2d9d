/*
 * HP48 - WebSocket display streaming server.
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

// Package stream serves the running emulator's LCD buffer to browser
// clients over a WebSocket: one PNG frame per connected client every
// tick, sent only when the display is dirty.
package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rcornwell/hp48emu/emu/display/snapshot"
	"github.com/rcornwell/hp48emu/emu/saturn"
)

// frameInterval bounds how often a connected client is sent a new
// frame, independent of the emulator's own frame rate.
const frameInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server streams one Emulator's display to any number of WebSocket
// clients and answers a one-shot PNG snapshot over plain HTTP.
type Server struct {
	emu     *saturn.Emulator
	session uuid.UUID
	mux     *http.ServeMux
}

// NewServer builds a Server for emu, tagging every log line with
// session for multi-instance deployments.
func NewServer(emu *saturn.Emulator, session uuid.UUID) *Server {
	s := &Server{emu: emu, session: session, mux: http.NewServeMux()}
	s.mux.HandleFunc("/display", s.handleWebSocket)
	s.mux.HandleFunc("/display.png", s.handleSnapshot)
	return s
}

// ListenAndServe blocks serving the display endpoints on addr.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("display stream listening", "addr", addr, "session", s.session.String())
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	png, err := snapshot.Encode(s.emu.Disp, s.session.String())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !s.emu.Disp.Dirty {
			continue
		}
		png, err := snapshot.Encode(s.emu.Disp, "")
		if err != nil {
			slog.Error("snapshot encode failed", "error", err.Error())
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, png); err != nil {
			return
		}
		s.emu.Disp.Dirty = false
	}
}
