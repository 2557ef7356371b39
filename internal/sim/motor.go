// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/relabs-tech/rover_bridge/internal/peer"
)

// Motor emulates the motor board: it answers the start-up probe and reports
// a battery level that drains while the rover is moving.
type Motor struct {
	mu      sync.Mutex
	lines   chan string
	battery int
	last    peer.Directive
}

func NewMotor(battery, buffer int) *Motor {
	return &Motor{lines: make(chan string, buffer), battery: battery}
}

// Send accepts a directive the way the real board would.
func (m *Motor) Send(d peer.Directive) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d == peer.PingInit {
		m.emit("PONG:ESP32_READY")
		return nil
	}
	m.last = d
	return nil
}

// Lines returns the lines the board writes back.
func (m *Motor) Lines() <-chan string {
	return m.lines
}

// Moving reports whether the last directive was a MOVE.
func (m *Motor) Moving() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.HasPrefix(string(m.last), "MOVE:")
}

// Tick drains the battery by one percent while moving and reports it.
func (m *Motor) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.HasPrefix(string(m.last), "MOVE:") && m.battery > 0 {
		m.battery--
	}
	m.emit(fmt.Sprintf("STATUS:BATTERY:%d", m.battery))
}

// emit drops the line when nobody is reading, like a UART would.
func (m *Motor) emit(line string) {
	select {
	case m.lines <- line:
	default:
	}
}
