// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package peer

import (
	"strconv"
	"strings"

	"github.com/relabs-tech/rover_bridge/internal/textnum"
)

// Line prefixes emitted by the motor board. Matching is case-sensitive.
const (
	batteryPrefix = "STATUS:BATTERY:"
	pongPrefix    = "PONG:"
)

// Directive is one outbound line for the motor board, without terminator.
type Directive string

const (
	PingInit Directive = "PING:ESP32_INIT"
	Stop     Directive = "STOP"
)

// Move asks the motor board to drive forward at speed (PWM units, 0-255).
func Move(speed int) Directive {
	return Directive("MOVE:FORWARD:" + strconv.Itoa(speed))
}

// MessageKind tags a decoded inbound line.
type MessageKind int

const (
	Empty MessageKind = iota
	Battery
	Pong
	Unknown
)

func (k MessageKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Battery:
		return "battery"
	case Pong:
		return "pong"
	default:
		return "unknown"
	}
}

// Message is one decoded line from the motor board.
type Message struct {
	Kind    MessageKind
	Battery int    // Battery only; malformed numbers read as 0
	Text    string // trimmed line as received
}

// ParseLine decodes a line from the motor board.
func ParseLine(text string) Message {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Message{Kind: Empty}
	case strings.HasPrefix(text, batteryPrefix):
		return Message{Kind: Battery, Battery: textnum.Int(text[len(batteryPrefix):]), Text: text}
	case strings.HasPrefix(text, pongPrefix):
		return Message{Kind: Pong, Text: text}
	default:
		return Message{Kind: Unknown, Text: text}
	}
}
