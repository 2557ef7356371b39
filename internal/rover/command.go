// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rover

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command names accepted from the remote command source.
const (
	CmdStart           = "start"
	CmdStop            = "stop"
	CmdEmergencyStop   = "emergency_stop"
	CmdReturnToBase    = "return_to_base"
	CmdFollowRoute     = "follow_route"
	CmdGoToDestination = "go_to_destination"
)

// KnownCommand reports whether name is one the rover acts on.
func KnownCommand(name string) bool {
	switch name {
	case CmdStart, CmdStop, CmdEmergencyStop, CmdReturnToBase, CmdFollowRoute, CmdGoToDestination:
		return true
	}
	return false
}

// Command is one remote instruction. It is acted on once and discarded.
type Command struct {
	ID     string         // local correlation id for logs
	Name   string         // e.g. "start"
	Params map[string]any // decoded JSON params, may be nil
}

// CommandDocument is the wire shape written by the dashboard.
//
//	{"command":"go_to_destination","params":{"lat":25.9,"lng":-97.5},"timestamp":...}
type CommandDocument struct {
	Command   string          `json:"command"`
	Params    map[string]any  `json:"params,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// NewCommand builds a command with a fresh correlation id.
func NewCommand(name string, params map[string]any) Command {
	return Command{ID: uuid.NewString(), Name: name, Params: params}
}

// DecodeCommand parses a command document. A document without a command
// name decodes to a command with an empty name, which dispatch reports as
// unrecognized.
func DecodeCommand(payload []byte) (Command, error) {
	var doc CommandDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return NewCommand(doc.Command, doc.Params), nil
}

// Document returns the wire form of c. Timestamp is left to the sender.
func (c Command) Document() CommandDocument {
	return CommandDocument{Command: c.Name, Params: c.Params}
}

// param returns a parameter by key, treating JSON null as absent.
func (c Command) param(key string) (any, bool) {
	v, ok := c.Params[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// number reads a numeric parameter.
func (c Command) number(key string) (float64, bool) {
	v, ok := c.param(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
