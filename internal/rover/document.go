// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rover

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StatusDocument is the status published to the cloud link.
type StatusDocument struct {
	Battery          int             `json:"battery"`
	Signal           int             `json:"signal"`
	GPS              GPSDocument     `json:"gps"`
	Satellites       int             `json:"satellites"`
	ArduinoConnected bool            `json:"arduinoConnected"`
	EmergencyStop    bool            `json:"emergencyStop"`
	LastUpdate       ServerTimestamp `json:"lastUpdate"`
}

type GPSDocument struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Alt   float64 `json:"alt"`
	Valid bool    `json:"valid"`
}

// ServerTimestamp is filled in by whoever stores the document. Until then it
// encodes as the {".sv":"timestamp"} placeholder; once set it encodes as Unix
// milliseconds.
type ServerTimestamp struct {
	Millis int64
}

var serverValuePlaceholder = []byte(`{".sv":"timestamp"}`)

// Stamp sets the timestamp to t.
func (ts *ServerTimestamp) Stamp(t time.Time) {
	ts.Millis = t.UnixMilli()
}

// IsSet reports whether a server time has been assigned.
func (ts ServerTimestamp) IsSet() bool {
	return ts.Millis != 0
}

// Time returns the assigned time, or the zero time.
func (ts ServerTimestamp) Time() time.Time {
	if !ts.IsSet() {
		return time.Time{}
	}
	return time.UnixMilli(ts.Millis)
}

func (ts ServerTimestamp) MarshalJSON() ([]byte, error) {
	if !ts.IsSet() {
		return serverValuePlaceholder, nil
	}
	return json.Marshal(ts.Millis)
}

func (ts *ServerTimestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || b[0] == '{' {
		ts.Millis = 0
		return nil
	}
	if err := json.Unmarshal(b, &ts.Millis); err != nil {
		return fmt.Errorf("lastUpdate: %w", err)
	}
	return nil
}
