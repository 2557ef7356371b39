// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Kind classifies what TryParseFix made of a line.
type Kind int

const (
	NotFix      Kind = iota // not a GGA sentence, ignore
	ShortFields             // GGA tag but fewer than 7 commas
	NoFix                   // recognized GGA without a usable position
	Fix                     // recognized GGA with a position
)

func (k Kind) String() string {
	switch k {
	case NotFix:
		return "not-fix"
	case ShortFields:
		return "short-fields"
	case NoFix:
		return "no-fix"
	case Fix:
		return "fix"
	default:
		return "unknown"
	}
}

// FixResult is the decoded content of a single GGA line.
type FixResult struct {
	Kind Kind `json:"kind"`

	Valid      bool    `json:"valid"`
	Latitude   float64 `json:"lat"`        // decimal degrees
	Longitude  float64 `json:"lon"`        // decimal degrees
	Satellites int     `json:"satellites"` // reported even when Valid is false
	Quality    int     `json:"quality"`    // 0 = invalid

	// Altitude is only filled when the sentence also passes checksum validation.
	Altitude    float64 `json:"alt_m,omitempty"`
	HasAltitude bool    `json:"has_alt"`
}

// Recognized reports whether the line was a GGA sentence with enough fields
// to carry fix quality and satellite count.
func (r FixResult) Recognized() bool {
	return r.Kind == NoFix || r.Kind == Fix
}
