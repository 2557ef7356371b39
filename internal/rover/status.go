// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rover

// Base coordinates reported until the GPS produces a fix.
const (
	BaseLatitude  = 25.9231526
	BaseLongitude = -97.5892535
	BaseAltitude  = 10.0

	defaultBattery = 85
)

// Position is a WGS84 position in decimal degrees and meters.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Altitude  float64 `json:"alt"`
}

// Status mirrors the rover's state. One instance per process, owned by the
// Synchronizer.
type Status struct {
	Battery       int      // percent, 0-100
	Position      Position // last known, base coordinates before the first fix
	PositionValid bool     // fix obtained and not yet stale
	Satellites    int
	PeerConnected bool // motor board answered a probe or a ping
	EmergencyStop bool // latched until the next dispatched command
}

// DefaultStatus is the record the rover starts with.
func DefaultStatus() Status {
	return Status{
		Battery: defaultBattery,
		Position: Position{
			Latitude:  BaseLatitude,
			Longitude: BaseLongitude,
			Altitude:  BaseAltitude,
		},
	}
}
