// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"fmt"
	"math"
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

// GGASource generates $GPGGA sentences for a receiver circling the base
// position, so the bridge can run without GPS hardware.
type GGASource struct {
	start  time.Time
	Radius float64       // degrees
	Period time.Duration // one full lap
	Sats   int
}

// NewGGASource creates a source that starts its lap at start.
func NewGGASource(start time.Time) *GGASource {
	return &GGASource{
		start:  start,
		Radius: 0.0005,
		Period: time.Minute,
		Sats:   8,
	}
}

// Next returns the sentence for time t.
func (s *GGASource) Next(t time.Time) string {
	angle := 2 * math.Pi * t.Sub(s.start).Seconds() / s.Period.Seconds()
	lat := rover.BaseLatitude + s.Radius*math.Sin(angle)
	lon := rover.BaseLongitude + s.Radius*math.Cos(angle)

	latField, ns := encodeCoordinate(lat, 2, "N", "S")
	lonField, ew := encodeCoordinate(lon, 3, "E", "W")

	body := fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,%02d,0.9,%.1f,M,-22.0,M,,",
		t.UTC().Format("150405.00"), latField, ns, lonField, ew, s.Sats, rover.BaseAltitude)
	return "$" + body + "*" + nmea.Checksum(body)
}

// NoFix returns a sentence with quality 0 and no position.
func (s *GGASource) NoFix(t time.Time) string {
	body := fmt.Sprintf("GPGGA,%s,,,,,0,%02d,,,M,,M,,", t.UTC().Format("150405.00"), s.Sats)
	return "$" + body + "*" + nmea.Checksum(body)
}

// encodeCoordinate renders decimal degrees as NMEA (d)ddmm.mmmm.
func encodeCoordinate(deg float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if deg < 0 {
		hemi = neg
		deg = -deg
	}
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(whole), minutes), hemi
}
