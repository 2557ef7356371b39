// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/rover_bridge/internal/textnum"
)

// maxCommas bounds how many field separators are recorded per sentence.
const maxCommas = 15

var ggaTags = []string{"$GPGGA", "$GNGGA"}

// IsGGA reports whether line carries one of the recognized fix-data tags.
func IsGGA(line string) bool {
	for _, tag := range ggaTags {
		if strings.HasPrefix(line, tag) {
			return true
		}
	}
	return false
}

// TryParseFix decodes a GGA line that has already been trimmed of its line
// terminator.
//
// Fields (0 is the tag):
//
//	2: latitude (ddmm.mmmm)
//	3: N/S
//	4: longitude (dddmm.mmmm)
//	5: E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//
// Anything that is not a GGA line yields Kind NotFix and never panics.
func TryParseFix(line string) FixResult {
	if !IsGGA(line) {
		return FixResult{Kind: NotFix}
	}

	commas := make([]int, 0, maxCommas)
	for i := 0; i < len(line) && len(commas) < maxCommas; i++ {
		if line[i] == ',' {
			commas = append(commas, i)
		}
	}
	if len(commas) < 7 {
		return FixResult{Kind: ShortFields}
	}

	field := func(n int) string {
		start := commas[n-1] + 1
		if n < len(commas) {
			return line[start:commas[n]]
		}
		// Last recorded comma: the field runs to the end of the line.
		return line[start:]
	}

	latStr := field(2)
	latHemi := field(3)
	lonStr := field(4)
	lonHemi := field(5)
	quality := textnum.Int(field(6))
	sats := textnum.Int(field(7))

	res := FixResult{Kind: NoFix, Quality: quality, Satellites: sats}
	if quality <= 0 || latStr == "" || lonStr == "" {
		return res
	}

	res.Kind = Fix
	res.Valid = true
	res.Latitude = DecimalDegrees(latStr, latHemi)
	res.Longitude = DecimalDegrees(lonStr, lonHemi)

	if alt, ok := checkedAltitude(line); ok {
		res.Altitude = alt
		res.HasAltitude = true
	}
	return res
}

// DecimalDegrees converts an NMEA ddmm.mmmm / dddmm.mmmm coordinate into
// signed decimal degrees. The degree/minute split is taken two characters
// left of the decimal point, whatever the field length. Strings shorter than
// four characters or without a decimal point convert to 0. When the dot sits
// in the first two characters the whole string is read as degrees and the
// minutes are 0.
func DecimalDegrees(coordinate, hemisphere string) float64 {
	if len(coordinate) < 4 {
		return 0.0
	}
	dot := strings.IndexByte(coordinate, '.')
	if dot < 0 {
		return 0.0
	}

	var degrees, minutes float64
	if split := dot - 2; split < 0 {
		degrees = textnum.Float(coordinate)
	} else {
		degrees = textnum.Float(coordinate[:split])
		minutes = textnum.Float(coordinate[split:])
	}
	decimal := degrees + minutes/60.0

	if hemisphere == "S" || hemisphere == "W" {
		decimal = -decimal
	}
	return decimal
}

// checkedAltitude returns the GGA altitude when the full sentence passes
// go-nmea validation (checksum included).
func checkedAltitude(line string) (float64, bool) {
	s, err := nmea.Parse(line)
	if err != nil {
		return 0, false
	}
	gga, ok := s.(nmea.GGA)
	if !ok {
		return 0, false
	}
	return gga.Altitude, true
}
