// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package textnum parses numbers the lenient way the serial devices expect:
// the longest numeric prefix wins and garbage reads as zero.
package textnum

import "strconv"

// Int parses the longest integer prefix of s (after leading blanks).
// "08" -> 8, "3x" -> 3, "x" -> 0.
func Int(s string) int {
	i := skipBlanks(s)
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == digits {
		return 0
	}
	v, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0
	}
	return v
}

// Float parses the longest [sign]digits[.digits] prefix of s.
func Float(s string) float64 {
	i := skipBlanks(s)
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func skipBlanks(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
