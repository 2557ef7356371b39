// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/config"
	"github.com/relabs-tech/rover_bridge/internal/gps"
	"github.com/relabs-tech/rover_bridge/internal/serialport"
)

// RunGPSMonitor opens the GPS serial port and logs every GGA sentence it can
// decode, for checking the receiver wiring without the rest of the bridge.
func RunGPSMonitor() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, err := serialport.Open(cfg.GPSSerialPort, cfg.GPSBaudRate)
	if err != nil {
		return err
	}
	defer port.Close()

	lines := make(chan string, gpsLineBuffer)
	errc := make(chan error, 1)
	go func() { errc <- serialport.ReadLines(ctx, "gps", port, lines) }()

	var lastFix time.Time
	for line := range lines {
		res := gps.TryParseFix(line)
		if msg := describeFix(res, lastFix, time.Now()); msg != "" {
			log.Print(msg)
		}
		if res.Valid {
			lastFix = time.Now()
		}
	}

	if err := <-errc; err != nil && ctx.Err() == nil {
		return fmt.Errorf("gps: %w", err)
	}
	log.Println("gps: shutting down")
	return nil
}

// describeFix renders one decoded line for the monitor log. Lines that are
// not GGA sentences yield "".
func describeFix(res gps.FixResult, lastFix, now time.Time) string {
	switch res.Kind {
	case gps.ShortFields:
		return "gps: GGA sentence with too few fields"
	case gps.NoFix:
		since := "never"
		if !lastFix.IsZero() {
			since = now.Sub(lastFix).Truncate(time.Second).String() + " ago"
		}
		return fmt.Sprintf("gps: no fix, sats=%d quality=%d (last fix %s)", res.Satellites, res.Quality, since)
	case gps.Fix:
		alt := "n/a"
		if res.HasAltitude {
			alt = fmt.Sprintf("%.1fm", res.Altitude)
		}
		return fmt.Sprintf("gps: fix lat=%.6f lon=%.6f alt=%s sats=%d quality=%d",
			res.Latitude, res.Longitude, alt, res.Satellites, res.Quality)
	default:
		return ""
	}
}
