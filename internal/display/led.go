// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

// LED is a single status LED: lit while the cloud link is up and no
// emergency stop is latched.
type LED struct {
	pin   gpio.PinOut
	level gpio.Level
	set   bool
}

// OpenLED looks up a GPIO by name (e.g. "GPIO17"). An empty name returns a
// nil *LED, which is safe to use and does nothing.
func OpenLED(name string) (*LED, error) {
	if name == "" {
		return nil, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("status LED pin %q not found", name)
	}
	led := &LED{pin: pin}
	if err := led.apply(gpio.Low); err != nil {
		return nil, err
	}
	log.Printf("display: status LED on %s", name)
	return led, nil
}

// Show updates the LED for the given status.
func (l *LED) Show(doc rover.StatusDocument, linkReady bool) error {
	if l == nil {
		return nil
	}
	return l.apply(LEDLevel(doc, linkReady))
}

// Close turns the LED off.
func (l *LED) Close() error {
	if l == nil {
		return nil
	}
	return l.apply(gpio.Low)
}

func (l *LED) apply(level gpio.Level) error {
	if l.set && l.level == level {
		return nil
	}
	if err := l.pin.Out(level); err != nil {
		return fmt.Errorf("status LED: %w", err)
	}
	l.level, l.set = level, true
	return nil
}

// LEDLevel is the LED state for a status document.
func LEDLevel(doc rover.StatusDocument, linkReady bool) gpio.Level {
	return gpio.Level(linkReady && !doc.EmergencyStop)
}
