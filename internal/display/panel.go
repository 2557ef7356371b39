// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

const (
	panelWidth  = 128
	panelHeight = 64
	lineHeight  = 13
)

// Panel is a 128x64 SSD1306 OLED on the default I2C bus.
type Panel struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenPanel initializes periph, opens the I2C bus and shows a splash screen.
func OpenPanel() (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: panel initialized")

	p := &Panel{bus: bus, dev: dev}
	if err := p.draw([]string{"", "  Rover Bridge", "  waiting..."}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return p, nil
}

// Show renders the status document.
func (p *Panel) Show(doc rover.StatusDocument, linkReady bool) error {
	return p.draw(Lines(doc, linkReady))
}

// Close blanks the panel and releases the bus.
func (p *Panel) Close() error {
	if err := p.dev.Halt(); err != nil {
		log.Printf("display: halt: %v", err)
	}
	return p.bus.Close()
}

func (p *Panel) draw(lines []string) error {
	return p.dev.Draw(p.dev.Bounds(), Render(lines), image.Point{})
}

// Lines formats a status document as up to five 18-character rows.
func Lines(doc rover.StatusDocument, linkReady bool) []string {
	gpsLine := fmt.Sprintf("GPS: no fix  s:%d", doc.Satellites)
	if doc.GPS.Valid {
		gpsLine = fmt.Sprintf("GPS: ok      s:%d", doc.Satellites)
	}

	lat, latDir := doc.GPS.Lat, "N"
	if lat < 0 {
		lat, latDir = -lat, "S"
	}
	lng, lngDir := doc.GPS.Lng, "E"
	if lng < 0 {
		lng, lngDir = -lng, "W"
	}

	flags := "Motor:"
	if doc.ArduinoConnected {
		flags += "ok "
	} else {
		flags += "-- "
	}
	if linkReady {
		flags += "Net:ok"
	} else {
		flags += "Net:--"
	}

	top := fmt.Sprintf("Bat: %3d%%", doc.Battery)
	if doc.EmergencyStop {
		top += "  E-STOP"
	}

	return []string{
		top,
		gpsLine,
		fmt.Sprintf("%.5f%s", lat, latDir),
		fmt.Sprintf("%.5f%s", lng, lngDir),
		flags,
	}
}

// Render draws lines top to bottom with the 7x13 font.
func Render(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, panelWidth, panelHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > panelHeight+lineHeight/2 {
			break
		}
		drawer.Dot = fixed.P(0, y-2)
		drawer.DrawString(line)
	}
	return img
}
