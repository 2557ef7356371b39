package sim

import (
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/gps"
	"github.com/relabs-tech/rover_bridge/internal/peer"
	"github.com/relabs-tech/rover_bridge/internal/rover"
)

func TestGGASource_DecodesNearBase(t *testing.T) {
	start := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)
	src := NewGGASource(start)

	for _, offset := range []time.Duration{0, 15 * time.Second, 30 * time.Second, 45 * time.Second} {
		line := src.Next(start.Add(offset))
		res := gps.TryParseFix(line)
		if res.Kind != gps.Fix || !res.Valid {
			t.Fatalf("%s: kind=%v line=%q", offset, res.Kind, line)
		}
		if math.Abs(res.Latitude-rover.BaseLatitude) > 0.001 || math.Abs(res.Longitude-rover.BaseLongitude) > 0.001 {
			t.Fatalf("%s: decoded %f,%f too far from base", offset, res.Latitude, res.Longitude)
		}
		if res.Satellites != 8 {
			t.Fatalf("sats=%d", res.Satellites)
		}
		if !res.HasAltitude || res.Altitude != rover.BaseAltitude {
			t.Fatalf("checksum should validate: alt=%v has=%v", res.Altitude, res.HasAltitude)
		}
	}
}

func TestGGASource_NoFix(t *testing.T) {
	src := NewGGASource(time.Now())
	res := gps.TryParseFix(src.NoFix(time.Now()))
	if res.Kind != gps.NoFix || res.Satellites != 8 {
		t.Fatalf("res=%+v", res)
	}
}

func TestEncodeCoordinate(t *testing.T) {
	field, hemi := encodeCoordinate(-97.5, 3, "E", "W")
	if field != "09730.0000" || hemi != "W" {
		t.Fatalf("got %s %s", field, hemi)
	}
	field, hemi = encodeCoordinate(5.25, 2, "N", "S")
	if field != "0515.0000" || hemi != "N" {
		t.Fatalf("got %s %s", field, hemi)
	}
}

func TestMotor(t *testing.T) {
	m := NewMotor(50, 4)

	if err := m.Send(peer.PingInit); err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg := peer.ParseLine(<-m.Lines()); msg.Kind != peer.Pong {
		t.Fatalf("probe reply kind=%v", msg.Kind)
	}

	m.Tick()
	if msg := peer.ParseLine(<-m.Lines()); msg.Kind != peer.Battery || msg.Battery != 50 {
		t.Fatalf("idle tick=%+v", msg)
	}

	m.Send(peer.Move(150))
	if !m.Moving() {
		t.Fatalf("expected moving")
	}
	m.Tick()
	if msg := peer.ParseLine(<-m.Lines()); msg.Battery != 49 {
		t.Fatalf("moving tick=%+v", msg)
	}

	m.Send(peer.Stop)
	if m.Moving() {
		t.Fatalf("expected stopped")
	}
}
