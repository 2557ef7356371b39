package rover

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStatusDocument_WireShape(t *testing.T) {
	doc := StatusDocument{
		Battery:          85,
		Signal:           -55,
		GPS:              GPSDocument{Lat: 25.5, Lng: -97.5, Alt: 10, Valid: true},
		ArduinoConnected: true,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// The published field set is closed: the firmware fields plus
	// satellites and gps.alt.
	top := []string{"battery", "signal", "gps", "satellites", "arduinoConnected", "emergencyStop", "lastUpdate"}
	for _, key := range top {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if len(m) != len(top) {
		t.Errorf("got %d top-level keys, want %d: %s", len(m), len(top), b)
	}
	gps, _ := m["gps"].(map[string]any)
	nested := []string{"lat", "lng", "alt", "valid"}
	for _, key := range nested {
		if _, ok := gps[key]; !ok {
			t.Errorf("missing gps.%s in %s", key, b)
		}
	}
	if len(gps) != len(nested) {
		t.Errorf("got %d gps keys, want %d: %s", len(gps), len(nested), b)
	}
	if !strings.Contains(string(b), `"lastUpdate":{".sv":"timestamp"}`) {
		t.Fatalf("expected server timestamp placeholder, got %s", b)
	}
}

func TestServerTimestamp_StampedRoundTrip(t *testing.T) {
	var doc StatusDocument
	at := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)
	doc.LastUpdate.Stamp(at)

	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back StatusDocument
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.LastUpdate.Time().Equal(at) {
		t.Fatalf("time=%v want %v", back.LastUpdate.Time(), at)
	}

	// A placeholder decodes as unset.
	if err := json.Unmarshal([]byte(`{"lastUpdate":{".sv":"timestamp"}}`), &back); err != nil {
		t.Fatalf("unmarshal placeholder: %v", err)
	}
	if back.LastUpdate.IsSet() {
		t.Fatalf("placeholder should decode as unset")
	}
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"command":"go_to_destination","params":{"lat":25.9,"lng":-97.5},"timestamp":1725271200000}`))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Name != CmdGoToDestination {
		t.Fatalf("name=%q", cmd.Name)
	}
	if cmd.ID == "" {
		t.Fatalf("expected correlation id")
	}
	if lat, ok := cmd.number("lat"); !ok || lat != 25.9 {
		t.Fatalf("lat=%v ok=%v", lat, ok)
	}

	cmd, err = DecodeCommand([]byte(`{"params":{}}`))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if cmd.Name != "" {
		t.Fatalf("name=%q want empty", cmd.Name)
	}

	if _, err := DecodeCommand([]byte(`not json`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestKnownCommand(t *testing.T) {
	for _, name := range []string{"start", "stop", "emergency_stop", "return_to_base", "follow_route", "go_to_destination"} {
		if !KnownCommand(name) {
			t.Errorf("%s should be known", name)
		}
	}
	if KnownCommand("return to base") {
		t.Errorf("spaced name should not be known")
	}
}
