package app

import (
	"strings"
	"testing"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

func TestFormatStatus(t *testing.T) {
	doc := sampleStatus()
	got := formatStatus(doc)
	if !strings.HasPrefix(got, "[STATUS]") || !strings.Contains(got, "updated=pending") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "lat=25.900000") || !strings.Contains(got, "sats= 9") {
		t.Fatalf("got %q", got)
	}

	doc.LastUpdate.Stamp(dashNow)
	if strings.Contains(formatStatus(doc), "pending") {
		t.Fatalf("stamped document still pending")
	}
}

func TestFormatCommand(t *testing.T) {
	cmd := rover.Command{ID: "abc", Name: rover.CmdStop}
	if got := formatCommand(cmd); got != "[CMD ]   stop (abc)\n" {
		t.Fatalf("got %q", got)
	}
	cmd.Params = map[string]any{"lat": 1.5}
	if got := formatCommand(cmd); !strings.Contains(got, "params=map[lat:1.5]") {
		t.Fatalf("got %q", got)
	}
}
