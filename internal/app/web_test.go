package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []rover.Command
	err  error
}

func (p *fakePublisher) PublishCommand(cmd rover.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, cmd)
	return nil
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.sent {
		out = append(out, c.Name)
	}
	return out
}

var dashNow = time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)

func newTestDashboard(pub CommandPublisher) (*Dashboard, *httptest.Server) {
	d := NewDashboard(pub)
	d.now = func() time.Time { return dashNow }
	return d, httptest.NewServer(d.Handler(""))
}

func sampleStatus() rover.StatusDocument {
	return rover.StatusDocument{
		Battery:          72,
		Signal:           -61,
		GPS:              rover.GPSDocument{Lat: 25.9, Lng: -97.5, Alt: 10, Valid: true},
		Satellites:       9,
		ArduinoConnected: true,
	}
}

func TestAPIStatus_NoDataYet(t *testing.T) {
	_, ts := newTestDashboard(&fakePublisher{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
}

func TestAPIStatus_StampsLastUpdate(t *testing.T) {
	d, ts := newTestDashboard(&fakePublisher{})
	defer ts.Close()
	d.UpdateStatus(sampleStatus())

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var doc rover.StatusDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if doc.Battery != 72 || doc.Satellites != 9 || !doc.GPS.Valid {
		t.Fatalf("doc=%+v", doc)
	}
	if !doc.LastUpdate.Time().Equal(dashNow) {
		t.Fatalf("lastUpdate=%v want %v", doc.LastUpdate.Time(), dashNow)
	}
}

func postCommand(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/command", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post command: %v", err)
	}
	return resp
}

func TestAPICommand(t *testing.T) {
	pub := &fakePublisher{}
	_, ts := newTestDashboard(pub)
	defer ts.Close()

	resp := postCommand(t, ts.URL, `{"command":"go_to_destination","params":{"lat":25.9,"lng":-97.5}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if out["command"] != "go_to_destination" || out["id"] == "" {
		t.Fatalf("reply=%v", out)
	}
	if got := pub.names(); len(got) != 1 || got[0] != "go_to_destination" {
		t.Fatalf("published=%v", got)
	}
}

func TestAPICommand_Rejects(t *testing.T) {
	pub := &fakePublisher{}
	_, ts := newTestDashboard(pub)
	defer ts.Close()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"unknown", `{"command":"dance"}`, http.StatusBadRequest},
		{"not json", `command=start`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postCommand(t, ts.URL, tc.body)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status code=%d want %d", resp.StatusCode, tc.want)
			}
		})
	}

	resp, err := http.Get(ts.URL + "/api/command")
	if err != nil {
		t.Fatalf("get command: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET status code=%d", resp.StatusCode)
	}

	if got := pub.names(); len(got) != 0 {
		t.Fatalf("published=%v want none", got)
	}
}

// failingWriter accepts headers but fails every body write.
type failingWriter struct {
	*httptest.ResponseRecorder
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}

func TestAPICommand_LogsReplyEncodeError(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDashboard(pub)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	w := failingWriter{httptest.NewRecorder()}
	r := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(`{"command":"stop"}`))
	d.Handler("").ServeHTTP(w, r)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status code=%d", w.Code)
	}
	if got := pub.names(); len(got) != 1 || got[0] != "stop" {
		t.Fatalf("published=%v", got)
	}
	if !strings.Contains(buf.String(), "web: json encode error: client went away") {
		t.Fatalf("encode error not logged, log=%q", buf.String())
	}
}

func TestAPICommand_BrokerDown(t *testing.T) {
	_, ts := newTestDashboard(&fakePublisher{err: errors.New("link not ready")})
	defer ts.Close()

	resp := postCommand(t, ts.URL, `{"command":"stop"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
}

func TestWebsocket_StatusAndCommands(t *testing.T) {
	pub := &fakePublisher{}
	d, ts := newTestDashboard(pub)
	defer ts.Close()
	d.UpdateStatus(sampleStatus())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	read := func() wsReply {
		t.Helper()
		var r wsReply
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatalf("read: %v", err)
		}
		return r
	}

	if r := read(); r.Type != "status" || r.Status == nil || r.Status.Battery != 72 {
		t.Fatalf("initial reply=%+v", r)
	}

	if err := conn.WriteJSON(wsMessage{Action: "command", Command: "emergency_stop"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if r := read(); r.Type != "ack" {
		t.Fatalf("reply=%+v want ack", r)
	}

	if err := conn.WriteJSON(wsMessage{Action: "command", Command: "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if r := read(); r.Type != "error" {
		t.Fatalf("reply=%+v want error", r)
	}

	if err := conn.WriteJSON(wsMessage{Action: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if r := read(); r.Type != "error" {
		t.Fatalf("reply=%+v want error", r)
	}

	next := sampleStatus()
	next.Battery = 40
	d.UpdateStatus(next)
	if r := read(); r.Type != "status" || r.Status.Battery != 40 {
		t.Fatalf("broadcast=%+v", r)
	}

	if got := pub.names(); len(got) != 1 || got[0] != "emergency_stop" {
		t.Fatalf("published=%v", got)
	}
}
