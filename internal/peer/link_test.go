package peer

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort is a motor board on the other end of a pipe: whatever the link
// writes is captured, and the test feeds replies through reply.
type fakePort struct {
	io.Reader
	reply *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
}

func newFakePort() *fakePort {
	pr, pw := io.Pipe()
	return &fakePort{Reader: pr, reply: pw}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error { return p.reply.Close() }

func (p *fakePort) sent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func TestLink_SendAppendsNewline(t *testing.T) {
	port := newFakePort()
	l := NewLink(port, 4)

	if err := l.Send(Move(150)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := l.Send(Stop); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got, want := port.sent(), "MOVE:FORWARD:150\nSTOP\n"; got != want {
		t.Fatalf("sent=%q want %q", got, want)
	}
}

func TestLink_ProbeGetsReply(t *testing.T) {
	port := newFakePort()
	l := NewLink(port, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	go port.reply.Write([]byte("PONG:ARDUINO_READY\r\n"))

	reply, ok, err := l.Probe(ctx, 2*time.Second)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !ok || reply != "PONG:ARDUINO_READY" {
		t.Fatalf("reply=%q ok=%v", reply, ok)
	}
	if got := port.sent(); got != "PING:ESP32_INIT\n" {
		t.Fatalf("sent=%q", got)
	}
}

func TestLink_ProbeTimesOut(t *testing.T) {
	port := newFakePort()
	l := NewLink(port, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	_, ok, err := l.Probe(ctx, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if ok {
		t.Fatalf("expected no reply")
	}
}
