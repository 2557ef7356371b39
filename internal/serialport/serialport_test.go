package serialport

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestReadLines_TrimsAndSkipsEmpty(t *testing.T) {
	in := strings.NewReader("STATUS:BATTERY:42\r\n\r\n  PONG:OK  \nlast-without-newline")
	out := make(chan string, 8)

	if err := ReadLines(context.Background(), "test", in, out); err != nil {
		t.Fatalf("ReadLines: %v", err)
	}

	var got []string
	for line := range out {
		got = append(got, line)
	}
	want := []string{"STATUS:BATTERY:42", "PONG:OK", "last-without-newline"}
	if len(got) != len(want) {
		t.Fatalf("got %q want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestReadLines_DropsWhenBufferFull(t *testing.T) {
	in := strings.NewReader("a\nb\nc\n")
	out := make(chan string, 1)

	if err := ReadLines(context.Background(), "test", in, out); err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	var got []string
	for line := range out {
		got = append(got, line)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %q want [a]", got)
	}
}

func TestReadLines_ReportsReadError(t *testing.T) {
	pr, pw := io.Pipe()
	out := make(chan string, 4)
	done := make(chan error, 1)
	go func() { done <- ReadLines(context.Background(), "test", pr, out) }()

	pw.Write([]byte("$GPGGA,1\n"))
	if line := <-out; line != "$GPGGA,1" {
		t.Fatalf("got %q", line)
	}
	pw.CloseWithError(io.ErrUnexpectedEOF)

	if err := <-done; err == nil {
		t.Fatalf("expected error")
	}
}
