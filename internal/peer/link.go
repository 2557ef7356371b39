// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package peer

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/serialport"
)

// Link is the text channel to the motor board. Reads happen on a background
// goroutine; consumers drain Lines() from their own loop.
type Link struct {
	port  io.ReadWriteCloser
	lines chan string

	mu sync.Mutex // serializes writes
}

// NewLink wraps an open port. buffer bounds how many unread lines are kept.
func NewLink(port io.ReadWriteCloser, buffer int) *Link {
	if buffer <= 0 {
		buffer = 64
	}
	return &Link{port: port, lines: make(chan string, buffer)}
}

// Start launches the line reader. It stops when ctx is done or the port fails.
func (l *Link) Start(ctx context.Context) {
	go func() {
		if err := serialport.ReadLines(ctx, "peer", l.port, l.lines); err != nil && ctx.Err() == nil {
			log.Printf("peer: reader stopped: %v", err)
		}
	}()
}

// Lines returns inbound lines, already trimmed.
func (l *Link) Lines() <-chan string {
	return l.lines
}

// Send writes one directive followed by a newline.
func (l *Link) Send(d Directive) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.port, string(d)+"\n"); err != nil {
		return fmt.Errorf("peer send %q: %w", d, err)
	}
	log.Printf("peer: -> %s", d)
	return nil
}

// Probe sends the init ping and waits up to wait for any reply line.
// It returns the reply and whether one arrived in time.
func (l *Link) Probe(ctx context.Context, wait time.Duration) (string, bool, error) {
	if err := l.Send(PingInit); err != nil {
		return "", false, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case line, ok := <-l.lines:
		if !ok {
			return "", false, fmt.Errorf("peer link closed during probe")
		}
		return line, true, nil
	case <-timer.C:
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Close closes the underlying port, which also ends the reader.
func (l *Link) Close() error {
	return l.port.Close()
}
