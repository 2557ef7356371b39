// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/peer"
	"github.com/relabs-tech/rover_bridge/internal/rover"
)

const historySaveTimeout = 2 * time.Second

// StatusLink is the cloud side as seen by the bridge loop.
type StatusLink interface {
	Ready() bool
	Reconnect() error
	PublishStatus(rover.StatusDocument) error
}

// DirectiveSender delivers directives to the motor board.
type DirectiveSender interface {
	Send(peer.Directive) error
}

// Indicator shows the status locally (LED, OLED panel).
type Indicator interface {
	Show(doc rover.StatusDocument, linkReady bool) error
}

// HistorySink records published status documents.
type HistorySink interface {
	Save(ctx context.Context, doc rover.StatusDocument, at time.Time) error
}

// Bridge is the polling loop. It is the only goroutine that touches the
// Synchronizer; serial readers and the MQTT client hand their input over
// through channels.
type Bridge struct {
	Sync *rover.Synchronizer

	GPSLines  <-chan string
	PeerLines <-chan string
	Commands  <-chan rover.Command

	Peer    DirectiveSender
	Cloud   StatusLink
	Signal  func() int
	History HistorySink // optional

	Indicators     []Indicator
	IndicatorEvery time.Duration

	PublishEvery time.Duration
	Poll         time.Duration

	Now func() time.Time

	lastPublish   time.Time
	lastIndicator time.Time
	reconnecting  atomic.Bool
	wasReady      bool
}

// Run steps the loop every Poll until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.Poll)
	defer ticker.Stop()

	log.Println("bridge: loop started")
	for {
		b.Step(ctx)
		select {
		case <-ctx.Done():
			log.Println("bridge: shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one loop iteration: drain GPS lines, drain motor board lines,
// apply pending commands, check fix staleness, publish when due.
func (b *Bridge) Step(ctx context.Context) {
	now := b.now()

	b.drainGPS(now)
	b.drainPeer()
	b.drainCommands()

	if b.Sync.TickStaleness(now) {
		log.Println("bridge: GPS fix is stale, position marked invalid")
	}

	ready := b.Cloud.Ready()
	if ready != b.wasReady {
		if ready {
			log.Println("bridge: cloud link ready")
		} else {
			log.Println("bridge: cloud link not ready")
		}
		b.wasReady = ready
	}
	if !ready {
		b.reconnect()
	}

	if now.Sub(b.lastPublish) >= b.PublishEvery {
		b.lastPublish = now
		if ready {
			b.publish(ctx, now)
		}
	}

	if len(b.Indicators) > 0 && now.Sub(b.lastIndicator) >= b.IndicatorEvery {
		b.lastIndicator = now
		doc := b.Sync.Snapshot(b.signal())
		for _, ind := range b.Indicators {
			if err := ind.Show(doc, ready); err != nil {
				log.Printf("bridge: indicator: %v", err)
			}
		}
	}
}

func (b *Bridge) drainGPS(now time.Time) {
	for {
		select {
		case line, ok := <-b.GPSLines:
			if !ok {
				b.GPSLines = nil
				return
			}
			b.Sync.OnFixLine(line, now)
		default:
			return
		}
	}
}

func (b *Bridge) drainPeer() {
	for {
		select {
		case line, ok := <-b.PeerLines:
			if !ok {
				b.PeerLines = nil
				return
			}
			msg := b.Sync.OnPeerLine(line)
			if msg.Kind != peer.Empty {
				log.Printf("peer: <- %s", msg.Text)
			}
		default:
			return
		}
	}
}

func (b *Bridge) drainCommands() {
	for {
		select {
		case cmd, ok := <-b.Commands:
			if !ok {
				b.Commands = nil
				return
			}
			b.dispatch(cmd)
		default:
			return
		}
	}
}

func (b *Bridge) dispatch(cmd rover.Command) {
	log.Printf("bridge: processing command %q (%s)", cmd.Name, cmd.ID)

	directive, err := b.Sync.Dispatch(cmd)
	switch {
	case errors.Is(err, rover.ErrUnknownCommand):
		log.Printf("bridge: command not recognized: %v", err)
	case err != nil:
		log.Printf("bridge: command ignored: %v", err)
	}
	if directive == "" {
		return
	}
	if err := b.Peer.Send(directive); err != nil {
		log.Printf("bridge: %v", err)
	}
}

func (b *Bridge) publish(ctx context.Context, now time.Time) {
	doc := b.Sync.Snapshot(b.signal())
	if err := b.Cloud.PublishStatus(doc); err != nil {
		log.Printf("bridge: error publishing status: %v", err)
		return
	}
	if b.History == nil {
		return
	}
	hctx, cancel := context.WithTimeout(ctx, historySaveTimeout)
	defer cancel()
	if err := b.History.Save(hctx, doc, now); err != nil {
		log.Printf("bridge: history: %v", err)
	}
}

// reconnect retries the cloud link in the background so the serial side
// keeps being served meanwhile.
func (b *Bridge) reconnect() {
	if !b.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer b.reconnecting.Store(false)
		if err := b.Cloud.Reconnect(); err != nil {
			log.Printf("bridge: cloud %v", err)
		}
	}()
}

func (b *Bridge) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Bridge) signal() int {
	if b.Signal == nil {
		return 0
	}
	return b.Signal()
}
