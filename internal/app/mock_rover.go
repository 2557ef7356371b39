// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/cloud"
	"github.com/relabs-tech/rover_bridge/internal/config"
	"github.com/relabs-tech/rover_bridge/internal/peer"
	"github.com/relabs-tech/rover_bridge/internal/rover"
	"github.com/relabs-tech/rover_bridge/internal/sim"
)

const (
	mockFixEvery     = time.Second
	mockBatteryEvery = 10 * time.Second
)

// RunMockRover runs the bridge loop against a simulated GPS receiver and
// motor board, publishing to the real broker. Useful for working on the
// dashboard away from the hardware.
func RunMockRover() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	motor := sim.NewMotor(85, peerLineBuffer)
	gpsLines := make(chan string, gpsLineBuffer)
	start := time.Now()
	go feedMock(ctx, sim.NewGGASource(start), start, motor, gpsLines)

	state := rover.NewSynchronizer(rover.DefaultStatus(), cfg.StaleAfter())
	motor.Send(peer.PingInit)
	state.PeerProbed(true)

	cl, err := cloud.Dial(cloud.Options{
		Broker:          cfg.MQTTBroker,
		ClientID:        cfg.MQTTClientIDBridge + "-mock",
		Username:        cfg.MQTTUsername,
		Password:        cfg.MQTTPassword,
		CommandTopic:    cfg.TopicCommands,
		StatusTopic:     cfg.TopicStatus,
		ListenCommands:  true,
		ConnectAttempts: cloudConnectRetries,
		RetryDelay:      cfg.Reconnect(),
	})
	if err != nil {
		return err
	}
	defer cl.Close()

	bridge := &Bridge{
		Sync:         state,
		GPSLines:     gpsLines,
		PeerLines:    motor.Lines(),
		Commands:     cl.Commands(),
		Peer:         motor,
		Cloud:        cl,
		Signal:       func() int { return -50 },
		PublishEvery: cfg.PublishInterval(),
		Poll:         cfg.Poll(),
	}

	log.Println("mock: simulated rover running")
	return bridge.Run(ctx)
}

// feedMock writes one GGA sentence per second and a battery report every ten.
// The receiver only circles while the motor board is moving; otherwise it
// reports the last position.
func feedMock(ctx context.Context, src *sim.GGASource, clock time.Time, motor *sim.Motor, out chan<- string) {
	fixes := time.NewTicker(mockFixEvery)
	defer fixes.Stop()
	battery := time.NewTicker(mockBatteryEvery)
	defer battery.Stop()

	// clock is simulated time; it only advances while moving.
	for {
		select {
		case <-ctx.Done():
			return
		case <-fixes.C:
			if motor.Moving() {
				clock = clock.Add(mockFixEvery)
			}
			select {
			case out <- src.Next(clock):
			default:
			}
		case <-battery.C:
			motor.Tick()
		}
	}
}
