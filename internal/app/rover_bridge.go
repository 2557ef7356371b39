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

	"github.com/relabs-tech/rover_bridge/internal/cloud"
	"github.com/relabs-tech/rover_bridge/internal/config"
	"github.com/relabs-tech/rover_bridge/internal/display"
	"github.com/relabs-tech/rover_bridge/internal/history"
	"github.com/relabs-tech/rover_bridge/internal/peer"
	"github.com/relabs-tech/rover_bridge/internal/rover"
	"github.com/relabs-tech/rover_bridge/internal/serialport"
)

const (
	gpsLineBuffer       = 64
	peerLineBuffer      = 64
	cloudConnectRetries = 5
)

// RunBridge opens the GPS and motor board UARTs, connects to the broker and
// runs the bridge loop until SIGINT/SIGTERM.
func RunBridge() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- 1) Serial links ----
	gpsPort, err := serialport.Open(cfg.GPSSerialPort, cfg.GPSBaudRate)
	if err != nil {
		return fmt.Errorf("gps: %w", err)
	}
	defer gpsPort.Close()

	gpsLines := make(chan string, gpsLineBuffer)
	go func() {
		if err := serialport.ReadLines(ctx, "gps", gpsPort, gpsLines); err != nil && ctx.Err() == nil {
			log.Printf("gps: reader stopped: %v", err)
		}
	}()

	peerPort, err := serialport.Open(cfg.PeerSerialPort, cfg.PeerBaudRate)
	if err != nil {
		return fmt.Errorf("peer: %w", err)
	}
	link := peer.NewLink(peerPort, peerLineBuffer)
	defer link.Close()
	link.Start(ctx)

	state := rover.NewSynchronizer(rover.DefaultStatus(), cfg.StaleAfter())

	log.Println("bridge: probing motor board")
	reply, ok, err := link.Probe(ctx, cfg.ProbeTimeout())
	switch {
	case err != nil:
		return fmt.Errorf("peer probe: %w", err)
	case ok:
		log.Printf("bridge: motor board replied: %s", reply)
		state.OnPeerLine(reply)
	default:
		log.Println("bridge: motor board did not reply, check the wiring")
	}
	state.PeerProbed(ok)

	// ---- 2) Cloud link ----
	cl, err := cloud.Dial(cloud.Options{
		Broker:          cfg.MQTTBroker,
		ClientID:        cfg.MQTTClientIDBridge,
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

	// ---- 3) Optional history and indicators ----
	bridge := &Bridge{
		Sync:           state,
		GPSLines:       gpsLines,
		PeerLines:      link.Lines(),
		Commands:       cl.Commands(),
		Peer:           link,
		Cloud:          cl,
		Signal:         func() int { return cloud.WirelessSignal(cfg.WiFiInterface) },
		PublishEvery:   cfg.PublishInterval(),
		Poll:           cfg.Poll(),
		IndicatorEvery: cfg.DisplayRefresh(),
	}

	if cfg.ClickHouseAddr != "" {
		store, err := history.Open(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
		if err != nil {
			log.Printf("bridge: history disabled: %v", err)
		} else {
			defer store.Close()
			bridge.History = store
		}
	}

	led, err := display.OpenLED(cfg.StatusLEDPin)
	if err != nil {
		log.Printf("bridge: status LED disabled: %v", err)
	} else if led != nil {
		defer led.Close()
		bridge.Indicators = append(bridge.Indicators, led)
	}

	if cfg.DisplayEnabled {
		panel, err := display.OpenPanel()
		if err != nil {
			log.Printf("bridge: display disabled: %v", err)
		} else {
			defer panel.Close()
			bridge.Indicators = append(bridge.Indicators, panel)
		}
	}

	log.Println("bridge: system initialized")
	return bridge.Run(ctx)
}
