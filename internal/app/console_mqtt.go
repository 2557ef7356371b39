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
	"github.com/relabs-tech/rover_bridge/internal/rover"
)

// RunConsoleMQTT prints every status document and command seen on the broker.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	cl, err := cloud.Dial(cloud.Options{
		Broker:          cfg.MQTTBroker,
		ClientID:        cfg.MQTTClientIDConsole,
		Username:        cfg.MQTTUsername,
		Password:        cfg.MQTTPassword,
		CommandTopic:    cfg.TopicCommands,
		StatusTopic:     cfg.TopicStatus,
		ListenCommands:  true,
		OnStatus:        printStatus,
		ConnectAttempts: cloudConnectRetries,
		RetryDelay:      cfg.Reconnect(),
	})
	if err != nil {
		return err
	}
	defer cl.Close()
	log.Printf("console: watching %s and %s on %s", cfg.TopicStatus, cfg.TopicCommands, cfg.MQTTBroker)

	// Wait for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cl.Supervise(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("console: shutting down")
			return nil
		case cmd := <-cl.Commands():
			fmt.Print(formatCommand(cmd))
		}
	}
}

func printStatus(doc rover.StatusDocument) {
	fmt.Print(formatStatus(doc))
}

func formatStatus(doc rover.StatusDocument) string {
	updated := "pending"
	if doc.LastUpdate.IsSet() {
		updated = doc.LastUpdate.Time().Format(time.TimeOnly)
	}
	return fmt.Sprintf(
		"[STATUS] batt=%3d%%  rssi=%4d  lat=%.6f lng=%.6f alt=%.1f valid=%t  sats=%2d  peer=%t  estop=%t  updated=%s\n",
		doc.Battery, doc.Signal, doc.GPS.Lat, doc.GPS.Lng, doc.GPS.Alt, doc.GPS.Valid,
		doc.Satellites, doc.ArduinoConnected, doc.EmergencyStop, updated,
	)
}

func formatCommand(cmd rover.Command) string {
	if len(cmd.Params) == 0 {
		return fmt.Sprintf("[CMD ]   %s (%s)\n", cmd.Name, cmd.ID)
	}
	return fmt.Sprintf("[CMD ]   %s (%s) params=%v\n", cmd.Name, cmd.ID, cmd.Params)
}
