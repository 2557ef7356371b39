package main

import (
	"log"

	"github.com/carlmjohnson/versioninfo"

	"github.com/relabs-tech/rover_bridge/internal/app"
	"github.com/relabs-tech/rover_bridge/internal/config"
)

func main() {
	log.Printf("starting rover console (MQTT subscriber), version %s", versioninfo.Short())

	// Load configuration
	if err := config.InitGlobal("rover_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
