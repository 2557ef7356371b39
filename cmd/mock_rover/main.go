// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/carlmjohnson/versioninfo"

	"github.com/relabs-tech/rover_bridge/internal/app"
	"github.com/relabs-tech/rover_bridge/internal/config"
)

func main() {
	log.Printf("starting rover bridge (simulated GPS and motor board), version %s", versioninfo.Short())

	// Load configuration
	if err := config.InitGlobal("rover_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunMockRover(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
