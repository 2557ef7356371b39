// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package rover

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/rover_bridge/internal/gps"
	"github.com/relabs-tech/rover_bridge/internal/peer"
)

// DefaultStaleAfter is how long a fix stays valid without a new one.
const DefaultStaleAfter = 15 * time.Second

// Drive speeds sent with MOVE directives.
const (
	cruiseSpeed = 150
	demoSpeed   = 120 // placeholder motion while navigation is not implemented
)

var (
	ErrUnknownCommand   = errors.New("unrecognized command")
	ErrMissingParameter = errors.New("missing command parameter")
)

// Synchronizer applies GPS lines, motor board lines and remote commands to
// the rover status, and snapshots it for publication.
//
// It is not safe for concurrent use: a single loop owns it.
type Synchronizer struct {
	status     Status
	staleAfter time.Duration

	lastFix time.Time
	haveFix bool
}

// NewSynchronizer takes ownership of status. staleAfter <= 0 selects
// DefaultStaleAfter.
func NewSynchronizer(status Status, staleAfter time.Duration) *Synchronizer {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Synchronizer{status: status, staleAfter: staleAfter}
}

// Status returns a copy of the current status.
func (s *Synchronizer) Status() Status {
	return s.status
}

// OnFixLine feeds one GPS line. A valid fix updates the position and
// refreshes the fix time; a recognized sentence without a fix invalidates the
// position but still updates the satellite count. Other lines are ignored.
func (s *Synchronizer) OnFixLine(line string, now time.Time) gps.FixResult {
	res := gps.TryParseFix(line)
	switch res.Kind {
	case gps.Fix:
		s.status.Position.Latitude = res.Latitude
		s.status.Position.Longitude = res.Longitude
		if res.HasAltitude {
			s.status.Position.Altitude = res.Altitude
		}
		s.status.Satellites = res.Satellites
		s.status.PositionValid = true
		s.lastFix = now
		s.haveFix = true
	case gps.NoFix:
		s.status.Satellites = res.Satellites
		s.status.PositionValid = false
	}
	return res
}

// TickStaleness invalidates the position once no fix has arrived for longer
// than the stale window. It must run on every loop iteration. It reports
// whether this call invalidated the position.
func (s *Synchronizer) TickStaleness(now time.Time) bool {
	if !s.haveFix || now.Sub(s.lastFix) <= s.staleAfter {
		return false
	}
	wasValid := s.status.PositionValid
	s.status.PositionValid = false
	return wasValid
}

// OnPeerLine applies one line from the motor board.
func (s *Synchronizer) OnPeerLine(line string) peer.Message {
	msg := peer.ParseLine(line)
	switch msg.Kind {
	case peer.Battery:
		s.status.Battery = msg.Battery
	case peer.Pong:
		s.status.PeerConnected = true
	}
	return msg
}

// PeerProbed records the outcome of the start-up probe: any reply at all
// counts as connected.
func (s *Synchronizer) PeerProbed(replied bool) {
	s.status.PeerConnected = replied
}

// Dispatch applies a remote command and returns the directive for the motor
// board, or "" when nothing is to be sent.
//
// The emergency stop latch is cleared before the command name is looked at,
// so any command, recognized or not, releases it. emergency_stop sets it
// again.
func (s *Synchronizer) Dispatch(cmd Command) (peer.Directive, error) {
	s.status.EmergencyStop = false

	switch cmd.Name {
	case CmdStart:
		return peer.Move(cruiseSpeed), nil

	case CmdStop:
		return peer.Stop, nil

	case CmdEmergencyStop:
		s.status.EmergencyStop = true
		return peer.Stop, nil

	case CmdReturnToBase:
		// No waypoint navigation yet: stopping is the safe approximation.
		return peer.Stop, nil

	case CmdFollowRoute:
		if _, ok := cmd.param("path"); !ok {
			return "", fmt.Errorf("%s: %w: path", cmd.Name, ErrMissingParameter)
		}
		log.Printf("rover: route received (%s); route following not implemented, moving forward", cmd.ID)
		return peer.Move(demoSpeed), nil

	case CmdGoToDestination:
		lat, latOK := cmd.number("lat")
		lng, lngOK := cmd.number("lng")
		if !latOK || !lngOK {
			return "", fmt.Errorf("%s: %w: lat/lng", cmd.Name, ErrMissingParameter)
		}
		log.Printf("rover: destination lat=%f lng=%f (%s); navigation not implemented, moving forward", lat, lng, cmd.ID)
		return peer.Move(demoSpeed), nil

	default:
		return "", fmt.Errorf("%q: %w", cmd.Name, ErrUnknownCommand)
	}
}

// Snapshot returns the publication document for the current status.
// signal is the link quality indicator (RSSI in dBm) measured by the caller.
func (s *Synchronizer) Snapshot(signal int) StatusDocument {
	return StatusDocument{
		Battery: s.status.Battery,
		Signal:  signal,
		GPS: GPSDocument{
			Lat:   s.status.Position.Latitude,
			Lng:   s.status.Position.Longitude,
			Alt:   s.status.Position.Altitude,
			Valid: s.status.PositionValid,
		},
		Satellites:       s.status.Satellites,
		ArduinoConnected: s.status.PeerConnected,
		EmergencyStop:    s.status.EmergencyStop,
	}
}
