// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/relabs-tech/rover_bridge/internal/rover"
)

const createStatusTable = `
CREATE TABLE IF NOT EXISTS rover_status (
	timestamp         DateTime64(3),
	battery           Int32,
	signal            Int32,
	lat               Float64,
	lng               Float64,
	alt               Float64,
	gps_valid         UInt8,
	satellites        Int32,
	arduino_connected UInt8,
	emergency_stop    UInt8
) ENGINE = MergeTree()
ORDER BY timestamp
TTL toDateTime(timestamp) + INTERVAL 30 DAY
`

const insertStatus = `
INSERT INTO rover_status (timestamp, battery, signal, lat, lng, alt, gps_valid, satellites, arduino_connected, emergency_stop)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Store keeps a history of published status documents in ClickHouse.
type Store struct {
	conn driver.Conn
}

// Open connects to ClickHouse and creates the status table if needed.
func Open(addr, database, username, password string) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := prepare(ctx, conn); err != nil {
		return nil, err
	}

	log.Printf("history: connected to ClickHouse at %s", addr)
	return &Store{conn: conn}, nil
}

// prepare checks the server and creates the table. conn is closed on failure.
func prepare(ctx context.Context, conn driver.Conn) error {
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createStatusTable); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create rover_status table: %w", err)
	}
	return nil
}

// Save records one status document published at at.
func (s *Store) Save(ctx context.Context, doc rover.StatusDocument, at time.Time) error {
	if err := s.conn.Exec(ctx, insertStatus, statusRow(doc, at)...); err != nil {
		return fmt.Errorf("failed to insert status: %w", err)
	}
	return nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func statusRow(doc rover.StatusDocument, at time.Time) []any {
	return []any{
		at,
		int32(doc.Battery),
		int32(doc.Signal),
		doc.GPS.Lat,
		doc.GPS.Lng,
		doc.GPS.Alt,
		boolToUInt8(doc.GPS.Valid),
		int32(doc.Satellites),
		boolToUInt8(doc.ArduinoConnected),
		boolToUInt8(doc.EmergencyStop),
	}
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
