// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// Open opens a UART in 8N1 mode. Both the GPS receiver and the motor board
// talk 9600 baud text, but the rate is configurable.
// NOTE: adjust the port to match your setup: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, etc.
func Open(portName string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	log.Printf("serial: opened %s at %d baud", portName, baud)
	return port, nil
}

// ReadLines splits r into newline-terminated lines, trims surrounding
// whitespace, drops empty lines and pushes the rest onto out. It returns
// when r fails or ctx is done; out is closed on return.
//
// When out is full the line is dropped, so a slow consumer never stalls the
// UART.
func ReadLines(ctx context.Context, name string, r io.Reader, out chan<- string) error {
	defer close(out)

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			default:
				log.Printf("%s: line buffer full, dropping %q", name, line)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("%s read: %w", name, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
