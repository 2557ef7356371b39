// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cloud

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/relabs-tech/rover_bridge/internal/textnum"
)

const procWireless = "/proc/net/wireless"

// WirelessSignal returns the signal level (dBm) of iface, or 0 when the
// interface is down or the kernel does not expose wireless statistics.
func WirelessSignal(iface string) int {
	f, err := os.Open(procWireless)
	if err != nil {
		return 0
	}
	defer f.Close()
	return parseWireless(f, iface)
}

// parseWireless reads the /proc/net/wireless table:
//
//	Inter-| sta-|   Quality        |   Discarded packets ...
//	 face | tus | link level noise |  nwid  crypt ...
//	 wlan0: 0000   54.  -56.  -256        0 ...
func parseWireless(r io.Reader, iface string) int {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return 0
		}
		return textnum.Int(fields[2])
	}
	return 0
}
