// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package ilc

import (
	"io"
	"sort"

	mbserver "github.com/hootrhino/mbserver"
	"github.com/hootrhino/mbserver/store"
)

// diagnosticsRegistersPerAddress is the number of holding registers the
// diagnostics server publishes for each ILC address: last-observed mode
// and the byte length of its cached change-recorder fingerprint.
const diagnosticsRegistersPerAddress = 2

// DiagnosticsServer mirrors an ILC's per-address last-known mode and
// cached-response sizes into a read-only Modbus/TCP server, so a bench
// engineer can poll engine state with any ordinary Modbus/TCP client
// without the engine itself ever touching the network. It exposes
// already-decoded state; it does not relay bus traffic.
type DiagnosticsServer struct {
	ilc    *ILC
	server *mbserver.Server

	addresses []uint8
}

// NewDiagnosticsServer builds a DiagnosticsServer over ilc, publishing
// diagnostics for the given addresses in ascending order.
func NewDiagnosticsServer(ilc *ILC, addresses []uint8, logger io.Writer) *DiagnosticsServer {
	sorted := append([]uint8{}, addresses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	server := mbserver.NewServer(store.NewInMemoryStore(), 1)
	if logger != nil {
		server.SetLogger(logger)
	}

	return &DiagnosticsServer{ilc: ilc, server: server, addresses: sorted}
}

// Refresh recomputes the holding-register snapshot from the ILC's current
// state. Callers should call this after each ProcessResponse batch they
// want reflected to diagnostics clients.
func (d *DiagnosticsServer) Refresh() error {
	registers := make([]uint16, len(d.addresses)*diagnosticsRegistersPerAddress)
	for i, address := range d.addresses {
		mode, ok := d.ilc.LastMode(address)
		if !ok {
			mode = ModeStandby
		}
		registers[i*diagnosticsRegistersPerAddress] = uint16(mode)
		registers[i*diagnosticsRegistersPerAddress+1] = uint16(len(d.ilc.Recorder.cache[Pair{Address: address, Function: FuncServerStatus}]))
	}
	return d.server.SetHoldingRegisters(registers)
}

// Start begins serving Modbus/TCP on addr (e.g. ":502"), blocking the
// teacher's way: the caller runs Start in its own goroutine.
func (d *DiagnosticsServer) Start(addr string) error {
	return d.server.Start(addr)
}

// Stop shuts the server down.
func (d *DiagnosticsServer) Stop() {
	d.server.Stop()
}
