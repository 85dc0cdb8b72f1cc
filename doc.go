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

// Package ilc implements the framing, dispatch and response-matching engine
// used to command and observe M1M3 Inner-Loop Controllers over a ModBus-like
// bus transported through an FPGA FIFO.
//
// The engine serializes typed ILC function calls into FPGA FIFO instruction
// words, parses the FPGA's returned instruction-word stream back into typed
// responses, enforces send/receive pairing through a commanded queue, and
// suppresses duplicate event-like telemetry with a change recorder. It does
// not own a serial port, a thread, or an FPGA register map: those live
// behind the FPGADriver interface and are somebody else's problem.
package ilc
