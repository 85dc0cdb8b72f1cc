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
	"encoding/binary"
	"fmt"
	"io"
	"time"

	goserial "github.com/hootrhino/goserial"
)

// BufferSimulator is an in-memory FPGADriver standing in for a real ILC
// bus: it plays the device's half of the conversation entirely in Go,
// useful for dispatch-engine tests that never need real hardware. Respond
// is handed the just-written command frame and returns the reply frame to
// hand back on the next read; a nil Respond answers every request with an
// empty reply.
type BufferSimulator struct {
	Logger  io.Writer
	Respond func(request []uint16) []uint16

	pending []uint16
	reply   []uint16
}

// NewBufferSimulator returns a BufferSimulator using respond to compute
// replies.
func NewBufferSimulator(respond func(request []uint16) []uint16) *BufferSimulator {
	return &BufferSimulator{Respond: respond}
}

func (s *BufferSimulator) logf(format string, args ...any) {
	if s.Logger != nil {
		fmt.Fprintf(s.Logger, "ilc: simulator: "+format+"\n", args...)
	}
}

// WriteCommandFIFO records the request frame the engine just built.
func (s *BufferSimulator) WriteCommandFIFO(words []uint16, timeout time.Duration) error {
	s.pending = append(s.pending[:0], words...)
	s.logf("command FIFO: %d words", len(words))
	return nil
}

// WriteRequestFIFO signals the simulated device to answer; the reply is
// computed now so it's ready for the following ReadU16ResponseFIFO calls.
func (s *BufferSimulator) WriteRequestFIFO(words []uint16, timeout time.Duration) error {
	if s.Respond != nil {
		s.reply = s.Respond(s.pending)
	} else {
		s.reply = nil
	}
	s.logf("request FIFO: reply has %d words", len(s.reply))
	return nil
}

// ReadU16ResponseFIFO implements the two-phase read: length=1 reports the
// reply's word count, any other length copies that many words.
func (s *BufferSimulator) ReadU16ResponseFIFO(length int, timeout time.Duration) ([]uint16, error) {
	if length == 1 {
		return []uint16{uint16(len(s.reply))}, nil
	}
	if length > len(s.reply) {
		return nil, &EndOfBufferError{}
	}
	return s.reply[:length], nil
}

// SerialSimulator is an FPGADriver backed by a real serial port opened
// through goserial, for bench rigs that exercise an actual ILC bus
// transceiver sitting in front of the host instead of the FPGA. Instruction
// words are packed big-endian, two bytes each, directly over the wire; this
// is a development/bench tool, not a substitute for the real FPGA FIFOs.
type SerialSimulator struct {
	Port   io.ReadWriteCloser
	Logger io.Writer
}

// OpenSerialSimulator opens cfg with goserial and wraps the resulting port.
func OpenSerialSimulator(cfg *goserial.Config) (*SerialSimulator, error) {
	port, err := goserial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &SerialSimulator{Port: port}, nil
}

// Close closes the underlying serial port.
func (s *SerialSimulator) Close() error {
	return s.Port.Close()
}

func (s *SerialSimulator) logf(format string, args ...any) {
	if s.Logger != nil {
		fmt.Fprintf(s.Logger, "ilc: serial simulator: "+format+"\n", args...)
	}
}

// WriteCommandFIFO packs words big-endian and writes them to the port.
func (s *SerialSimulator) WriteCommandFIFO(words []uint16, timeout time.Duration) error {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(buf[i*2:], w)
	}
	_, err := s.Port.Write(buf)
	s.logf("wrote %d words", len(words))
	return err
}

// WriteRequestFIFO writes a single go-ahead byte; the bench rig's firmware
// answers once it sees it.
func (s *SerialSimulator) WriteRequestFIFO(words []uint16, timeout time.Duration) error {
	_, err := s.Port.Write([]byte{0x01})
	return err
}

// ReadU16ResponseFIFO reads length words (2 bytes each, big-endian) off the
// port. The first phase (length=1) still costs a real read on this
// transport - unlike the FPGA FIFO, a serial port doesn't expose a
// word-count register - so it reads one word off the port and returns it
// as the word count.
func (s *SerialSimulator) ReadU16ResponseFIFO(length int, timeout time.Duration) ([]uint16, error) {
	buf := make([]byte, 2*length)
	if _, err := io.ReadFull(s.Port, buf); err != nil {
		return nil, err
	}
	words := make([]uint16, length)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(buf[i*2:])
	}
	return words, nil
}
