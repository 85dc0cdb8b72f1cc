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

import "fmt"

// EndOfBufferError is returned when a read runs past the last instruction
// word in the buffer.
type EndOfBufferError struct{}

func (e *EndOfBufferError) Error() string {
	return "end of buffer while reading response"
}

// CRCError is returned when the CRC read off the wire doesn't match the
// CRC accumulated while decoding the frame.
type CRCError struct {
	Calculated uint16
	Received   uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("checkCRC invalid CRC - expected 0x%04x, got 0x%04x", e.Calculated, e.Received)
}

// UnknownResponseError is returned when neither a normal nor an error
// decoder is registered for the function byte just read. Frame boundaries
// past this point are unknown; the caller must flush and resend.
type UnknownResponseError struct {
	Address  uint8
	Function uint8
}

func (e *UnknownResponseError) Error() string {
	return fmt.Sprintf("unknown function %d (0x%02x) in ModBus response for address %d", e.Function, e.Function, e.Address)
}

// ExceptionError is returned for a ModBus error reply with no registered
// custom error handler.
type ExceptionError struct {
	Address   uint8
	Function  uint8
	Exception uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("ModBus Exception %d (ModBus address %d, ModBus response function %d (0x%02x))",
		e.Exception, e.Address, e.Function, e.Function)
}

// UnmatchedFunctionError is returned when a decoded (address, function)
// reply doesn't match the head of the commanded queue - either a different
// pair was expected, or nothing was expected at all.
type UnmatchedFunctionError struct {
	Address          uint8
	Function         uint8
	HasExpected      bool
	ExpectedAddress  uint8
	ExpectedFunction uint8
}

func (e *UnmatchedFunctionError) Error() string {
	if !e.HasExpected {
		return fmt.Sprintf("received response %d with address %d without matching send function", e.Function, e.Address)
	}
	return fmt.Sprintf("invalid response received - expected %d (0x%02x) from %d, got %d (0x%02x) from %d",
		e.ExpectedFunction, e.ExpectedFunction, e.ExpectedAddress, e.Function, e.Function, e.Address)
}

// FramingError is returned when an expected end-of-frame, delay, or
// wait-for-Rx instruction word isn't found where expected.
type FramingError struct {
	Expected string
	Found    uint16
	Offset   int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("expected %s, found %04x (@ offset %d)", e.Expected, e.Found, e.Offset)
}

// CommandedNonEmptyError is returned by CheckCommandedEmpty when the
// commanded queue still holds pairs nobody replied to.
type CommandedNonEmptyError struct {
	Pending []Pair
}

func (e *CommandedNonEmptyError) Error() string {
	s := "responses for those <address:function> pairs weren't received: "
	for i, p := range e.Pending {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d:%d", p.Address, p.Function)
	}
	return s
}
