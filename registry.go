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

// Decoder consumes a decoded reply's payload from b, for the sender
// address, including its trailing CheckCRC. Buffer is passed explicitly
// rather than closed over, so a decoder's only captured state is whatever
// context (an *ILC, an *ElectromechanicalPneumaticILC) it needs for its own
// callback fields - the registry itself holds no reference to that context.
type Decoder func(b *Buffer, address uint8) error

// ErrorHandler is invoked after the core has already consumed the
// exception byte and verified CRC; it must not touch the buffer.
type ErrorHandler func(address, exception uint8)

// responseEntry pairs a normal decoder with its paired error code and
// optional handler. One entry is reachable from two keys: the normal
// function code and the error function code.
type responseEntry struct {
	NormalFunction uint8
	Decoder        Decoder
	ErrorFunction  uint8
	ErrorHandler   ErrorHandler
}

// Registry maps ModBus function codes to decoders. Lookups are a plain map
// read returning (value, ok) - no catch-and-recover on a missing entry.
type Registry struct {
	byNormal map[uint8]responseEntry
	byError  map[uint8]responseEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byNormal: make(map[uint8]responseEntry),
		byError:  make(map[uint8]responseEntry),
	}
}

// AddResponse registers decoder as the normal-reply handler for function,
// and errorHandler (which may be nil) as the handler for errorFunction.
// function and errorFunction must differ, so the commanded-queue check can
// resolve the expected normal function before the error payload is
// decoded.
func (r *Registry) AddResponse(function uint8, decoder Decoder, errorFunction uint8, errorHandler ErrorHandler) error {
	if function == errorFunction {
		return fmt.Errorf("ilc: function %d and its error function must differ", function)
	}
	entry := responseEntry{
		NormalFunction: function,
		Decoder:        decoder,
		ErrorFunction:  errorFunction,
		ErrorHandler:   errorHandler,
	}
	r.byNormal[function] = entry
	r.byError[errorFunction] = entry
	return nil
}

// NormalEntry looks up function as a registered normal-reply code.
func (r *Registry) NormalEntry(function uint8) (responseEntry, bool) {
	e, ok := r.byNormal[function]
	return e, ok
}

// ErrorEntry looks up function as a registered error-reply code. The
// returned entry's NormalFunction is the expected queued function for the
// commanded-queue check.
func (r *Registry) ErrorEntry(function uint8) (responseEntry, bool) {
	e, ok := r.byError[function]
	return e, ok
}
