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

// Engine ties the frame codec, function registry, commanded queue and
// change recorder into the one coherent dispatch loop. It is single-
// threaded per instance: one Engine builds or decodes one frame at a time.
type Engine struct {
	Buffer    *Buffer
	Registry  *Registry
	Commanded *CommandedQueue
	Recorder  *ChangeRecorder

	// PreProcess and PostProcess are extension hooks run once per
	// ProcessResponse call, default no-op. PostProcess only runs when the
	// decode loop completes without error.
	PreProcess  func()
	PostProcess func()
}

// NewEngine returns an Engine wired for the given wire dialect, with an
// empty registry, commanded queue and change cache.
func NewEngine(dialect Dialect) *Engine {
	return &Engine{
		Buffer:    NewBuffer(dialect),
		Registry:  NewRegistry(),
		Commanded: &CommandedQueue{},
		Recorder:  NewChangeRecorder(),
	}
}

// RecordChanges starts accumulating the current decode's payload bytes for
// later comparison.
func (e *Engine) RecordChanges() {
	e.Buffer.RecordChanges()
}

// PauseRecordChanges stops accumulating without discarding what has been
// recorded.
func (e *Engine) PauseRecordChanges() {
	e.Buffer.PauseRecordChanges()
}

// ResponseMatchCached closes out the in-progress change record for
// (address, function) and reports whether it matched the cache - decoders
// call this at the tail of an event-like reply to decide whether to emit.
func (e *Engine) ResponseMatchCached(address, function uint8) bool {
	return e.Recorder.ResponseMatchCached(e.Buffer, address, function)
}

// Reset rewinds the buffer's read cursor without discarding queued state.
func (e *Engine) Reset() {
	e.Buffer.Reset()
}

// Clear empties the buffer. When onlyBuffers is false it also discards the
// commanded queue, matching the external clear(only_buffers=false) call.
func (e *Engine) Clear(onlyBuffers bool) {
	e.Buffer.Clear()
	if !onlyBuffers {
		e.Commanded.Clear()
	}
}

// writeHeader writes the address and function bytes common to every
// request frame.
func (e *Engine) writeHeader(address, function uint8) {
	WriteValue[uint8](e.Buffer, address)
	WriteValue[uint8](e.Buffer, function)
}

// writeParam encodes one call_function parameter by its runtime type.
// Supported shapes mirror write<T>'s supported scalar widths plus raw byte
// slices for payloads callers have already serialized themselves.
func (e *Engine) writeParam(p any) error {
	switch v := p.(type) {
	case uint8:
		WriteValue[uint8](e.Buffer, v)
	case uint16:
		WriteValue[uint16](e.Buffer, v)
	case uint32:
		WriteValue[uint32](e.Buffer, v)
	case uint64:
		WriteValue[uint64](e.Buffer, v)
	case int8:
		WriteValue[int8](e.Buffer, v)
	case int16:
		WriteValue[int16](e.Buffer, v)
	case int32:
		WriteValue[int32](e.Buffer, v)
	case int64:
		WriteValue[int64](e.Buffer, v)
	case float32:
		WriteValue[float32](e.Buffer, v)
	case []byte:
		e.Buffer.WriteBuffer(v)
	default:
		return fmt.Errorf("ilc: unsupported call_function parameter type %T", p)
	}
	return nil
}

// CallFunction builds a unicast request frame: pushes (address, function)
// onto the commanded queue, writes the header and params, then the CRC,
// end-of-frame, and a wait-for-Rx of timeoutUs.
func (e *Engine) CallFunction(address, function uint8, timeoutUs uint32, params ...any) error {
	e.Commanded.Push(address, function)
	e.writeHeader(address, function)
	for _, p := range params {
		if err := e.writeParam(p); err != nil {
			return err
		}
	}
	e.Buffer.WriteCRC()
	e.Buffer.WriteEndOfFrame()
	e.Buffer.WriteWaitForRx(timeoutUs)
	return nil
}

// BroadcastFunction builds a broadcast request frame: it never enters the
// commanded queue (broadcast addresses are skipped by CommandedQueue.Push
// too, but broadcast_function never even attempts the push). counter is the
// broadcast nonce written ahead of data; delayUs holds the bus silent
// instead of waiting for a reply.
func (e *Engine) BroadcastFunction(address, function, counter uint8, delayUs uint32, data []byte) {
	e.writeHeader(address, function)
	WriteValue[uint8](e.Buffer, counter)
	e.Buffer.WriteBuffer(data)
	e.Buffer.WriteCRC()
	e.Buffer.WriteEndOfFrame()
	e.Buffer.WriteDelay(delayUs)
}

// CheckCommandedEmpty raises CommandedNonEmptyError, listing every
// outstanding pair, if any call has gone unanswered.
func (e *Engine) CheckCommandedEmpty() error {
	if e.Commanded.Empty() {
		return nil
	}
	return &CommandedNonEmptyError{Pending: e.Commanded.Pending()}
}

// ProcessResponse seats words into the buffer and decodes every frame in
// it in order, exactly per the dispatch loop: read address and function,
// resolve the expected queued function (the error code's paired normal
// function if the byte read is a registered error code, else the function
// byte itself), check the commanded queue, then try the normal decoder,
// then the error path, then give up with UnknownResponseError.
func (e *Engine) ProcessResponse(words []uint16) error {
	if e.PreProcess != nil {
		e.PreProcess()
	}

	e.Buffer.SetWords(words)

	for !e.Buffer.EndOfBuffer() {
		if err := e.decodeOneFrame(); err != nil {
			return err
		}
	}

	if e.PostProcess != nil {
		e.PostProcess()
	}
	return nil
}

func (e *Engine) decodeOneFrame() error {
	address, err := ReadValue[uint8](e.Buffer)
	if err != nil {
		return err
	}
	function, err := ReadValue[uint8](e.Buffer)
	if err != nil {
		return err
	}

	errEntry, isError := e.Registry.ErrorEntry(function)
	expected := function
	if isError {
		expected = errEntry.NormalFunction
	}
	if err := e.Commanded.Check(address, expected); err != nil {
		return err
	}

	normalEntry, hasNormal := e.Registry.NormalEntry(function)
	switch {
	case hasNormal:
		return normalEntry.Decoder(e.Buffer, address)
	case isError:
		exception, err := ReadValue[uint8](e.Buffer)
		if err != nil {
			return err
		}
		if err := e.Buffer.CheckCRC(); err != nil {
			return err
		}
		if errEntry.ErrorHandler != nil {
			errEntry.ErrorHandler(address, exception)
			return nil
		}
		return &ExceptionError{Address: address, Function: function, Exception: exception}
	default:
		return &UnknownResponseError{Address: address, Function: function}
	}
}
