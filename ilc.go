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

// Mode is the ILC's operating state, as reported by Server-Status (18) and
// set by Change-ILC-Mode (65).
type Mode uint8

const (
	ModeStandby        Mode = 0
	ModeDisabled       Mode = 1
	ModeEnabled        Mode = 2
	ModeFirmwareUpdate Mode = 3
	ModeFault          Mode = 4
)

// String names mode for log lines and diagnostics, ported from the
// original's getModeStr.
func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "Standby"
	case ModeDisabled:
		return "Disabled"
	case ModeEnabled:
		return "Enabled"
	case ModeFirmwareUpdate:
		return "FirmwareUpdate"
	case ModeFault:
		return "Fault"
	default:
		return "Unknown"
	}
}

// Generic ILC function codes and their paired error codes.
const (
	FuncServerID          uint8 = 17
	FuncServerStatus      uint8 = 18
	FuncChangeILCMode     uint8 = 65
	FuncSetTempILCAddress uint8 = 72
	FuncResetServer       uint8 = 107

	ErrServerID          uint8 = 145
	ErrServerStatus      uint8 = 146
	ErrChangeILCMode     uint8 = 193
	ErrSetTempILCAddress uint8 = 200
	ErrResetServer       uint8 = 235
)

// changeModeTimeoutUs and firmwareUpdateTimeoutUs are the two wait-for-Rx
// durations a Change-ILC-Mode call can carry, selected by whether the
// transition crosses to or from FirmwareUpdate (flash programming stalls
// the ILC far longer than an ordinary mode switch).
const (
	changeModeTimeoutUs     uint32 = 335
	firmwareUpdateTimeoutUs uint32 = 100000
)

// ILC wraps an Engine with the bus-wide state the generic ILC functions
// need: the per-address last-observed mode (absence of an entry is not an
// error, per the original's silently-falling-through out_of_range catch)
// and the single 4-bit broadcast counter.
type ILC struct {
	*Engine

	lastMode         map[uint8]Mode
	broadcastCounter uint8

	// OnServerID, OnServerStatus and OnChangeILCMode fire only when the
	// decoded payload differs from the last-cached one for that
	// (address, function) - these are event-like replies. OnSetTempILCAddress
	// and OnResetServer are direct acks to a single unicast call and always
	// fire.
	OnServerID func(address uint8, uniqueID uint64, ilcAppType, networkNodeType,
		ilcSelectedOptions, networkNodeOptions, majorRev, minorRev uint8,
		firmwareName string)
	OnServerStatus      func(address uint8, mode Mode, status, faults uint16)
	OnChangeILCMode     func(address uint8, mode Mode)
	OnSetTempILCAddress func(address, newAddress uint8)
	OnResetServer       func(address uint8)
}

// NewILC returns an ILC with the five generic decoders pre-registered on a
// fresh Engine using the ILC wire dialect.
func NewILC() *ILC {
	ilc := &ILC{
		Engine:   NewEngine(ILCDialect),
		lastMode: make(map[uint8]Mode),
	}
	ilc.registerGenericDecoders()
	return ilc
}

func (ilc *ILC) registerGenericDecoders() {
	ilc.Registry.AddResponse(FuncServerID, ilc.decodeServerID, ErrServerID, nil)
	ilc.Registry.AddResponse(FuncServerStatus, ilc.decodeServerStatus, ErrServerStatus, nil)
	ilc.Registry.AddResponse(FuncChangeILCMode, ilc.decodeChangeILCMode, ErrChangeILCMode, nil)
	ilc.Registry.AddResponse(FuncSetTempILCAddress, ilc.decodeSetTempILCAddress, ErrSetTempILCAddress, nil)
	ilc.Registry.AddResponse(FuncResetServer, ilc.decodeResetServer, ErrResetServer, nil)
}

// LastMode reports the most recently observed mode for address, and
// whether any has been observed at all.
func (ilc *ILC) LastMode(address uint8) (Mode, bool) {
	m, ok := ilc.lastMode[address]
	return m, ok
}

// NextBroadcastCounter increments the shared 4-bit broadcast nonce,
// wrapping 0..15, and returns the new value.
func (ilc *ILC) NextBroadcastCounter() uint8 {
	ilc.broadcastCounter = (ilc.broadcastCounter + 1) & 0x0F
	return ilc.broadcastCounter
}

// ChangeILCMode calls function 65 with the requested mode, selecting a
// 335us wait-for-Rx for an ordinary transition or 100000us when the
// transition crosses to or from FirmwareUpdate. An absent last-mode entry
// is treated as "not FirmwareUpdate", never as an error.
func (ilc *ILC) ChangeILCMode(address uint8, mode Mode) error {
	timeout := changeModeTimeoutUs
	if last, ok := ilc.LastMode(address); ok && last == ModeFirmwareUpdate {
		timeout = firmwareUpdateTimeoutUs
	}
	if mode == ModeFirmwareUpdate {
		timeout = firmwareUpdateTimeoutUs
	}
	return ilc.CallFunction(address, FuncChangeILCMode, timeout, uint16(mode))
}

func (ilc *ILC) decodeServerID(b *Buffer, address uint8) error {
	ilc.RecordChanges()

	fnLen, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	if fnLen < 12 {
		return fmt.Errorf("ilc: invalid ILC function 17 response length - expected at least 12, got %d", fnLen)
	}
	fnLen -= 12

	uniqueID, err := b.ReadU48()
	if err != nil {
		return err
	}
	ilcAppType, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	networkNodeType, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	ilcSelectedOptions, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	networkNodeOptions, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	majorRev, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	minorRev, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	firmwareName, err := b.ReadString(int(fnLen))
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}

	if !ilc.ResponseMatchCached(address, FuncServerID) && ilc.OnServerID != nil {
		ilc.OnServerID(address, uniqueID, ilcAppType, networkNodeType,
			ilcSelectedOptions, networkNodeOptions, majorRev, minorRev, firmwareName)
	}
	return nil
}

func (ilc *ILC) decodeServerStatus(b *Buffer, address uint8) error {
	ilc.RecordChanges()

	modeByte, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	status, err := ReadValue[uint16](b)
	if err != nil {
		return err
	}
	faults, err := ReadValue[uint16](b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}

	mode := Mode(modeByte)

	if !ilc.ResponseMatchCached(address, FuncServerStatus) {
		ilc.lastMode[address] = mode
		if ilc.OnServerStatus != nil {
			ilc.OnServerStatus(address, mode, status, faults)
		}
	}
	return nil
}

func (ilc *ILC) decodeChangeILCMode(b *Buffer, address uint8) error {
	ilc.RecordChanges()

	modeWord, err := ReadValue[uint16](b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}

	mode := Mode(modeWord)

	if !ilc.ResponseMatchCached(address, FuncChangeILCMode) {
		ilc.lastMode[address] = mode
		if ilc.OnChangeILCMode != nil {
			ilc.OnChangeILCMode(address, mode)
		}
	}
	return nil
}

func (ilc *ILC) decodeSetTempILCAddress(b *Buffer, address uint8) error {
	newAddress, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}
	if ilc.OnSetTempILCAddress != nil {
		ilc.OnSetTempILCAddress(address, newAddress)
	}
	return nil
}

func (ilc *ILC) decodeResetServer(b *Buffer, address uint8) error {
	if err := b.CheckCRC(); err != nil {
		return err
	}
	if ilc.OnResetServer != nil {
		ilc.OnResetServer(address)
	}
	return nil
}
