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

// FPGA FIFO instruction-word commands. The top nibble of a 16-bit
// instruction word carries the command; the low 12 bits carry payload.
const (
	FIFOWrite         uint16 = 0x1000
	FIFOTxFrameEnd    uint16 = 0x20DA
	FIFOTxTimestamp   uint16 = 0x3000
	FIFODelay         uint16 = 0x4000
	FIFOLongDelay     uint16 = 0x5000
	FIFOTxWaitRx      uint16 = 0x6000
	FIFOTxIRQTrigger  uint16 = 0x7000
	FIFOTxWaitTrigger uint16 = 0x8000
	FIFOTxWaitLongRx  uint16 = 0x9000
	FIFORxEndFrame    uint16 = 0xA000
	FIFORxTimestamp   uint16 = 0xB000
	FIFOCmdMask       uint16 = 0xF000
	FIFOPayloadMask   uint16 = 0x0FFF

	// TxMask is OR'd into WRITE instruction words on the ILC side, ahead of
	// the data byte shifted left by one (the start bit convention).
	TxMask uint16 = 0x1200
	// RxMask marks instruction words echoed back on the receive side.
	RxMask uint16 = 0x9200
)

// Dialect bundles the handful of encoding choices that differ between the
// ILC wire format (WRITE words carry TxMask and a shifted data byte) and the
// plain format used by the simulator (WRITE words carry the raw byte).
// Recast from the source's ModbusBuffer/ILC inheritance into a value passed
// to one concrete Buffer, per the variant-configuration steer: a dialect is
// data, not a subclass.
type Dialect struct {
	// EncodeByte turns a payload byte into the instruction word pushed for a
	// WRITE. CRC accumulation for the byte happens separately; EncodeByte
	// only shapes the wire word.
	EncodeByte func(data byte) uint16
	// DecodeByte recovers the payload byte from an instruction word read off
	// the wire (the inverse of EncodeByte, sans any command bits).
	DecodeByte func(word uint16) byte

	// EndOfFrameWord is pushed by WriteEndOfFrame and checked by
	// ReadEndOfFrame.
	EndOfFrameWord uint16
	// RxEndFrameWord is pushed by WriteRxEndFrame.
	RxEndFrameWord uint16

	// WaitForRxMask and WaitForRxLongMask select between microsecond and
	// millisecond wait-for-Rx encoding, same rule as DelayMask/LongDelayMask.
	WaitForRxMask     uint16
	WaitForRxLongMask uint16
	DelayMask         uint16
	LongDelayMask     uint16
}

// ILCDialect is the wire format used for ILC request/response frames: WRITE
// words carry TxMask plus the data byte shifted left by one (the start bit),
// end-of-frame is the fixed TX_FRAMEEND sentinel.
var ILCDialect = Dialect{
	EncodeByte: func(data byte) uint16 {
		return TxMask | (uint16(data) << 1)
	},
	DecodeByte: func(word uint16) byte {
		return byte((word >> 1) & 0xFF)
	},
	EndOfFrameWord:    FIFOTxFrameEnd,
	RxEndFrameWord:    FIFORxEndFrame,
	WaitForRxMask:     FIFOTxWaitRx,
	WaitForRxLongMask: FIFOTxWaitLongRx,
	DelayMask:         FIFODelay,
	LongDelayMask:     FIFOLongDelay,
}

// PlainDialect is the wire format used by the simulator: WRITE words carry
// the raw data byte with no shift or start bit, and end-of-frame is the
// receive-side sentinel (the simulator is producing the device's half of
// the conversation).
var PlainDialect = Dialect{
	EncodeByte: func(data byte) uint16 {
		return uint16(data)
	},
	DecodeByte: func(word uint16) byte {
		return byte(word & 0xFF)
	},
	EndOfFrameWord:    FIFORxEndFrame,
	RxEndFrameWord:    FIFORxEndFrame,
	WaitForRxMask:     FIFOTxWaitRx,
	WaitForRxLongMask: FIFOTxWaitLongRx,
	DelayMask:         FIFODelay,
	LongDelayMask:     FIFOLongDelay,
}
