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

// Electromechanical/Pneumatic ILC function codes and their paired error
// codes.
const (
	FuncHardpointForceStatus   uint8 = 67
	FuncSetOffsetAndSensitivity uint8 = 81
	FuncReportCalibrationData  uint8 = 110
	FuncMezzaninePressure      uint8 = 119

	ErrHardpointForceStatus   uint8 = 195
	ErrSetOffsetAndSensitivity uint8 = 209
	ErrReportCalibrationData  uint8 = 238
	ErrMezzaninePressure      uint8 = 247
)

// Domain-defined wait-for-Rx timeouts for the electromechanical/pneumatic
// functions; status and calibration reads are quick, the offset/sensitivity
// write is the slow round trip through the ILC's ADC pipeline.
const (
	hardpointStatusTimeoutUs   uint32 = 1800
	setOffsetSensitivityTimeUs uint32 = 36500
	reportCalibrationTimeoutUs uint32 = 1800
	mezzaninePressureTimeoutUs uint32 = 1800
)

// ElectromechanicalPneumaticILC wraps an ILC with the force-actuator and
// pneumatic-mezzanine specific functions: hardpoint force/status, ADC
// offset and sensitivity, calibration data, and mezzanine pressure.
type ElectromechanicalPneumaticILC struct {
	*ILC

	OnHardpointForceStatus func(address uint8, status uint8, encoderPosition int32, loadCellForce float32)
	OnCalibrationData      func(address uint8, mainADCK, mainOffset, mainSensitivity,
		backupADCK, backupOffset, backupSensitivity [4]float32)
	OnMezzaninePressure func(address uint8, primaryPush, primaryPull, secondaryPush, secondaryPull float32)
}

// NewElectromechanicalPneumaticILC returns an ElectromechanicalPneumaticILC
// with the generic ILC decoders plus the four electromechanical/pneumatic
// decoders pre-registered.
func NewElectromechanicalPneumaticILC() *ElectromechanicalPneumaticILC {
	em := &ElectromechanicalPneumaticILC{ILC: NewILC()}
	em.Registry.AddResponse(FuncHardpointForceStatus, em.decodeHardpointForceStatus, ErrHardpointForceStatus, nil)
	em.Registry.AddResponse(FuncSetOffsetAndSensitivity, em.decodeSetOffsetAndSensitivity, ErrSetOffsetAndSensitivity, nil)
	em.Registry.AddResponse(FuncReportCalibrationData, em.decodeReportCalibrationData, ErrReportCalibrationData, nil)
	em.Registry.AddResponse(FuncMezzaninePressure, em.decodeMezzaninePressure, ErrMezzaninePressure, nil)
	return em
}

// ReadHardpointForceStatus calls function 67 to request a hardpoint's
// current force and encoder status.
func (em *ElectromechanicalPneumaticILC) ReadHardpointForceStatus(address uint8) error {
	return em.CallFunction(address, FuncHardpointForceStatus, hardpointStatusTimeoutUs)
}

func (em *ElectromechanicalPneumaticILC) decodeHardpointForceStatus(b *Buffer, address uint8) error {
	status, err := ReadValue[uint8](b)
	if err != nil {
		return err
	}
	encoderPosition, err := ReadValue[int32](b)
	if err != nil {
		return err
	}
	loadCellForce, err := ReadValue[float32](b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}
	if em.OnHardpointForceStatus != nil {
		em.OnHardpointForceStatus(address, status, encoderPosition, loadCellForce)
	}
	return nil
}

// SetOffsetAndSensitivity calls function 81 with a channel number and the
// new offset/sensitivity floats (S1's request layout).
func (em *ElectromechanicalPneumaticILC) SetOffsetAndSensitivity(address, channel uint8, offset, sensitivity float32) error {
	return em.CallFunction(address, FuncSetOffsetAndSensitivity, setOffsetSensitivityTimeUs, channel, offset, sensitivity)
}

func (em *ElectromechanicalPneumaticILC) decodeSetOffsetAndSensitivity(b *Buffer, address uint8) error {
	if _, err := ReadValue[uint8](b); err != nil { // echoed channel
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}
	return nil
}

// ReportCalibrationData calls function 110 to request the ILC's six
// 4-float calibration groups.
func (em *ElectromechanicalPneumaticILC) ReportCalibrationData(address uint8) error {
	return em.CallFunction(address, FuncReportCalibrationData, reportCalibrationTimeoutUs)
}

func readFloat4(b *Buffer) ([4]float32, error) {
	var group [4]float32
	for i := range group {
		v, err := ReadValue[float32](b)
		if err != nil {
			return group, err
		}
		group[i] = v
	}
	return group, nil
}

// decodeReportCalibrationData parses the 6 × 4-float calibration payload
// (S2) in order: main ADCK, main offset, main sensitivity, backup ADCK,
// backup offset, backup sensitivity.
func (em *ElectromechanicalPneumaticILC) decodeReportCalibrationData(b *Buffer, address uint8) error {
	mainADCK, err := readFloat4(b)
	if err != nil {
		return err
	}
	mainOffset, err := readFloat4(b)
	if err != nil {
		return err
	}
	mainSensitivity, err := readFloat4(b)
	if err != nil {
		return err
	}
	backupADCK, err := readFloat4(b)
	if err != nil {
		return err
	}
	backupOffset, err := readFloat4(b)
	if err != nil {
		return err
	}
	backupSensitivity, err := readFloat4(b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}
	if em.OnCalibrationData != nil {
		em.OnCalibrationData(address, mainADCK, mainOffset, mainSensitivity,
			backupADCK, backupOffset, backupSensitivity)
	}
	return nil
}

// ReadMezzaninePressure calls function 119 to request the pneumatic
// mezzanine's primary/secondary push/pull pressures.
func (em *ElectromechanicalPneumaticILC) ReadMezzaninePressure(address uint8) error {
	return em.CallFunction(address, FuncMezzaninePressure, mezzaninePressureTimeoutUs)
}

// decodeMezzaninePressure parses the wire order push1, pull1, pull2, push2
// (S3) but reorders the callback to push1, pull1, push2, pull2.
func (em *ElectromechanicalPneumaticILC) decodeMezzaninePressure(b *Buffer, address uint8) error {
	push1, err := ReadValue[float32](b)
	if err != nil {
		return err
	}
	pull1, err := ReadValue[float32](b)
	if err != nil {
		return err
	}
	pull2, err := ReadValue[float32](b)
	if err != nil {
		return err
	}
	push2, err := ReadValue[float32](b)
	if err != nil {
		return err
	}
	if err := b.CheckCRC(); err != nil {
		return err
	}
	if em.OnMezzaninePressure != nil {
		em.OnMezzaninePressure(address, push1, pull1, push2, pull2)
	}
	return nil
}
