// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu2xd

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksum matches every ChecksumError with errors.Is.
	ErrChecksum = errors.New("htu2xd: checksum mismatch")
	// ErrOffScaleLow is returned by Reading.Err for a 0x0000 word. The value
	// is below the measuring range, or the sensor has an open circuit.
	ErrOffScaleLow = errors.New("htu2xd: reading off-scale low or sensor open circuit")
	// ErrOffScaleHigh is returned by Reading.Err for a 0xffff word. The value
	// is above the measuring range, or the sensor has a short circuit.
	ErrOffScaleHigh = errors.New("htu2xd: reading off-scale high or sensor short circuit")
	// ErrNoReading is returned by Reading.Err for a Reading that holds no
	// measurement, like the one Poll returns while the sensor is busy.
	ErrNoReading = errors.New("htu2xd: no reading")
	// ErrAcquisitionDone is returned when polling a Pending that already
	// produced a reading or a fatal error.
	ErrAcquisitionDone = errors.New("htu2xd: acquisition already completed")
	// ErrRegisterNotRead is returned by WriteUserRegister for a UserRegister
	// that was not obtained from ReadUserRegister.
	ErrRegisterNotRead = errors.New("htu2xd: user register was not read from the sensor")
)

// BusError wraps an error returned by the I²C bus.
type BusError struct {
	// Op is the operation that failed, e.g. "read user register".
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("htu2xd: %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// ChecksumError is returned when a 3 byte reply does not pass the CRC check.
type ChecksumError struct {
	// Data is the reply as received: two data bytes and the checksum.
	Data [3]byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("htu2xd: checksum mismatch in reply % x", e.Data[:])
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}
