// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu2xd

import (
	"fmt"
)

// Resolution is the measurement resolution for humidity and temperature.
// Lower resolutions take less time to measure.
type Resolution byte

const (
	// 12-bit humidity, 14-bit temperature. Power-on default.
	Humidity12Temperature14 Resolution = iota
	// 8-bit humidity, 12-bit temperature.
	Humidity8Temperature12
	// 10-bit humidity, 13-bit temperature.
	Humidity10Temperature13
	// 11-bit humidity, 11-bit temperature.
	Humidity11Temperature11
)

// Bits returns the number of significant bits of humidity and temperature
// measurements at this resolution.
func (r Resolution) Bits() (humidity, temperature int) {
	switch r {
	case Humidity12Temperature14:
		return 12, 14
	case Humidity8Temperature12:
		return 8, 12
	case Humidity10Temperature13:
		return 10, 13
	case Humidity11Temperature11:
		return 11, 11
	}
	return 0, 0
}

func (r Resolution) String() string {
	h, t := r.Bits()
	if h == 0 {
		return fmt.Sprintf("Resolution(%d)", byte(r))
	}
	return fmt.Sprintf("RH %d bits, T %d bits", h, t)
}

// SupplyVoltage is the supply voltage status reported by the sensor. The
// sensor's minimum supply voltage is 1.5V.
type SupplyVoltage byte

const (
	// VoltageHigh is above 2.25V ±0.1V.
	VoltageHigh SupplyVoltage = iota
	// VoltageLow is below 2.25V ±0.1V.
	VoltageLow
)

func (v SupplyVoltage) String() string {
	if v == VoltageLow {
		return "low"
	}
	return "high"
}

// Bits of the user register, MSB is bit 7.
const (
	bitResolutionHigh byte = 1 << 7
	bitEndOfBattery   byte = 1 << 6
	bitHeater         byte = 1 << 2
	bitDisableOTP     byte = 1 << 1
	bitResolutionLow  byte = 1 << 0
)

// UserRegister is the sensor's configuration register.
//
// The only way to get a UserRegister that can be written back is to read it
// from the sensor with Dev.ReadUserRegister. It can then be modified and
// passed to Dev.WriteUserRegister. Bits 3, 4 and 5 are reserved and are
// written back exactly as they were read.
type UserRegister struct {
	// value is exactly as the sensor sends and receives it.
	value byte
	read  bool
}

// Resolution returns the current measurement resolution.
func (u UserRegister) Resolution() Resolution {
	high := u.value&bitResolutionHigh != 0
	low := u.value&bitResolutionLow != 0
	switch {
	case !high && !low:
		return Humidity12Temperature14
	case !high && low:
		return Humidity8Temperature12
	case high && !low:
		return Humidity10Temperature13
	default:
		return Humidity11Temperature11
	}
}

// SupplyVoltage returns the supply voltage when the last temperature or
// humidity measurement was taken. This bit is set by the sensor and is not
// writable.
func (u UserRegister) SupplyVoltage() SupplyVoltage {
	if u.value&bitEndOfBattery != 0 {
		return VoltageLow
	}
	return VoltageHigh
}

// HeaterEnabled returns true if the on-chip heater is enabled.
func (u UserRegister) HeaterEnabled() bool {
	return u.value&bitHeater != 0
}

// OTPReloadEnabled returns true if the one-time programmable memory reload is
// active. With this active, the default settings are restored after each
// temperature or humidity measurement.
func (u UserRegister) OTPReloadEnabled() bool {
	// 1 = disabled
	return u.value&bitDisableOTP == 0
}

// SetResolution sets the measurement resolution.
func (u *UserRegister) SetResolution(r Resolution) error {
	var bits byte
	switch r {
	case Humidity12Temperature14:
	case Humidity8Temperature12:
		bits = bitResolutionLow
	case Humidity10Temperature13:
		bits = bitResolutionHigh
	case Humidity11Temperature11:
		bits = bitResolutionHigh | bitResolutionLow
	default:
		return fmt.Errorf("htu2xd: invalid resolution %d", byte(r))
	}
	u.value = u.value&^(bitResolutionHigh|bitResolutionLow) | bits
	return nil
}

// SetHeaterEnabled enables or disables the on-chip heater. The heater is
// meant for diagnostics and to drive off condensation, it raises the sensor
// temperature by a few °C.
func (u *UserRegister) SetHeaterEnabled(enabled bool) {
	if enabled {
		u.value |= bitHeater
	} else {
		u.value &^= bitHeater
	}
}

// SetOTPReloadEnabled enables or disables the reloading of default settings
// from one-time programmable memory after each measurement.
func (u *UserRegister) SetOTPReloadEnabled(enabled bool) {
	if enabled {
		u.value &^= bitDisableOTP
	} else {
		u.value |= bitDisableOTP
	}
}

// Byte returns the register exactly as it will be written to the sensor.
func (u UserRegister) Byte() byte {
	return u.value
}

func (u UserRegister) String() string {
	return fmt.Sprintf("UserRegister{Resolution: %s, SupplyVoltage: %s, HeaterEnabled: %t, OTPReloadEnabled: %t}",
		u.Resolution(), u.SupplyVoltage(), u.HeaterEnabled(), u.OTPReloadEnabled())
}
