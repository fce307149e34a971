// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package htu2xd controls MEAS/TE Connectivity HTU20D and HTU21D
// temperature/humidity sensors over I²C. The Silicon Labs Si7021 shares the
// command set and register layout.
//
// The sensor answers at the fixed address 0x40. Measurements can be taken in
// two ways:
//
// ReadTemperature and ReadHumidity use "hold master" commands. The sensor
// stretches the I²C clock until the conversion is done, so the call blocks in
// the bus driver for up to 50ms. Not every I²C controller supports clock
// stretching.
//
// StartTemperature and StartHumidity use "no hold master" commands. They
// return a Pending handle which the caller polls. While the conversion runs
// the sensor NAKs its address; the caller supplies a function that recognizes
// its bus driver's NAK error.
//
// Every reply carries a CRC-8 (polynomial 0x31, initial value 0) which is
// verified before decoding.
//
// Dev also implements physic.SenseEnv. The physic.Env measurement results
// contain a temperature and humidity value, the pressure is not set.
//
// # Datasheet
//
// TE Connectivity HTU21D(F) digital relative humidity sensor, HPC199_6.
//
// # Accuracy
//
//	Temperature: ±0.3 °C typical, resolution 0.01 °C at 14 bits.
//	Humidity: ±2 %RH typical, resolution 0.04 %RH at 12 bits.
//
// Readings are not clamped. At the extremes of the range the humidity
// formula can yield values slightly below 0% or above 100%.
package htu2xd
