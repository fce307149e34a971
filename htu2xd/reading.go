// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu2xd

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// statusBits are the two least significant bits of a measurement word. Bit 1
// is set for humidity, clear for temperature.
const statusBits uint16 = 0x0003

// Temperature is a temperature measurement as read from the sensor, with the
// status bits cleared.
type Temperature struct {
	raw uint16
}

// Raw returns the measurement word with the status bits cleared.
func (t Temperature) Raw() uint16 {
	return t.raw
}

// Celsius converts the measurement to degrees Celsius using single precision
// floating point: T = -46.85 + 175.72 * raw / 2^16.
func (t Temperature) Celsius() float32 {
	return -46.85 + 175.72/65536.0*float32(t.raw)
}

// Physic converts the measurement to a physic.Temperature.
func (t Temperature) Physic() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(float64(t.Celsius())*float64(physic.Celsius))
}

func (t Temperature) String() string {
	return t.Physic().String()
}

// Humidity is a relative humidity measurement as read from the sensor, with
// the status bits cleared.
type Humidity struct {
	raw uint16
}

// Raw returns the measurement word with the status bits cleared.
func (h Humidity) Raw() uint16 {
	return h.raw
}

// PercentRH converts the measurement to percent relative humidity using
// single precision floating point: RH = -6 + 125 * raw / 2^16.
//
// The result is not clamped to 0-100%.
func (h Humidity) PercentRH() float32 {
	return -6.0 + 125.0/65536.0*float32(h.raw)
}

// Physic converts the measurement to a physic.RelativeHumidity.
func (h Humidity) Physic() physic.RelativeHumidity {
	return physic.RelativeHumidity(float64(h.PercentRH()) * float64(physic.PercentRH))
}

func (h Humidity) String() string {
	return h.Physic().String()
}

// Measurement is the set of quantities the sensor measures. It can't be
// extended outside this package.
type Measurement interface {
	Temperature | Humidity
	Raw() uint16
}

// Status tells whether a Reading holds a value.
type Status byte

const (
	// statusNone is the zero value: the Reading did not come from Decode and
	// holds nothing.
	statusNone Status = iota
	// StatusOK means the reading completed normally.
	StatusOK
	// StatusErrorLow means the reading was very low, or the sensor has an
	// open circuit.
	StatusErrorLow
	// StatusErrorHigh means the reading was very high, or the sensor has a
	// short circuit.
	StatusErrorHigh
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusErrorLow:
		return "ErrorLow"
	case StatusErrorHigh:
		return "ErrorHigh"
	case statusNone:
		return "None"
	}
	return fmt.Sprintf("Status(%d)", byte(s))
}

// Reading is the outcome of a temperature or humidity measurement.
type Reading[M Measurement] struct {
	status Status
	value  M
}

// Decode interprets a measurement word as sent by the sensor, high byte
// first. 0x0000 and 0xffff are reserved by the sensor to signal off-scale
// readings; anything else is a measurement whose two status bits are
// cleared.
func Decode[M Measurement](raw uint16) Reading[M] {
	switch raw {
	case 0x0000:
		return Reading[M]{status: StatusErrorLow}
	case 0xffff:
		return Reading[M]{status: StatusErrorHigh}
	}
	var m M
	switch p := any(&m).(type) {
	case *Temperature:
		p.raw = raw &^ statusBits
	case *Humidity:
		p.raw = raw &^ statusBits
	}
	return Reading[M]{status: StatusOK, value: m}
}

// Status returns whether the reading holds a value.
func (r Reading[M]) Status() Status {
	return r.status
}

// Value returns the measurement, and false if the reading was off-scale or
// is the zero Reading returned alongside an error or a "not ready" poll.
func (r Reading[M]) Value() (M, bool) {
	return r.value, r.status == StatusOK
}

// Err returns nil for a normal reading, ErrOffScaleLow or ErrOffScaleHigh for
// off-scale readings and ErrNoReading for the zero Reading.
func (r Reading[M]) Err() error {
	switch r.status {
	case StatusErrorLow:
		return ErrOffScaleLow
	case StatusErrorHigh:
		return ErrOffScaleHigh
	case statusNone:
		return ErrNoReading
	}
	return nil
}

func (r Reading[M]) String() string {
	if r.status != StatusOK {
		return r.status.String()
	}
	return fmt.Sprintf("%v", r.value)
}
