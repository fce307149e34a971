// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu2xd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/sensors/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// SensorAddress is the fixed I²C address of the sensor.
const SensorAddress uint16 = 0x40

// SoftResetDuration is the time the sensor may take to come back after
// SoftReset.
const SoftResetDuration = 15 * time.Millisecond

const (
	cmdTemperatureHold   byte = 0xe3
	cmdHumidityHold      byte = 0xe5
	cmdTemperatureNoHold byte = 0xf3
	cmdHumidityNoHold    byte = 0xf5
	cmdWriteUser         byte = 0xe6
	cmdReadUser          byte = 0xe7
	cmdSoftReset         byte = 0xfe
)

// Opts holds the configuration options for Sense and SenseContinuous. The
// protocol methods (ReadTemperature, StartHumidity, ...) don't use them.
type Opts struct {
	// IsNAK reports whether an error returned by the I²C bus is a NAK. When
	// set, Sense uses the no hold master commands and polls for the result.
	// When nil, Sense relies on clock stretching.
	IsNAK func(error) bool
	// PollInterval is the interval between two polls of a pending
	// measurement. Default is 5ms.
	PollInterval time.Duration
	// MeasurementTimeout bounds a single polled measurement. Default is
	// 100ms. 0 means DefaultOpts.MeasurementTimeout.
	MeasurementTimeout time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	PollInterval:       5 * time.Millisecond,
	MeasurementTimeout: 100 * time.Millisecond,
}

// Dev is a handle to an HTU2xD sensor.
//
// The protocol methods do not lock; only one bus transaction may be
// outstanding at a time, which is up to the caller. Sense and
// SenseContinuous serialize with each other.
type Dev struct {
	d    *i2c.Dev
	opts Opts
	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewI2C returns an object that communicates over I²C to an HTU2xD sensor.
// It does not talk to the sensor. The Opts can be nil.
//
// The bus is not owned by the Dev; closing it stays the caller's job.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOpts.PollInterval
	}
	if o.MeasurementTimeout <= 0 {
		o.MeasurementTimeout = DefaultOpts.MeasurementTimeout
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: SensorAddress}, opts: o}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("htu2xd: %s", d.d)
}

// SoftReset resets the sensor and restores the default settings, except the
// heater enable bit. The sensor may take up to SoftResetDuration to come back;
// waiting is left to the caller.
func (d *Dev) SoftReset() error {
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return &BusError{Op: "soft reset", Err: err}
	}
	return nil
}

// ReadUserRegister reads the user register.
func (d *Dev) ReadUserRegister() (UserRegister, error) {
	var r [1]byte
	if err := d.d.Tx([]byte{cmdReadUser}, r[:]); err != nil {
		return UserRegister{}, &BusError{Op: "read user register", Err: err}
	}
	return UserRegister{value: r[0], read: true}, nil
}

// WriteUserRegister writes the user register.
//
// u must come from ReadUserRegister, so that the reserved bits are written
// back unchanged. ErrRegisterNotRead is returned otherwise.
func (d *Dev) WriteUserRegister(u UserRegister) error {
	if !u.read {
		return ErrRegisterNotRead
	}
	if err := d.d.Tx([]byte{cmdWriteUser, u.value}, nil); err != nil {
		return &BusError{Op: "write user register", Err: err}
	}
	return nil
}

// ReadTemperature measures the temperature.
//
// The sensor stretches the I²C clock while it measures, so this blocks until
// the measurement has been read.
func (d *Dev) ReadTemperature() (Reading[Temperature], error) {
	return readHold[Temperature](d.d, cmdTemperatureHold, "read temperature")
}

// ReadHumidity measures the relative humidity.
//
// The sensor stretches the I²C clock while it measures, so this blocks until
// the measurement has been read.
func (d *Dev) ReadHumidity() (Reading[Humidity], error) {
	return readHold[Humidity](d.d, cmdHumidityHold, "read humidity")
}

// StartTemperature starts a temperature measurement without clock
// stretching. Poll the returned Pending for the result.
func (d *Dev) StartTemperature() (*Pending[Temperature], error) {
	return start[Temperature](d.d, cmdTemperatureNoHold, "start temperature")
}

// StartHumidity starts a relative humidity measurement without clock
// stretching. Poll the returned Pending for the result.
func (d *Dev) StartHumidity() (*Pending[Humidity], error) {
	return start[Humidity](d.d, cmdHumidityNoHold, "start humidity")
}

// Sense implements physic.SenseEnv. It measures temperature then humidity.
// The pressure is always 0.
//
// An off-scale reading returns ErrOffScaleLow or ErrOffScaleHigh.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sense(e)
}

func (d *Dev) sense(e *physic.Env) error {
	e.Pressure = 0
	var t Reading[Temperature]
	var h Reading[Humidity]
	var err error
	if d.opts.IsNAK == nil {
		if t, err = d.ReadTemperature(); err != nil {
			return err
		}
		if h, err = d.ReadHumidity(); err != nil {
			return err
		}
	} else {
		if t, err = waitFor(d, "temperature", d.StartTemperature); err != nil {
			return err
		}
		if h, err = waitFor(d, "humidity", d.StartHumidity); err != nil {
			return err
		}
	}
	if err := t.Err(); err != nil {
		return fmt.Errorf("htu2xd: temperature: %w", err)
	}
	if err := h.Err(); err != nil {
		return fmt.Errorf("htu2xd: humidity: %w", err)
	}
	tv, _ := t.Value()
	hv, _ := h.Value()
	e.Temperature = tv.Physic()
	e.Humidity = hv.Physic()
	return nil
}

func waitFor[M Measurement](d *Dev, op string, startFn func() (*Pending[M], error)) (Reading[M], error) {
	p, err := startFn()
	if err != nil {
		return Reading[M]{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.MeasurementTimeout)
	defer cancel()
	r, err := p.Wait(ctx, d.opts.IsNAK, d.opts.PollInterval)
	if err != nil && errors.Is(err, ctx.Err()) {
		return r, fmt.Errorf("htu2xd: %s: %w", op, err)
	}
	return r, err
}

// SenseContinuous implements physic.SenseEnv. It returns a channel that
// receives a measurement every interval. Failed measurements are skipped.
// It is the caller's responsibility to call Halt() when done.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("htu2xd: SenseContinuous already running")
	}
	if interval <= 0 {
		return nil, errors.New("htu2xd: invalid interval")
	}

	stop := make(chan struct{})
	d.stop = stop
	sensing := make(chan physic.Env, 16)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e physic.Env
				d.mu.Lock()
				err := d.sense(&e)
				d.mu.Unlock()
				if err != nil {
					continue
				}
				select {
				case sensing <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return sensing, nil
}

// Precision implements physic.SenseEnv. It reports the resolution at the
// default 12/14 bits setting.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Humidity = 400 * physic.MicroRH
	e.Pressure = 0
}

// Halt stops a running SenseContinuous. Implements conn.Resource.
//
// It does not reset the sensor nor close the bus.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop == nil {
		d.mu.Unlock()
		return nil
	}
	close(d.stop)
	d.stop = nil
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}

// readHold sends a hold master command and reads the reply in the same
// transaction.
func readHold[M Measurement](d *i2c.Dev, cmd byte, op string) (Reading[M], error) {
	var r [3]byte
	if err := d.Tx([]byte{cmd}, r[:]); err != nil {
		return Reading[M]{}, &BusError{Op: op, Err: err}
	}
	return parseReading[M](r)
}

// parseReading checks the CRC of a 3-byte temperature or humidity reply and
// decodes it.
func parseReading[M Measurement](r [3]byte) (Reading[M], error) {
	var crc common.CRC8
	crc.AddAll(r[:])
	if crc.Value() != 0 {
		return Reading[M]{}, &ChecksumError{Data: r}
	}
	return Decode[M](uint16(r[0])<<8 | uint16(r[1])), nil
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
