// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu2xd

import (
	"context"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Pending is a measurement started without clock stretching. Poll it until
// it returns a reading or an error.
//
// Once Poll returned anything but "not ready", the Pending is done and every
// later call returns ErrAcquisitionDone. Abandoning a Pending is safe, but no
// other command should be sent before the sensor finished measuring.
type Pending[M Measurement] struct {
	d    *i2c.Dev
	done bool
}

func start[M Measurement](d *i2c.Dev, cmd byte, op string) (*Pending[M], error) {
	if err := d.Tx([]byte{cmd}, nil); err != nil {
		return nil, &BusError{Op: op, Err: err}
	}
	return &Pending[M]{d: d}, nil
}

// Poll tries to read the result of the measurement.
//
// isNAK must return true if the error returned by the I²C bus is a NAK. The
// sensor NAKs its address while it is still measuring; Poll then returns
// ready == false and a nil error, and should be called again later. A nil
// isNAK treats every bus error as fatal.
//
// Any other bus error is returned as a *BusError and a corrupted reply as a
// *ChecksumError.
func (p *Pending[M]) Poll(isNAK func(error) bool) (r Reading[M], ready bool, err error) {
	if p.done {
		return r, false, ErrAcquisitionDone
	}
	var b [3]byte
	if err := p.d.Tx(nil, b[:]); err != nil {
		if isNAK != nil && isNAK(err) {
			// Still measuring.
			return r, false, nil
		}
		p.done = true
		return r, false, &BusError{Op: "read result", Err: err}
	}
	p.done = true
	if r, err = parseReading[M](b); err != nil {
		return r, false, err
	}
	return r, true, nil
}

// Wait polls every interval until the measurement is read, an error occurs
// or ctx is done. The first poll happens immediately. A non-positive interval
// means DefaultOpts.PollInterval.
func (p *Pending[M]) Wait(ctx context.Context, isNAK func(error) bool, interval time.Duration) (Reading[M], error) {
	if interval <= 0 {
		interval = DefaultOpts.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r, ready, err := p.Poll(isNAK)
		if err != nil || ready {
			return r, err
		}
		select {
		case <-ctx.Done():
			return r, ctx.Err()
		case <-ticker.C:
		}
	}
}
