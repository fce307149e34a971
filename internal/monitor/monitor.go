// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor samples an HTU2xD sensor on an interval and forwards the
// readings to sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/sensors/htu2xd"
	"github.com/GermanBionicSystems/sensors/internal/config"
	"periph.io/x/conn/v3/physic"
)

// Sensor is the part of htu2xd.Dev the loop needs.
type Sensor interface {
	Sense(e *physic.Env) error
}

// Sink receives every successful measurement.
type Sink interface {
	fmt.Stringer
	Show(e physic.Env) error
}

// IsNAK reports whether err is the bus NAKing the sensor address, which the
// sensor does while a measurement started without clock stretching is
// running. periph's sysfs driver returns the ioctl error as text.
func IsNAK(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENXIO) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "remote I/O error") || strings.Contains(s, "no such device or address")
}

// Configure brings the sensor to the settings in cfg: an optional soft reset,
// then a read-modify-write of the user register. It returns the register as
// read back from the sensor.
func Configure(d *htu2xd.Dev, cfg config.SensorConfig, sleep func(time.Duration)) (htu2xd.UserRegister, error) {
	res, err := cfg.ResolutionValue()
	if err != nil {
		return htu2xd.UserRegister{}, err
	}
	if !cfg.SkipReset {
		if err := d.SoftReset(); err != nil {
			return htu2xd.UserRegister{}, err
		}
		sleep(htu2xd.SoftResetDuration)
	}
	u, err := d.ReadUserRegister()
	if err != nil {
		return u, err
	}
	if err := u.SetResolution(res); err != nil {
		return u, err
	}
	u.SetHeaterEnabled(cfg.Heater)
	u.SetOTPReloadEnabled(cfg.OTPReload)
	if err := d.WriteUserRegister(u); err != nil {
		return u, err
	}
	got, err := d.ReadUserRegister()
	if err != nil {
		return got, err
	}
	if got.Byte() != u.Byte() {
		return got, fmt.Errorf("monitor: user register did not stick: wrote %s, read %s", u, got)
	}
	return got, nil
}

// Once takes a single measurement with the sensor's configured read mode and
// prints it to w.
func Once(s Sensor, w io.Writer) error {
	var e physic.Env
	if err := s.Sense(&e); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "temperature: %s\nhumidity:    %s\n", e.Temperature, e.Humidity)
	return err
}

// Monitor periodically reads a Sensor.
type Monitor struct {
	sensor   Sensor
	interval time.Duration
	logger   *slog.Logger
	sinks    []Sink

	// Counters, only touched by Run.
	ok     int
	failed int
}

// New returns a Monitor. interval must be positive.
func New(s Sensor, interval time.Duration, logger *slog.Logger, sinks ...Sink) *Monitor {
	return &Monitor{sensor: s, interval: interval, logger: logger, sinks: sinks}
}

// Run samples the sensor immediately then every interval until ctx is done.
// Measurement and sink failures are logged, not returned. It returns
// ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		m.sample()
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped", "measurements", m.ok, "failures", m.failed)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) sample() {
	var e physic.Env
	if err := m.sensor.Sense(&e); err != nil {
		m.failed++
		m.logFailure(err)
		return
	}
	m.ok++
	m.logger.Debug("measured", "temperature", e.Temperature.String(), "humidity", e.Humidity.String())
	for _, s := range m.sinks {
		if err := s.Show(e); err != nil {
			m.logger.Warn("sink failed", "sink", s.String(), "error", err)
		}
	}
}

func (m *Monitor) logFailure(err error) {
	var be *htu2xd.BusError
	switch {
	case errors.Is(err, htu2xd.ErrOffScaleLow), errors.Is(err, htu2xd.ErrOffScaleHigh):
		m.logger.Warn("sensor off scale", "error", err)
	case errors.Is(err, htu2xd.ErrChecksum):
		m.logger.Warn("corrupted reply", "error", err)
	case errors.Is(err, context.DeadlineExceeded):
		m.logger.Warn("measurement timed out", "error", err)
	case errors.As(err, &be):
		m.logger.Error("bus error", "op", be.Op, "error", be.Err)
	default:
		m.logger.Error("measurement failed", "error", err)
	}
}
