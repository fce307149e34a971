// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GermanBionicSystems/sensors/gauge"
	"github.com/GermanBionicSystems/sensors/internal/mqtt"
	"periph.io/x/conn/v3/physic"
)

// Publisher is the part of mqtt.Client a TelemetrySink needs.
type Publisher interface {
	Publish(t mqtt.Telemetry) error
}

// TelemetrySink numbers the measurements and publishes them.
type TelemetrySink struct {
	p   Publisher
	now func() time.Time
	seq int
}

// NewTelemetrySink returns a Sink publishing to p.
func NewTelemetrySink(p Publisher) *TelemetrySink {
	return &TelemetrySink{p: p, now: time.Now}
}

func (t *TelemetrySink) String() string {
	return "mqtt"
}

// Show implements Sink.
func (t *TelemetrySink) Show(e physic.Env) error {
	t.seq++
	return t.p.Publish(mqtt.NewTelemetry(e, t.now(), t.seq))
}

// PNGFile rewrites a picture of the last measurement. The file is replaced
// atomically so a reader never sees a partial image.
type PNGFile struct {
	card *gauge.Card
	path string
}

// NewPNGFile returns a Sink writing to path.
func NewPNGFile(card *gauge.Card, path string) *PNGFile {
	return &PNGFile{card: card, path: path}
}

func (p *PNGFile) String() string {
	return "png:" + p.path
}

// Show implements Sink.
func (p *PNGFile) Show(e physic.Env) error {
	f, err := os.CreateTemp(filepath.Dir(p.path), ".htu2xd-*.png")
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	tmp := f.Name()
	err = p.card.WritePNG(f, e)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err == nil {
		err = os.Rename(tmp, p.path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("monitor: writing %s: %w", p.path, err)
	}
	return nil
}

var _ Sink = &TelemetrySink{}
var _ Sink = &PNGFile{}
var _ Sink = &gauge.Terminal{}
