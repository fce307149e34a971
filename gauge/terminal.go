// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge displays temperature and humidity readings, either as a
// colored bar on a terminal using ANSI color codes, or as an image card for
// small displays and snapshots.
//
// Useful while you are waiting for your super nice e-paper display to come
// by mail.
package gauge

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for the terminal gauge.
type Opts struct {
	// Width is the number of cells of each bar. Default is 20.
	Width int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W defaults to stdout, wrapped to handle ANSI codes on every OS.
	W io.Writer
	// Range of the temperature bar. Default is -40°C to 125°C, the
	// operating range of most humidity sensors.
	MinTemperature physic.Temperature
	MaxTemperature physic.Temperature

	_ struct{}
}

// Terminal draws a temperature bar and a humidity bar on a single console
// line, overwritten at every Show.
type Terminal struct {
	w       io.Writer
	width   int
	palette ansi256.Palette
	minT    physic.Temperature
	maxT    physic.Temperature

	buf bytes.Buffer
}

// NewTerminal returns a Terminal gauge. opts can be nil.
func NewTerminal(opts *Opts) (*Terminal, error) {
	if opts == nil {
		opts = &Opts{}
	}
	t := &Terminal{
		w:     opts.W,
		width: opts.Width,
		minT:  opts.MinTemperature,
		maxT:  opts.MaxTemperature,
	}
	if t.w == nil {
		t.w = colorable.NewColorableStdout()
	}
	if t.width <= 0 {
		t.width = 20
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	t.palette = *p
	if t.minT == 0 && t.maxT == 0 {
		t.minT = physic.ZeroCelsius - 40*physic.Kelvin
		t.maxT = physic.ZeroCelsius + 125*physic.Kelvin
	}
	if t.minT >= t.maxT {
		return nil, errors.New("gauge: invalid temperature range")
	}
	return t, nil
}

func (t *Terminal) String() string {
	return "Terminal gauge"
}

// Halt implements conn.Resource.
//
// It resets the colors and moves to the next line so the console is not
// corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Show draws e. Values outside the bar's range are drawn as an empty or full
// bar; the printed values are not altered.
func (t *Terminal) Show(e physic.Env) error {
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	_, _ = t.buf.WriteString("\r\033[0m")
	tf := float64(e.Temperature-t.minT) / float64(t.maxT-t.minT)
	t.bar(tf, temperatureColor)
	_, _ = fmt.Fprintf(&t.buf, "\033[0m %8s  ", e.Temperature)
	hf := float64(e.Humidity) / float64(100*physic.PercentRH)
	t.bar(hf, humidityColor)
	_, _ = fmt.Fprintf(&t.buf, "\033[0m %9s ", e.Humidity)
	_, err := t.buf.WriteTo(t.w)
	return err
}

// bar writes width cells, the first frac*width of them lit.
func (t *Terminal) bar(frac float64, shade func(float64) color.NRGBA) {
	lit := int(clamp(frac)*float64(t.width) + 0.5)
	for i := 0; i < t.width; i++ {
		c := color.NRGBA{A: 255}
		if i < lit {
			c = shade(float64(i) / float64(t.width))
		}
		_, _ = io.WriteString(&t.buf, t.palette.Block(c))
	}
}

// temperatureColor goes from blue (cold) to red (hot).
func temperatureColor(f float64) color.NRGBA {
	f = clamp(f)
	return color.NRGBA{R: uint8(255 * f), G: 32, B: uint8(255 * (1 - f)), A: 255}
}

// humidityColor goes from sand (dry) to deep blue (wet).
func humidityColor(f float64) color.NRGBA {
	f = clamp(f)
	return color.NRGBA{R: uint8(220 * (1 - f)), G: uint8(180*(1-f) + 60*f), B: uint8(80 + 175*f), A: 255}
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

var _ conn.Resource = &Terminal{}
var _ fmt.Stringer = &Terminal{}
