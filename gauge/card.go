// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

// CardOpts represents the options available for a Card.
type CardOpts struct {
	// Width and Height of the image. Default is 250x122, the size of the
	// 2.13" e-paper panels.
	Width  int
	Height int
	// FontSize in points. Default is 28.
	FontSize float64
	// Inverted draws white on black, for OLED panels.
	Inverted bool
}

// Card renders a reading as a picture: the temperature and the humidity as
// text, and a humidity bar at the bottom.
type Card struct {
	w, h     int
	inverted bool
	face     font.Face
}

// NewCard returns a Card. opts can be nil.
func NewCard(opts *CardOpts) (*Card, error) {
	if opts == nil {
		opts = &CardOpts{}
	}
	c := &Card{w: opts.Width, h: opts.Height, inverted: opts.Inverted}
	if c.w == 0 && c.h == 0 {
		c.w, c.h = 250, 122
	}
	if c.w <= 0 || c.h <= 0 {
		return nil, fmt.Errorf("gauge: invalid card size %dx%d", c.w, c.h)
	}
	size := opts.FontSize
	if size <= 0 {
		size = 28
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("gauge: failed to parse font: %w", err)
	}
	c.face = truetype.NewFace(f, &truetype.Options{Size: size})
	return c, nil
}

// NewCardFor returns a Card sized for the display d.
func NewCardFor(d display.Drawer, opts *CardOpts) (*Card, error) {
	o := CardOpts{}
	if opts != nil {
		o = *opts
	}
	b := d.Bounds()
	o.Width, o.Height = b.Dx(), b.Dy()
	if o.Width == 0 || o.Height == 0 {
		return nil, errors.New("gauge: display has no area")
	}
	return NewCard(&o)
}

func (c *Card) String() string {
	return fmt.Sprintf("Card{%dx%d}", c.w, c.h)
}

// Bounds returns the size of the rendered images.
func (c *Card) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.w, c.h)
}

// Render draws e into a new image.
func (c *Card) Render(e physic.Env) image.Image {
	return c.draw(e).Image()
}

// WritePNG renders e and encodes it as PNG to w.
func (c *Card) WritePNG(w io.Writer, e physic.Env) error {
	return c.draw(e).EncodePNG(w)
}

// Show renders e and draws it on d, starting at the top left corner.
func (c *Card) Show(d display.Drawer, e physic.Env) error {
	img := c.Render(e)
	return d.Draw(d.Bounds(), img, image.Point{})
}

func (c *Card) draw(e physic.Env) *gg.Context {
	w, h := float64(c.w), float64(c.h)
	dc := gg.NewContext(c.w, c.h)
	fg, bg := 0.0, 1.0
	if c.inverted {
		fg, bg = bg, fg
	}
	dc.SetRGB(bg, bg, bg)
	dc.Clear()
	dc.SetRGB(fg, fg, fg)
	dc.SetFontFace(c.face)

	dc.DrawStringAnchored(e.Temperature.String(), w/2, h*0.25, 0.5, 0.5)
	dc.DrawStringAnchored(e.Humidity.String(), w/2, h*0.6, 0.5, 0.5)

	padding := h / 16
	barH := h / 8
	barW := w - 2*padding
	y := h - padding - barH
	dc.SetLineWidth(1)
	dc.DrawRectangle(padding, y, barW, barH)
	dc.Stroke()
	frac := clamp(float64(e.Humidity) / float64(100*physic.PercentRH))
	if frac > 0 {
		dc.DrawRectangle(padding, y, barW*frac, barH)
		dc.Fill()
	}
	return dc
}

var _ fmt.Stringer = &Card{}
