// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws sensor readings as horizontal bars on a terminal
// (stdout) using ANSI color codes.
//
// The bar fills from green to red as the value moves from Min to Max, which
// makes a humidity or CO2 trend readable at a glance over ssh.
package gauge

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	// Width is the bar length in cells.
	Width int
	// Min and Max bound the values shown; values outside are clamped.
	Min, Max float64
	Palette  *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a bar gauge that outputs to the console.
type Dev struct {
	w        io.Writer
	width    int
	min, max float64
	palette  ansi256.Palette

	buf bytes.Buffer
}

var unlit = color.NRGBA{0x30, 0x30, 0x30, 255}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.Width <= 0 {
		return nil, errors.New("gauge: width must be positive")
	}
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("gauge: invalid range [%g, %g]", opts.Min, opts.Max)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, width: opts.Width, min: opts.Min, max: opts.Max, palette: *p}, nil
}

func (d *Dev) String() string {
	return "Gauge"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// Show writes one line with label, value and unit followed by the bar.
func (d *Dev) Show(label string, value float64, unit string) error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	_, _ = fmt.Fprintf(&d.buf, "%-12s %8.1f %-4s ", label, value, unit)
	n := d.lit(value)
	for i := 0; i < d.width; i++ {
		c := unlit
		if i < n {
			c = d.colorAt(i)
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m\n")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// lit returns the number of cells to light for value.
func (d *Dev) lit(value float64) int {
	switch {
	case value <= d.min:
		return 0
	case value >= d.max:
		return d.width
	}
	return int((value - d.min) / (d.max - d.min) * float64(d.width))
}

// colorAt returns the color of cell i, green at the left end, yellow in the
// middle and red at the right end.
func (d *Dev) colorAt(i int) color.NRGBA {
	f := 0.
	if d.width > 1 {
		f = float64(i) / float64(d.width-1)
	}
	r, g := 510*f, 510*(1-f)
	if r > 255 {
		r = 255
	}
	if g > 255 {
		g = 255
	}
	return color.NRGBA{byte(r), byte(g), 0, 255}
}

var _ fmt.Stringer = &Dev{}
