// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens the named serial port at 9600 8N1 and returns a Dev that owns
// it. Call Close to release the port. opts can be nil.
func Open(name string, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("mhz19: failed to open serial port %s: %w", name, err)
	}
	var port Port = p
	if opts.ReadTimeout > 0 {
		if err := p.SetReadTimeout(opts.ReadTimeout); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("mhz19: failed to set read timeout: %w", err)
		}
		port = &timeoutPort{Port: p}
	}
	d, err := New(port, opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.closer = p
	return d, nil
}

// timeoutPort turns the empty read a port returns when its read timeout
// expires into ErrTimeout.
type timeoutPort struct {
	Port
}

func (t *timeoutPort) Read(b []byte) (int, error) {
	n, err := t.Port.Read(b)
	if n == 0 && err == nil && len(b) != 0 {
		return 0, ErrTimeout
	}
	return n, err
}
