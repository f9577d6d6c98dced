// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airsensors/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM int

func (ppm PPM) String() string {
	return fmt.Sprintf("%d PPM", int(ppm))
}

const (
	// BaudRate is the fixed line speed of the sensor.
	BaudRate = 9600

	// MinPPM and MaxPPM bound the readings accepted as plausible.
	MinPPM PPM = 100
	MaxPPM PPM = 6000
)

const (
	frameSize = 9
	startByte = 0xff
	sensorID  = 0x01

	cmdReadCO2 byte = 0x86
	cmdABC     byte = 0x79

	abcOn  byte = 0xa0
	abcOff byte = 0x00

	// Status byte value of a reading the sensor trusts.
	statusOK byte = 64
	// Reported in bytes 6-7 while the sensor warms up.
	uNotInitialized uint16 = 15000
	// Byte 4 holds the temperature offset by 40°C.
	temperatureOffset = 40

	resyncLimit = 8
)

// Port is the serial link to the sensor, configured for 9600 baud 8N1. The
// caller keeps ownership.
type Port interface {
	io.Reader
	io.Writer
}

// Opts holds the configuration options for the device.
type Opts struct {
	// ABC leaves automatic baseline correction enabled. The default disables
	// it, which suits indoor use where the air rarely returns to 400 ppm.
	ABC bool
	// ReadTimeout bounds each read of the port when the port is opened with
	// Open. Zero blocks until the response arrives.
	ReadTimeout time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{}

// Reading is a decoded response to the read command.
type Reading struct {
	CO2 PPM
	// Coarse internal temperature, 1°C resolution.
	Temperature physic.Temperature
	// Status is the sensor's reliability flag; 64 means OK.
	Status byte
	// U is 15000 while the sensor is not initialized.
	U uint16
}

// Dev represents an MH-Z19 CO2 sensor.
type Dev struct {
	w      io.Writer
	r      *bufio.Reader
	closer io.Closer
	avg    Average
	mu     sync.Mutex
}

// New returns a Dev talking over p. opts can be nil.
//
// Automatic baseline correction is configured as requested and the running
// average starts empty.
func New(p Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{w: p, r: bufio.NewReaderSize(p, 2*frameSize)}
	if err := d.setABC(opts.ABC); err != nil {
		return nil, err
	}
	return d, nil
}

// command builds a request frame for cmd with a single argument byte.
func command(cmd, arg byte) []byte {
	f := []byte{startByte, sensorID, cmd, arg, 0, 0, 0, 0, 0}
	f[8] = common.Checksum(f)
	return f
}

func (d *Dev) send(frame []byte) error {
	if _, err := d.w.Write(frame); err != nil {
		return fmt.Errorf("mhz19: error transmitting %w", err)
	}
	return nil
}

// SetABC enables or disables automatic baseline correction.
func (d *Dev) SetABC(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setABC(enabled)
}

func (d *Dev) setABC(enabled bool) error {
	arg := abcOff
	if enabled {
		arg = abcOn
	}
	return d.send(command(cmdABC, arg))
}

// ReadCO2 requests the CO2 concentration.
//
// On ErrUnreliable the concentration is returned along with the error.
func (d *Dev) ReadCO2() (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.read()
	return r.CO2, err
}

// Read requests the CO2 concentration and returns the whole decoded
// response. The fields are set whenever the frame passed its checksum and
// header checks, even if an error is returned.
func (d *Dev) Read() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

func (d *Dev) read() (Reading, error) {
	var reading Reading
	if err := d.send(command(cmdReadCO2, 0)); err != nil {
		return reading, err
	}
	res := make([]byte, frameSize)
	if _, err := io.ReadFull(d.r, res); err != nil {
		return reading, fmt.Errorf("mhz19: error reading response %w", err)
	}
	if common.Checksum(res) != res[8] {
		return reading, d.resync()
	}
	if res[0] != startByte || res[1] != cmdReadCO2 {
		return reading, fmt.Errorf("%w: % x", ErrProtocol, res[:2])
	}

	reading.CO2 = PPM(uint16(res[2])<<8 | uint16(res[3]))
	reading.Temperature = physic.Temperature(int(res[4])-temperatureOffset)*physic.Kelvin + physic.ZeroCelsius
	reading.Status = res[5]
	reading.U = uint16(res[6])<<8 | uint16(res[7])

	if reading.U == uNotInitialized {
		return reading, ErrNotInitialized
	}
	if reading.CO2 < MinPPM || reading.CO2 > MaxPPM {
		return reading, fmt.Errorf("%w: %s", ErrOutOfRange, reading.CO2)
	}
	if reading.Status != statusOK {
		return reading, fmt.Errorf("%w: status %d", ErrUnreliable, reading.Status)
	}
	return reading, nil
}

// resync discards up to resyncLimit bytes already received behind a bad
// frame. It returns ErrResync if a start byte is found, ErrChecksum
// otherwise. The start byte is left in place for the next read.
func (d *Dev) resync() error {
	for i := 0; i < resyncLimit; i++ {
		if d.r.Buffered() == 0 {
			break
		}
		b, err := d.r.Peek(1)
		if err != nil {
			break
		}
		if b[0] == startByte {
			return ErrResync
		}
		_, _ = d.r.ReadByte()
	}
	return ErrChecksum
}

// ReadAverage reads the concentration and folds it into the running average
// if the sensor trusts it. It returns the average, or ErrNoData if no
// trusted reading was ever accumulated. When reset is true the average is
// emptied after its value has been computed.
//
// A failed read does not fail ReadAverage once data has been accumulated.
func (d *Dev) ReadAverage(reset bool) (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.read()
	if err == nil {
		d.avg.Add(r.CO2)
	}
	avg, ok := d.avg.Value()
	if !ok {
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrNoData, err)
		}
		return 0, ErrNoData
	}
	if reset {
		d.avg.Reset()
	}
	return avg, nil
}

// ResetAverage empties the running average.
func (d *Dev) ResetAverage() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.avg.Reset()
}

// Close closes the serial port if it was opened by Open. A Port passed to
// New is left open.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// Halt implements conn.Resource. There is nothing to stop.
func (d *Dev) Halt() error {
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return "mhz19"
}

var _ conn.Resource = &Dev{}
