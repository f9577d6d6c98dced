// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu21d

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airsensors/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the only address the device answers on.
const DefaultAddress i2c.Addr = 0x40

// Command is a measurement trigger command.
type Command byte

const (
	// Hold master mode: the device stretches SCL until the result is ready.
	TemperatureHold Command = 0xe3
	HumidityHold    Command = 0xe5
	// No hold master mode: the device NACKs reads until the result is ready.
	TemperatureNoHold Command = 0xf3
	HumidityNoHold    Command = 0xf5
)

// Resolution selects the measurement resolution for humidity and
// temperature. The values are the user register bits 7 and 0.
type Resolution byte

const (
	RH12T14 Resolution = 0x00
	RH8T12  Resolution = 0x01
	RH10T13 Resolution = 0x80
	RH11T11 Resolution = 0x81
)

func (r Resolution) String() string {
	switch r {
	case RH12T14:
		return "RH 12 bit, T 14 bit"
	case RH8T12:
		return "RH 8 bit, T 12 bit"
	case RH10T13:
		return "RH 10 bit, T 13 bit"
	case RH11T11:
		return "RH 11 bit, T 11 bit"
	}
	return fmt.Sprintf("Resolution(0x%02x)", byte(r))
}

const (
	cmdWriteUserRegister byte = 0xe6
	cmdReadUserRegister  byte = 0xe7
	cmdSoftReset         byte = 0xfe

	resolutionMask byte = 0x81
	// The user register reads 2 after a reset: OTP reload disabled.
	userRegisterDefault byte = 0x02

	resetDelay     = 15 * time.Millisecond
	pollInterval   = time.Millisecond
	measureTimeout = 100 * time.Millisecond
	serialTimeout  = 10 * time.Millisecond

	countDivisor = float64(65536)
	// The two low bits of a measurement are status bits.
	statusMask uint16 = 0xfffc
)

var (
	serialNumberBlock1 = []byte{0xfa, 0x0f}
	serialNumberBlock2 = []byte{0xfc, 0xc9}
)

// Maximum conversion times from the datasheet, per resolution.
var conversionTime = map[Resolution]struct{ humidity, temperature time.Duration }{
	RH12T14: {16 * time.Millisecond, 50 * time.Millisecond},
	RH8T12:  {3 * time.Millisecond, 13 * time.Millisecond},
	RH10T13: {5 * time.Millisecond, 25 * time.Millisecond},
	RH11T11: {8 * time.Millisecond, 7 * time.Millisecond},
}

// Opts holds the configuration options for the device.
type Opts struct {
	// BusSpeed is applied to the bus when non-zero.
	BusSpeed physic.Frequency
	// Hold selects hold master mode for Humidity, Temperature and Sense. The
	// bus must support clock stretching.
	Hold bool
	// Clock is used for all waits. Defaults to common.SystemClock.
	Clock common.Clock
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{}

// SerialNumber is the factory serial number, least significant byte first:
// SNC0, SNC1, SNB0, SNB1, SNB2, SNB3, SNA0, SNA1.
type SerialNumber [8]byte

// Uint64 returns the serial number as SNA1 SNA0 SNB3 SNB2 SNB1 SNB0 SNC1 SNC0.
func (s SerialNumber) Uint64() uint64 {
	return binary.LittleEndian.Uint64(s[:])
}

func (s SerialNumber) String() string {
	return fmt.Sprintf("%016x", s.Uint64())
}

// Dev represents an HTU21D humidity/temperature sensor.
type Dev struct {
	d     *i2c.Dev
	opts  Opts
	clock common.Clock
	res   Resolution
	mu    sync.Mutex
}

// New returns a Dev for the sensor on bus. opts can be nil.
//
// The device is soft-reset and its user register verified. If that
// verification fails the Dev is still returned along with the error; the
// caller decides whether a device that could not be confirmed ready is
// usable.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{d: &i2c.Dev{Bus: bus, Addr: uint16(DefaultAddress)}, opts: *opts, clock: opts.Clock}
	if d.clock == nil {
		d.clock = common.SystemClock
	}
	if opts.BusSpeed != 0 {
		if err := bus.SetSpeed(opts.BusSpeed); err != nil {
			return nil, fmt.Errorf("htu21d: error setting bus speed %w", err)
		}
	}
	return d, d.Reset()
}

// Reset issues a soft-reset and checks the user register holds its power-on
// value. ErrNotReady is returned when it does not.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("htu21d: error resetting %w", err)
	}
	d.clock.Sleep(resetDelay)
	reg, err := d.userRegister()
	if err != nil {
		return err
	}
	d.res = Resolution(reg & resolutionMask)
	if reg != userRegisterDefault {
		return fmt.Errorf("%w: user register 0x%02x", ErrNotReady, reg)
	}
	return nil
}

// UserRegister returns the raw user register.
func (d *Dev) UserRegister() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.userRegister()
}

func (d *Dev) userRegister() (byte, error) {
	r := []byte{0}
	if err := d.d.Tx([]byte{cmdReadUserRegister}, r); err != nil {
		return 0, fmt.Errorf("htu21d: error reading user register %w", err)
	}
	return r[0], nil
}

// SetResolution changes the measurement resolution. The reserved bits of the
// user register are preserved.
func (d *Dev) SetResolution(res Resolution) error {
	if _, ok := conversionTime[res]; !ok {
		return fmt.Errorf("htu21d: invalid resolution 0x%02x", byte(res))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	reg, err := d.userRegister()
	if err != nil {
		return err
	}
	reg = reg&^resolutionMask | byte(res)
	if err := d.d.Tx([]byte{cmdWriteUserRegister, reg}, nil); err != nil {
		return fmt.Errorf("htu21d: error writing user register %w", err)
	}
	d.res = res
	return nil
}

// Resolution returns the resolution the driver is configured for.
func (d *Dev) Resolution() Resolution {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.res
}

// ReadRaw triggers a measurement with cmd and returns the 16 bit result with
// the status bits cleared.
//
// In no hold mode the driver waits for the conversion time then polls every
// millisecond for up to 100ms; ErrTimeout is returned if the result never
// arrives. ErrCRC is returned if the result fails its CRC check.
func (d *Dev) ReadRaw(cmd Command) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRaw(cmd)
}

func (d *Dev) readRaw(cmd Command) (uint16, error) {
	r := make([]byte, 3)
	switch cmd {
	case TemperatureHold, HumidityHold:
		if err := d.d.Tx([]byte{byte(cmd)}, r); err != nil {
			return 0, fmt.Errorf("htu21d: error reading %w", err)
		}
	case TemperatureNoHold, HumidityNoHold:
		if err := d.d.Tx([]byte{byte(cmd)}, nil); err != nil {
			return 0, fmt.Errorf("htu21d: error transmitting %w", err)
		}
		ct := conversionTime[d.res]
		if cmd == TemperatureNoHold {
			d.clock.Sleep(ct.temperature)
		} else {
			d.clock.Sleep(ct.humidity)
		}
		if err := d.poll(r, measureTimeout); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("htu21d: invalid command 0x%02x", byte(cmd))
	}
	raw := uint16(r[0])<<8 | uint16(r[1])
	if common.CheckCRC8(raw, r[2]) != 0 {
		return 0, fmt.Errorf("%w: 0x%04x check 0x%02x", ErrCRC, raw, r[2])
	}
	return raw & statusMask, nil
}

// poll reads len(r) bytes, retrying every pollInterval while the device
// NACKs, until timeout has elapsed.
func (d *Dev) poll(r []byte, timeout time.Duration) error {
	end := d.clock.Now().Add(timeout)
	for {
		err := d.d.Tx(nil, r)
		if err == nil {
			return nil
		}
		if !d.clock.Now().Before(end) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		d.clock.Sleep(pollInterval)
	}
}

func (d *Dev) humidityCommand() Command {
	if d.opts.Hold {
		return HumidityHold
	}
	return HumidityNoHold
}

func (d *Dev) temperatureCommand() Command {
	if d.opts.Hold {
		return TemperatureHold
	}
	return TemperatureNoHold
}

// countToHumidity converts a measurement to relative humidity:
// RH = -6 + 125 * count/65536.
func countToHumidity(count uint16) physic.RelativeHumidity {
	return physic.RelativeHumidity((-6.0 + 125.0*(float64(count)/countDivisor)) * float64(physic.PercentRH))
}

// countToTemp converts a measurement to temperature:
// T = -46.85 + 175.72 * count/65536.
func countToTemp(count uint16) physic.Temperature {
	return physic.Temperature(float64(physic.Kelvin)*(-46.85+175.72*(float64(count)/countDivisor))) + physic.ZeroCelsius
}

// Humidity measures the relative humidity.
func (d *Dev) Humidity() (physic.RelativeHumidity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRaw(d.humidityCommand())
	if err != nil {
		return 0, err
	}
	return countToHumidity(raw), nil
}

// Temperature measures the temperature.
func (d *Dev) Temperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRaw(d.temperatureCommand())
	if err != nil {
		return 0, err
	}
	return countToTemp(raw), nil
}

// Sense reads temperature and humidity from the device. Pressure is always 0.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.Pressure = 0
	raw, err := d.readRaw(d.temperatureCommand())
	if err != nil {
		return err
	}
	e.Temperature = countToTemp(raw)
	if raw, err = d.readRaw(d.humidityCommand()); err != nil {
		return err
	}
	e.Humidity = countToHumidity(raw)
	return nil
}

// Precision returns the smallest change in readings the device can produce
// at the highest resolution.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = physic.PercentRH / 25
	e.Pressure = 0
}

// SerialNumber returns the factory serial number. The CRC bytes embedded in
// the two memory reads are not checked.
func (d *Dev) SerialNumber() (SerialNumber, error) {
	var sn SerialNumber
	d.mu.Lock()
	defer d.mu.Unlock()

	r := make([]byte, 8)
	if err := d.d.Tx(serialNumberBlock1, nil); err != nil {
		return sn, fmt.Errorf("htu21d: error transmitting %w", err)
	}
	if err := d.poll(r, serialTimeout); err != nil {
		return sn, err
	}
	// SNB3, CRC, SNB2, CRC, SNB1, CRC, SNB0, CRC
	sn[5], sn[4], sn[3], sn[2] = r[0], r[2], r[4], r[6]

	r = r[:6]
	if err := d.d.Tx(serialNumberBlock2, nil); err != nil {
		return sn, fmt.Errorf("htu21d: error transmitting %w", err)
	}
	if err := d.poll(r, serialTimeout); err != nil {
		return sn, err
	}
	// SNC1, SNC0, CRC, SNA1, SNA0, CRC
	sn[1], sn[0], sn[7], sn[6] = r[0], r[1], r[3], r[4]
	return sn, nil
}

// Halt implements conn.Resource. There is nothing to stop.
func (d *Dev) Halt() error {
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return "htu21d"
}

var _ conn.Resource = &Dev{}
