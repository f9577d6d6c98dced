// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GermanBionicSystems/airsensors/common"
	"periph.io/x/conn/v3/physic"
)

var (
	frameABCOff  = []byte{0xff, 0x01, 0x79, 0x00, 0x00, 0x00, 0x00, 0x00, 0x86}
	frameABCOn   = []byte{0xff, 0x01, 0x79, 0xa0, 0x00, 0x00, 0x00, 0x00, 0xe6}
	frameReadCO2 = []byte{0xff, 0x01, 0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x79}
)

// fakePort replays in and records everything written.
type fakePort struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }

// response builds a read response for ppm with the given status byte and U
// value.
func response(ppm uint16, status byte, u uint16) []byte {
	f := []byte{0xff, 0x86, byte(ppm >> 8), byte(ppm), 64, status, byte(u >> 8), byte(u), 0}
	f[8] = common.Checksum(f)
	return f
}

func getDev(t *testing.T, responses ...[]byte) (*Dev, *fakePort) {
	p := &fakePort{}
	for _, r := range responses {
		p.in.Write(r)
	}
	dev, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dev, p
}

func TestNew(t *testing.T) {
	dev, p := getDev(t)
	if !bytes.Equal(p.out.Bytes(), frameABCOff) {
		t.Errorf("New() wrote % x expected % x", p.out.Bytes(), frameABCOff)
	}
	if _, ok := dev.avg.Value(); ok {
		t.Error("average not empty after New()")
	}
	if s := dev.String(); s != "mhz19" {
		t.Errorf("String()=%q", s)
	}
	// The port belongs to the caller.
	if err := dev.Close(); err != nil {
		t.Error(err)
	}

	p = &fakePort{}
	if _, err := New(p, &Opts{ABC: true}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.out.Bytes(), frameABCOn) {
		t.Errorf("New(ABC) wrote % x expected % x", p.out.Bytes(), frameABCOn)
	}
}

func TestSetABC(t *testing.T) {
	dev, p := getDev(t)
	p.out.Reset()
	if err := dev.SetABC(true); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetABC(false); err != nil {
		t.Fatal(err)
	}
	expected := append(append([]byte{}, frameABCOn...), frameABCOff...)
	if !bytes.Equal(p.out.Bytes(), expected) {
		t.Errorf("SetABC() wrote % x expected % x", p.out.Bytes(), expected)
	}
}

func TestRead(t *testing.T) {
	res := []byte{0xff, 0x86, 0x03, 0x20, 0x40, 0x40, 0x00, 0x00, 0xd7}
	dev, p := getDev(t, res)
	p.out.Reset()
	r, err := dev.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.out.Bytes(), frameReadCO2) {
		t.Errorf("Read() wrote % x expected % x", p.out.Bytes(), frameReadCO2)
	}
	expected := Reading{CO2: 800, Temperature: physic.ZeroCelsius + 24*physic.Kelvin, Status: 64}
	if r != expected {
		t.Errorf("Read()=%#v expected %#v", r, expected)
	}
}

func TestReadCO2(t *testing.T) {
	var tests = []struct {
		name     string
		response []byte
		ppm      PPM
		err      error
		legacy   int
	}{
		{name: "trusted", response: response(800, 64, 0), ppm: 800, legacy: 800},
		{name: "lower bound", response: response(100, 64, 0), ppm: 100, legacy: 100},
		{name: "upper bound", response: response(6000, 64, 0), ppm: 6000, legacy: 6000},
		{name: "too low", response: response(50, 64, 0), err: ErrOutOfRange, legacy: -3},
		{name: "too high", response: response(7000, 64, 0), err: ErrOutOfRange, legacy: -3},
		{name: "warming up", response: response(500, 64, 15000), err: ErrNotInitialized, legacy: -2},
		{name: "unreliable", response: response(800, 0, 0), ppm: 800, err: ErrUnreliable, legacy: -800},
		{name: "wrong command", response: func() []byte {
			f := response(800, 64, 0)
			f[1] = 0x79
			f[8] = common.Checksum(f)
			return f
		}(), err: ErrProtocol, legacy: -1},
		{name: "wrong start", response: func() []byte {
			f := response(800, 64, 0)
			f[0] = 0xfe
			return f
		}(), err: ErrProtocol, legacy: -1},
		{name: "bad checksum", response: func() []byte {
			f := response(800, 64, 0)
			f[8]++
			return f
		}(), err: ErrChecksum, legacy: -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dev, _ := getDev(t, test.response)
			ppm, err := dev.ReadCO2()
			if test.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !errors.Is(err, test.err) {
				t.Errorf("ReadCO2() error %v expected %v", err, test.err)
			}
			if (test.err == nil || errors.Is(test.err, ErrUnreliable)) && ppm != test.ppm {
				t.Errorf("ReadCO2()=%s expected %s", ppm, test.ppm)
			}
			if code := LegacyCode(ppm, err); code != test.legacy {
				t.Errorf("LegacyCode()=%d expected %d", code, test.legacy)
			}
		})
	}
}

func TestReadCO2Truncated(t *testing.T) {
	dev, _ := getDev(t, []byte{0xff, 0x86, 0x01})
	if _, err := dev.ReadCO2(); err == nil {
		t.Error("expected an error for a truncated response")
	}
}

func TestResync(t *testing.T) {
	bad := response(800, 64, 0)
	bad[8]++
	good := response(420, 64, 0)

	// Garbage after the bad frame without a start byte is discarded.
	in := append(append([]byte{}, bad...), 0x01, 0x02, 0x03)
	dev, p := getDev(t, in)
	if _, err := dev.ReadCO2(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
	if n := dev.r.Buffered(); n != 0 {
		t.Errorf("%d garbage bytes left buffered", n)
	}

	// A start byte behind the bad frame is reported and kept for the next
	// read.
	in = append(append([]byte{}, bad...), 0x00)
	in = append(in, good...)
	dev, p = getDev(t, in)
	if _, err := dev.ReadCO2(); !errors.Is(err, ErrResync) {
		t.Fatalf("expected ErrResync, got %v", err)
	}
	if LegacyCode(0, ErrResync) != -1 {
		t.Error("ErrResync must map to -1")
	}
	ppm, err := dev.ReadCO2()
	if err != nil {
		t.Fatal(err)
	}
	if ppm != 420 {
		t.Errorf("ReadCO2() after resync=%s expected 420 PPM", ppm)
	}
	if p.in.Len() != 0 {
		t.Errorf("%d bytes left unread", p.in.Len())
	}
}

func TestResyncLimit(t *testing.T) {
	bad := response(800, 64, 0)
	bad[8]++
	in := append(append([]byte{}, bad...), 1, 2, 3, 4, 5, 6, 7, 8, 0xff)
	dev, _ := getDev(t, in)
	if _, err := dev.ReadCO2(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum once 8 bytes were discarded, got %v", err)
	}
	if n := dev.r.Buffered(); n != 1 {
		t.Errorf("expected the start byte to remain, %d bytes buffered", n)
	}
}

func TestReadAverage(t *testing.T) {
	dev, _ := getDev(t,
		response(400, 64, 0),
		response(420, 64, 0),
		response(440, 64, 0),
		response(900, 0, 0),
		response(900, 0, 0),
	)
	var tests = []struct {
		reset    bool
		expected PPM
		err      error
	}{
		{expected: 400},
		{expected: 410},
		{expected: 420},
		// Unreliable readings are not accumulated.
		{reset: true, expected: 420},
		{err: ErrNoData},
	}
	for i, test := range tests {
		avg, err := dev.ReadAverage(test.reset)
		if !errors.Is(err, test.err) {
			t.Errorf("#%d ReadAverage() error %v expected %v", i, err, test.err)
		}
		if avg != test.expected {
			t.Errorf("#%d ReadAverage()=%s expected %s", i, avg, test.expected)
		}
	}
	if LegacyCode(0, ErrNoData) != -1 {
		t.Error("ErrNoData must map to -1")
	}
}

type stalledPort struct{}

func (stalledPort) Read(b []byte) (int, error)  { return 0, nil }
func (stalledPort) Write(b []byte) (int, error) { return len(b), nil }

func TestTimeoutPort(t *testing.T) {
	dev, err := New(&timeoutPort{Port: stalledPort{}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.ReadCO2(); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}
