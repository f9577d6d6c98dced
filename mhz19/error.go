// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

import "errors"

var (
	// ErrTimeout is returned when a port opened with a read timeout stops
	// delivering bytes.
	ErrTimeout = errors.New("mhz19: timeout waiting for response")
	// ErrChecksum is returned when a response fails its checksum.
	ErrChecksum = errors.New("mhz19: checksum mismatch")
	// ErrResync is returned when a response fails its checksum and the start
	// of the next frame is already waiting behind it.
	ErrResync = errors.New("mhz19: checksum mismatch, next frame already started")
	// ErrProtocol is returned when the response has the wrong start byte or
	// does not echo the read command.
	ErrProtocol = errors.New("mhz19: unexpected response header")
	// ErrNotInitialized is returned while the sensor is warming up.
	ErrNotInitialized = errors.New("mhz19: sensor not initialized")
	// ErrOutOfRange is returned when the concentration is outside
	// [MinPPM, MaxPPM].
	ErrOutOfRange = errors.New("mhz19: concentration out of range")
	// ErrUnreliable is returned along with the concentration when the sensor
	// flags its own reading as unreliable. The value may be used for
	// information only.
	ErrUnreliable = errors.New("mhz19: unreliable reading")
	// ErrNoData is returned by ReadAverage when no trusted reading has been
	// accumulated.
	ErrNoData = errors.New("mhz19: no data")
)

// LegacyCode maps a reading and its error to the single integer returned by
// the Arduino MHZ19 library: the concentration on success, its negation
// for an unreliable reading, -2 when not initialized, -3 when out of range
// and -1 for everything else.
func LegacyCode(ppm PPM, err error) int {
	switch {
	case err == nil:
		return int(ppm)
	case errors.Is(err, ErrUnreliable):
		return -int(ppm)
	case errors.Is(err, ErrNotInitialized):
		return -2
	case errors.Is(err, ErrOutOfRange):
		return -3
	}
	return -1
}
