// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package htu21d

import "errors"

var (
	// ErrTimeout is returned when the device did not deliver the expected
	// bytes before the poll deadline.
	ErrTimeout = errors.New("htu21d: timeout waiting for measurement")
	// ErrCRC is returned when a measurement fails its CRC check.
	ErrCRC = errors.New("htu21d: crc mismatch")
	// ErrNotReady is returned when the user register does not hold its
	// documented post-reset value.
	ErrNotReady = errors.New("htu21d: device not ready after reset")
)

// Numeric codes reported by the Arduino HTU21D library.
const (
	codeTimeout = 1
	codeCRC     = 2
	// legacyBase is added to the code to keep error values out of the valid
	// humidity and temperature range.
	legacyBase = 997
)

// ErrorCode returns the legacy numeric code of err: 1 for a timeout, 2 for a
// CRC failure and 0 otherwise.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrTimeout):
		return codeTimeout
	case errors.Is(err, ErrCRC):
		return codeCRC
	}
	return 0
}

// Legacy maps a reading and its error to the single float returned by the
// Arduino library: the value itself on success, 997+code on failure. 998 is
// a timeout, 999 a CRC failure and 997 any other bus error.
func Legacy(value float64, err error) float64 {
	if err == nil {
		return value
	}
	return float64(legacyBase + ErrorCode(err))
}
