// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, CRC-8 and frame checksum calculations.
package common

// shiftedDivisor is the polynomial 0x0131 (x^8 + x^5 + x^4 + 1) shifted to
// the top of a 24 bit field.
const shiftedDivisor uint32 = 0x988000

// CRC8 calculates the 8-bit CRC (polynomial 0x31, MSB first) of the byte
// slice starting from init. Sensirion parts use init 0xff, the HTU21D uses
// 0x00.
func CRC8(init byte, bytes []byte) byte {
	crc := init
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// CheckCRC8 divides the 16 bit value followed by its check byte by the
// HTU21D generator polynomial and returns the remainder. A zero result means
// the transmission was good.
func CheckCRC8(value uint16, check byte) byte {
	remainder := uint32(value)<<8 | uint32(check)
	divisor := shiftedDivisor
	// Only the top 16 of the 24 positions are divided; the low 8 bits are
	// what is left.
	for i := 0; i < 16; i++ {
		if remainder&(1<<(23-i)) != 0 {
			remainder ^= divisor
		}
		divisor >>= 1
	}
	return byte(remainder)
}
