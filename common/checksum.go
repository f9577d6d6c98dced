// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

// Checksum returns the check byte of a 9 byte Winsen style frame: the two's
// complement of the sum of bytes 1 through 7. frame must hold at least 8
// bytes; byte 0 (the start byte) and byte 8 are ignored.
func Checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[1:8] {
		sum += b
	}
	return 0xff - sum + 1
}
