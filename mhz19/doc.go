// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mhz19 interfaces a Winsen MH-Z19 / MH-Z19B NDIR CO2 sensor over its
// 9600 baud UART.
//
// Every exchange is a 9 byte request answered by a 9 byte response. Byte 0
// is the start byte 0xff and byte 8 the checksum: the two's complement of
// the sum of bytes 1 to 7.
//
// A response that fails its checksum is never decoded. The driver discards
// up to 8 bytes that were already received after it, stopping at the next
// start byte; it does not re-read a realigned frame, the next call picks it
// up instead.
//
// The frame read blocks until 9 bytes arrive. Ports opened with Open can set
// Opts.ReadTimeout to bound it.
//
// # Datasheet
//
// https://www.winsen-sensor.com/d/files/infrared-gas-sensor/mh-z19b-co2-ver1_0.pdf
//
// Range: 0-5000 ppm (readings outside 100-6000 ppm are rejected)
//
// Accuracy: ±(50 ppm + 5% reading)
package mhz19
