// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airsensors is a container for air quality sensor drivers.
//
// htu21d reads humidity and temperature over I²C, mhz19 reads CO2
// concentration over a UART. cmd/airmon polls both.
package airsensors
