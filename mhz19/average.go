// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

// Average is a running mean of concentration readings.
type Average struct {
	sum   int
	count int
}

// Add folds ppm into the average.
func (a *Average) Add(ppm PPM) {
	a.sum += int(ppm)
	a.count++
}

// Value returns the integer mean, or false if nothing was added since the
// last Reset.
func (a *Average) Value() (PPM, bool) {
	if a.count == 0 {
		return 0, false
	}
	return PPM(a.sum / a.count), true
}

// Count returns the number of readings in the average.
func (a *Average) Count() int {
	return a.count
}

// Reset empties the average.
func (a *Average) Reset() {
	a.sum = 0
	a.count = 0
}
