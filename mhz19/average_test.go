// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mhz19

import "testing"

func TestAverage(t *testing.T) {
	a := Average{}
	if _, ok := a.Value(); ok {
		t.Error("empty average returned a value")
	}
	for _, v := range []PPM{400, 401, 403} {
		a.Add(v)
	}
	// Integer division.
	if v, ok := a.Value(); !ok || v != 401 {
		t.Errorf("Value()=%s, %t expected 401 PPM", v, ok)
	}
	if a.Count() != 3 {
		t.Errorf("Count()=%d expected 3", a.Count())
	}
	a.Reset()
	if _, ok := a.Value(); ok || a.Count() != 0 {
		t.Error("Reset() did not empty the average")
	}
}
