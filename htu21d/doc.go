// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package htu21d interfaces a TE Connectivity HTU21D(F) humidity and
// temperature sensor over I²C. The SHT21 and Si7021 speak the same command
// set.
//
// Measurements are triggered in no-hold master mode by default: the driver
// sends the trigger command, waits for the conversion time of the selected
// resolution and then polls the device, which NACKs reads until the result
// is ready. Every 16 bit result is protected by a CRC-8 (polynomial
// x^8 + x^5 + x^4 + 1) that is verified before any conversion.
//
// # Datasheet
//
// https://www.te.com/commerce/DocumentDelivery/DDEController?Action=showdoc&DocId=Data+Sheet%7FHPC199_6%7FA6%7Fpdf%7FEnglish%7FENG_DS_HPC199_6_A6.pdf
//
// Range: 0-100 %RH, -40°C - 125°C
//
// Accuracy: ±2 %RH, ±0.3°C
package htu21d
