// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, a CRC8 calculation
package common

// CRC8Polynomial is p(x) = x^8 + x^5 + x^4 + 1. x^8 is omitted due to byte
// size.
const CRC8Polynomial byte = 0x31

// CRC8 is an incremental 8-bit CRC using CRC8Polynomial, MSB first, with no
// reflection and no final XOR.
//
// The zero value is ready to use and starts with a remainder of 0, which is
// what MEAS/TE parts (HTU21D) expect. Sensirion and TI parts start from 0xff,
// use NewCRC8 for those.
type CRC8 struct {
	value byte
}

// NewCRC8 returns a CRC8 starting from the remainder init.
func NewCRC8(init byte) CRC8 {
	return CRC8{value: init}
}

// Add feeds one byte.
func (c *CRC8) Add(b byte) {
	c.value ^= b
	for range 8 {
		if (c.value & 0x80) == 0 {
			c.value <<= 1
		} else {
			c.value = (c.value << 1) ^ CRC8Polynomial
		}
	}
}

// AddAll feeds bytes in order.
func (c *CRC8) AddAll(bytes []byte) {
	for _, b := range bytes {
		c.Add(b)
	}
}

// Value returns the current remainder.
//
// When the transmitted checksum byte has been fed along with the data, a
// valid message leaves a remainder of 0.
func (c *CRC8) Value() byte {
	return c.value
}

// Checksum8 calculates the 8-bit CRC of the byte slice parameter with an
// initial remainder of 0.
func Checksum8(bytes []byte) byte {
	var c CRC8
	c.AddAll(bytes)
	return c.Value()
}

// SensirionCRC8 calculates the 8-bit CRC of the byte slice parameter and
// returns the calculated value. CRC bytes are used in sensors from TI and
// Sensirion, which start from 0xff.
func SensirionCRC8(bytes []byte) byte {
	c := NewCRC8(0xff)
	c.AddAll(bytes)
	return c.Value()
}
