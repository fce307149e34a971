// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestChecksum8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte{0xdc}, result: 0x79},
		{bytes: []byte{0x68, 0x3a}, result: 0x7c},
		{bytes: []byte{0x4e, 0x85}, result: 0x6b},
		{bytes: []byte{}, result: 0x00},
	}
	for _, test := range tests {
		res := Checksum8(test.bytes)
		if res != test.result {
			t.Errorf("Checksum8(%#v)!=0x%02x received 0x%02x", test.bytes, test.result, res)
		}
	}
}

func TestSensirionCRC8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte{0xbe, 0xef}, result: 0x92},
		{bytes: []byte{0x01, 0xa4}, result: 0x4d},
		{bytes: []byte{0xab, 0xcd}, result: 0x6f},
	}
	for _, test := range tests {
		res := SensirionCRC8(test.bytes)
		if res != test.result {
			t.Errorf("SensirionCRC8(%#v)!=0x%02x received 0x%02x", test.bytes, test.result, res)
		}
	}
}

func TestCRC8Incremental(t *testing.T) {
	var c CRC8
	if c.Value() != 0 {
		t.Fatalf("zero value remainder 0x%02x", c.Value())
	}
	c.Add(0x4e)
	c.Add(0x85)
	var all CRC8
	all.AddAll([]byte{0x4e, 0x85})
	if c.Value() != all.Value() {
		t.Errorf("Add sequence 0x%02x != AddAll 0x%02x", c.Value(), all.Value())
	}
	// Feeding the checksum itself reduces a valid message to zero.
	c.Add(0x6b)
	if c.Value() != 0 {
		t.Errorf("valid message remainder 0x%02x, expected 0", c.Value())
	}
}

// checkFrame returns true when a [hi, lo, crc] frame reduces to 0.
func checkFrame(frame [3]byte) bool {
	var c CRC8
	c.AddAll(frame[:])
	return c.Value() == 0
}

func TestCRC8DetectsSingleBitErrors(t *testing.T) {
	for word := 0; word < 0x10000; word += 0x0101 {
		frame := [3]byte{byte(word >> 8), byte(word), 0}
		frame[2] = Checksum8(frame[:2])
		if !checkFrame(frame) {
			t.Fatalf("frame %#v did not validate", frame)
		}
		for bit := range 24 {
			corrupt := frame
			corrupt[bit/8] ^= 1 << (bit % 8)
			if checkFrame(corrupt) {
				t.Errorf("frame %#v with bit %d flipped validated", frame, bit)
			}
		}
	}
}

func FuzzCRC8SingleBitFlip(f *testing.F) {
	f.Add(byte(0x4e), byte(0x85), uint8(0))
	f.Add(byte(0x68), byte(0x3a), uint8(23))
	f.Add(byte(0x00), byte(0x00), uint8(7))
	f.Fuzz(func(t *testing.T, hi, lo byte, bit uint8) {
		frame := [3]byte{hi, lo, 0}
		frame[2] = Checksum8(frame[:2])
		if !checkFrame(frame) {
			t.Fatalf("frame %#v did not validate", frame)
		}
		bit %= 24
		frame[bit/8] ^= 1 << (bit % 8)
		if checkFrame(frame) {
			t.Errorf("bit %d flip not detected in %#v", bit, frame)
		}
	})
}
