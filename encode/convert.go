// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encode implements the fixed-width integer encodings used in key
// files and play chain digests (little-endian, as written by earlier
// versions).
package encode

// ToUint64 converts the byte slice b of length 8 to an uint64.
// If b does not have length 8 the function panics.
func ToUint64(b []byte) (u uint64) {
	if len(b) != 8 {
		panic("encode: ToUint64(): len(b) != 8")
	}
	for i := 7; i >= 0; i-- {
		u = u<<8 | uint64(b[i])
	}
	return
}

// ToByte8 converts the uint64 u to a byte slice of length 8.
func ToByte8(u uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(u >> (8 * uint(i)))
	}
	return b
}

// LengthPrefixed returns b prefixed by its length as ToByte8 encoding.
// Concatenating length-prefixed fields keeps the encoding unambiguous:
// ("ab", "c") and ("a", "bc") encode differently.
func LengthPrefixed(b []byte) []byte {
	out := make([]byte, 0, 8+len(b))
	out = append(out, ToByte8(uint64(len(b)))...)
	return append(out, b...)
}
