// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bzero defines helper functions to zero passphrases and key
// material after use.
package bzero

// Bytes sets all entries in the given byte slice buffer to zero.
func Bytes(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Key64 zeroes a 64-byte private key (Ed25519).
func Key64(key *[64]byte) {
	if key != nil {
		Bytes(key[:])
	}
}
