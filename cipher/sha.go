// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cipher collects the cryptographic primitives used by the portal:
// hashing for the play chain, AES-256 for key files and capsules.
package cipher

import (
	"crypto/sha256"
)

// SHA256 computes the SHA256 hash of the given buffer.
// SHA256 is used for play chain digests and as the PBKDF2 hash.
func SHA256(buffer []byte) []byte {
	hash := sha256.New()
	hash.Write(buffer)
	return hash.Sum(make([]byte, 0, sha256.Size))
}
