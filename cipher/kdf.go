// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"crypto/sha256"
	"io"

	"github.com/pewpi-infinity/portal/log"
	"golang.org/x/crypto/pbkdf2"
)

// SaltSize is the size of PBKDF2 salts in bytes.
const SaltSize = 32

// MaxIter is the largest accepted number of PBKDF2 iterations.
const MaxIter = 2147483647

// DeriveKey derives a 32 byte AES-256 key from passphrase and salt with iter
// many iterations of PBKDF2-SHA256.
func DeriveKey(passphrase, salt []byte, iter int) ([]byte, error) {
	if iter <= 0 || iter > MaxIter {
		return nil, log.Errorf("cipher: invalid PBKDF2 iterations: %d", iter)
	}
	return pbkdf2.Key(passphrase, salt, iter, 32, sha256.New), nil
}

// NewSalt returns a fresh random salt read from rand.
func NewSalt(rand io.Reader) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand, salt); err != nil {
		return nil, log.Error(err)
	}
	return salt, nil
}
