// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/pewpi-infinity/portal/log"
)

// AES256GCMSeal encrypts and authenticates plaintext with AES-256 in GCM mode.
// The returned ciphertext is prepended by a randomly generated nonce.
func AES256GCMSeal(key, plaintext []byte, rand io.Reader) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand, nonce); err != nil {
		return nil, log.Error(err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// AES256GCMOpen decrypts and authenticates a ciphertext created by
// AES256GCMSeal.
func AES256GCMOpen(key, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize()+aead.Overhead() {
		return nil, log.Error("cipher: GCM ciphertext too short")
	}
	nonce := ciphertext[:aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, ciphertext[aead.NonceSize():], nil)
	if err != nil {
		return nil, log.Error(err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, log.Error("cipher: AES-256 key is not 32 bytes long")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, log.Error(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, log.Error(err)
	}
	return aead, nil
}
