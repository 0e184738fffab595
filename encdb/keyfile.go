// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encdb

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"

	"github.com/pewpi-infinity/portal/cipher"
	"github.com/pewpi-infinity/portal/encode"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util/bzero"
)

/*
Format of keyfile:

  8 bytes   number of PBKDF2 iterations (little-endian)
  32 bytes  PBKDF2 salt
  12 bytes  GCM nonce
  32 bytes  AES-256-GCM sealed database key
  16 bytes  GCM tag
*/

const keySize = 32

// keyfileSize is the exact size of a well-formed key file.
const keyfileSize = 8 + cipher.SaltSize + 12 + keySize + 16

func writeKeyfile(filename string, passphrase []byte, iter int, key []byte) error {
	if len(key) != keySize {
		return log.Errorf("encdb: writeKeyfile: len(key) != %d", keySize)
	}
	salt, err := cipher.NewSalt(cipher.RandReader)
	if err != nil {
		return err
	}
	dk, err := cipher.DeriveKey(passphrase, salt, iter)
	if err != nil {
		return err
	}
	defer bzero.Bytes(dk)
	sealed, err := cipher.AES256GCMSeal(dk, key, cipher.RandReader)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Write(encode.ToByte8(uint64(iter)))
	buf.Write(salt)
	buf.Write(sealed)
	// O_EXCL: never overwrite an existing key file
	fp, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return log.Error(err)
	}
	if _, err := fp.Write(buf.Bytes()); err != nil {
		fp.Close()
		return log.Error(err)
	}
	if err := fp.Close(); err != nil {
		return log.Error(err)
	}
	return nil
}

// generateKeyfile writes a key file protecting a fresh random database key
// and returns that key.
func generateKeyfile(filename string, passphrase []byte, iter int) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(cipher.RandReader, key); err != nil {
		return nil, log.Error(err)
	}
	if err := writeKeyfile(filename, passphrase, iter, key); err != nil {
		return nil, err
	}
	return key, nil
}

// readKeyfile returns the database key stored in filename.
func readKeyfile(filename string, passphrase []byte) ([]byte, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, log.Error(err)
	}
	if len(data) != keyfileSize {
		return nil, log.Errorf("encdb: keyfile '%s' has invalid size %d", filename, len(data))
	}
	uiter := encode.ToUint64(data[:8])
	if uiter > cipher.MaxIter {
		return nil, log.Error("encdb: readKeyfile: invalid iter value")
	}
	salt := data[8 : 8+cipher.SaltSize]
	dk, err := cipher.DeriveKey(passphrase, salt, int(uiter))
	if err != nil {
		return nil, err
	}
	defer bzero.Bytes(dk)
	key, err := cipher.AES256GCMOpen(dk, data[8+cipher.SaltSize:])
	if err != nil {
		return nil, log.Error(ErrWrongPassphrase)
	}
	return key, nil
}

func replaceKeyfile(filename string, oldPassphrase, newPassphrase []byte, newIter int) error {
	key, err := readKeyfile(filename, oldPassphrase)
	if err != nil {
		return err
	}
	defer bzero.Bytes(key)
	tmpfile := filename + ".new"
	os.Remove(tmpfile) // ignore error
	if err := writeKeyfile(tmpfile, newPassphrase, newIter, key); err != nil {
		return err
	}
	if err := os.Rename(tmpfile, filename); err != nil {
		return log.Error(err)
	}
	return nil
}
