// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kvstore defines the key-value persistence collaborator of the
// ledger. Values are serialized JSON documents, keys are plain strings like
// "wallet/default".
package kvstore

import (
	"fmt"
	"strings"

	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/log"
)

// Store is implemented by all persistence backends.
type Store interface {
	// Get returns the value stored under key. An unknown key results in
	// (nil, nil).
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an unknown key is not an error.
	Delete(key string) error
}

// PersistenceError reports a failed read or write of the persistence
// collaborator. Ledger state in memory is unchanged when it is returned.
type PersistenceError struct {
	Op  string // "get", "set", "decode" or "encode"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("kvstore: %s %q: %s", e.Op, e.Key, e.Err)
}

// Fail wraps err in a *PersistenceError and logs it.
func Fail(op, key string, err error) error {
	return log.Error(&PersistenceError{Op: op, Key: key, Err: err})
}

// IsPersistenceFailure reports whether err is a *PersistenceError.
func IsPersistenceFailure(err error) bool {
	_, ok := err.(*PersistenceError)
	return ok
}

// CheckKey returns an error if key cannot be stored.
func CheckKey(key string) error {
	if key == "" {
		return log.Error("kvstore: key must be defined")
	}
	return nil
}

// WalletKey returns the key of the wallet document of account.
func WalletKey(account string) string {
	return def.WalletKeyPrefix + account
}

// PlayChainKey returns the key of the play chain document of account.
func PlayChainKey(account string) string {
	return def.PlayChainKeyPrefix + account
}

// AccountFromKey splits key into its prefix and account.
func AccountFromKey(key string) (prefix, account string, ok bool) {
	for _, p := range []string{def.WalletKeyPrefix, def.PlayChainKeyPrefix} {
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return p, key[len(p):], true
		}
	}
	return "", "", false
}
