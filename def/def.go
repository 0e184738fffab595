// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package def defines all default values used by the portal tools.
package def

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/agl/ed25519"
	"github.com/pewpi-infinity/portal/def/version"
	"github.com/pewpi-infinity/portal/log"
)

// Version is the version string reported by all binaries.
const Version = version.Number

const (
	// DefaultAccount is the account used by callers that do not know about
	// accounts (the browser widgets had exactly one wallet per origin).
	DefaultAccount = "default"

	// WalletKeyPrefix is the store key prefix of wallet documents.
	WalletKeyPrefix = "wallet/"

	// PlayChainKeyPrefix is the store key prefix of play chain documents.
	PlayChainKeyPrefix = "playchain/"

	// WalletSignKey is the store key of the Ed25519 private key used to sign
	// capsules, hex encoded.
	WalletSignKey = "WalletSignKey"

	// KDFIterationsDB is the default number of PBKDF2 iterations used to
	// protect the key file of the encrypted ledger database.
	KDFIterationsDB = 64000

	// KDFIterationsCapsule is the default number of PBKDF2 iterations used to
	// derive the capsule encryption key.
	KDFIterationsCapsule = 100000

	// DBName is the file name prefix of the encrypted ledger database in the
	// home directory.
	DBName = "ledger"

	// StoreDir is the directory below the home directory used by the file
	// store.
	StoreDir = "store"

	// RPCListen is the default listen address of portald.
	RPCListen = "127.0.0.1:3000"

	// RPCPath is the HTTP path of the JSON-RPC service.
	RPCPath = "/rpc"

	// HistoryLimit is the default number of transactions shown.
	HistoryLimit = 20

	// TailLimit is the default number of chain entries shown.
	TailLimit = 10
)

// SQLConnectMaxDuration is the maximum time NewFromURL keeps retrying to
// reach a MySQL server.
var SQLConnectMaxDuration = 30 * time.Second

// Categories lists the token categories the portal widgets know about.
// Categories are free-form: a category not in this list is still valid.
var Categories = []string{"infinity", "research", "art", "music"}

// HomeDir returns the default home directory, which can be overwritten with
// the environment variable PORTALHOME.
func HomeDir() string {
	if home := os.Getenv("PORTALHOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".portal"
	}
	return filepath.Join(home, ".portal")
}

// LogDir returns the default log directory below homedir.
func LogDir(homedir string) string {
	return filepath.Join(homedir, "log")
}

// DecodeED25519PrivKey decodes a hex encoded Ed25519 private key.
func DecodeED25519PrivKey(p string) (*[ed25519.PrivateKeySize]byte, error) {
	pd, err := hex.DecodeString(p)
	if err != nil {
		return nil, log.Error(err)
	}
	if len(pd) != ed25519.PrivateKeySize {
		return nil, log.Errorf("def: private key has length %d (want %d)",
			len(pd), ed25519.PrivateKeySize)
	}
	ret := new([ed25519.PrivateKeySize]byte)
	copy(ret[:], pd)
	return ret, nil
}
