// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"encoding/hex"
	"fmt"

	"github.com/agl/ed25519"
	"github.com/pewpi-infinity/portal/cipher"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/encdb"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/kvstore/backend"
	"github.com/pewpi-infinity/portal/kvstore/sqlstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util/bzero"
	"github.com/urfave/cli"
)

func (ce *CtrlEngine) requireEncDB(c *cli.Context) error {
	if c.GlobalString("store") != backend.EncDB {
		return log.Errorf("ctrlengine: command requires --store %s", backend.EncDB)
	}
	return nil
}

// dbCreate creates a new encrypted ledger database and generates the
// wallet signing key in it.
func (ce *CtrlEngine) dbCreate(c *cli.Context) error {
	if err := ce.requireEncDB(c); err != nil {
		return err
	}
	passphrase, err := ce.readNewPassphrase(c, "new passphrase")
	if err != nil {
		return err
	}
	defer bzero.Bytes(passphrase)
	name := backend.DBName(c.GlobalString("homedir"))
	log.Infof("create encrypted DB %s", name)
	err = encdb.Create(name, passphrase, c.Int("iterations"),
		[]string{sqlstore.CreateQuery})
	if err != nil {
		return err
	}
	db, err := encdb.Open(name, passphrase)
	if err != nil {
		return err
	}
	s, err := sqlstore.NewFromDB(db)
	if err != nil {
		db.Close()
		return err
	}
	defer s.Close()
	pubKey, err := createSignKey(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(ce.status, "database %s created\n", name+encdb.DBSuffix)
	fmt.Fprintf(ce.out, "%s\n", pubKey)
	return nil
}

// createSignKey generates a new Ed25519 key pair, stores the private key
// under def.WalletSignKey and returns the hex encoded public key.
func createSignKey(s kvstore.Store) (string, error) {
	pubKey, privKey, err := ed25519.GenerateKey(cipher.RandReader)
	if err != nil {
		return "", log.Error(err)
	}
	defer bzero.Key64(privKey)
	err = s.Set(def.WalletSignKey, []byte(hex.EncodeToString(privKey[:])))
	if err != nil {
		return "", err
	}
	log.Info("wallet signing key created")
	return hex.EncodeToString(pubKey[:]), nil
}

func (ce *CtrlEngine) dbRekey(c *cli.Context) error {
	if err := ce.requireEncDB(c); err != nil {
		return err
	}
	oldPassphrase, err := ce.readPassphrase(c, "old passphrase")
	if err != nil {
		return err
	}
	defer bzero.Bytes(oldPassphrase)
	newPassphrase, err := ce.readNewPassphrase(c, "new passphrase")
	if err != nil {
		return err
	}
	defer bzero.Bytes(newPassphrase)
	// the database must not be open during rekeying
	ce.Close()
	name := backend.DBName(c.GlobalString("homedir"))
	err = encdb.Rekey(name, oldPassphrase, newPassphrase, c.Int("iterations"))
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.status, "database rekeyed")
	return nil
}

func (ce *CtrlEngine) dbStatus(c *cli.Context) error {
	if err := ce.requireEncDB(c); err != nil {
		return err
	}
	if err := ce.openStore(c); err != nil {
		return err
	}
	mode, freelist, err := encdb.Status(ce.store.SQL.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(ce.out, "auto_vacuum=%s\n", mode)
	fmt.Fprintf(ce.out, "freelist_count=%d\n", freelist)
	return nil
}

func (ce *CtrlEngine) dbVacuum(c *cli.Context) error {
	if err := ce.requireEncDB(c); err != nil {
		return err
	}
	if err := ce.openStore(c); err != nil {
		return err
	}
	if err := encdb.Vacuum(ce.store.SQL.DB, c.String("auto-vacuum")); err != nil {
		return err
	}
	fmt.Fprintln(ce.status, "database vacuumed")
	return nil
}
