// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"fmt"
	"io/ioutil"

	"github.com/pewpi-infinity/portal/capsule"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/bzero"
	"github.com/pewpi-infinity/portal/util/times"
	"github.com/urfave/cli"
)

func capsuleFile(c *cli.Context) (string, error) {
	filename := c.String("file")
	if filename == "" {
		return "", log.Error("ctrlengine: option --file is mandatory")
	}
	return filename, nil
}

func (ce *CtrlEngine) capsuleExport(c *cli.Context) error {
	filename, err := capsuleFile(c)
	if err != nil {
		return err
	}
	exists, err := util.Exists(filename)
	if err != nil {
		return err
	}
	if exists {
		return log.Errorf("ctrlengine: file '%s' exists already", filename)
	}
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	signKey, err := ce.signKey(c)
	if err != nil {
		return err
	}
	defer bzero.Key64(signKey)
	passphrase, err := ce.readNewPassphrase(c, "capsule passphrase")
	if err != nil {
		return err
	}
	defer bzero.Bytes(passphrase)
	data, err := capsule.Export(w, pc, signKey, passphrase, c.Int("iterations"))
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(filename, data, 0600); err != nil {
		return log.Error(err)
	}
	fmt.Fprintf(ce.status, "capsule of %s written to %s\n", w.Account(), filename)
	return nil
}

func (ce *CtrlEngine) capsuleImport(c *cli.Context) error {
	filename, err := capsuleFile(c)
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return log.Error(err)
	}
	passphrase, err := ce.readPassphrase(c, "capsule passphrase")
	if err != nil {
		return err
	}
	defer bzero.Bytes(passphrase)
	cp, err := capsule.Open(data, passphrase)
	if err != nil {
		return err
	}
	content := &cp.CONTENT
	writeTable(ce.out, [][]string{
		{"account", content.ACCOUNT},
		{"created", times.Format(content.CREATED)},
		{"signer", content.SIGKEY},
		{"transactions", fmt.Sprint(len(content.WALLET.History))},
		{"chain entries", fmt.Sprint(len(content.CHAIN))},
	})
	if !c.Bool("restore") {
		return nil
	}
	if err := ce.openStore(c); err != nil {
		return err
	}
	if err := capsule.Restore(cp, ce.store); err != nil {
		return err
	}
	fmt.Fprintf(ce.status, "account %s restored\n", content.ACCOUNT)
	return nil
}
