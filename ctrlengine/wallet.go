// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util/times"
	"github.com/pewpi-infinity/portal/wallet"
	"github.com/urfave/cli"
)

func parseAmount(s string) (int64, error) {
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, log.Errorf("ctrlengine: cannot parse amount '%s'", s)
	}
	return amount, nil
}

func (ce *CtrlEngine) walletEarn(c *cli.Context) error {
	if err := nArgs(c, 2, "wallet earn category amount"); err != nil {
		return err
	}
	amount, err := parseAmount(c.Args().Get(1))
	if err != nil {
		return err
	}
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	balance, err := w.Earn(c.Args().Get(0), amount, c.String("source"),
		c.String("description"))
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.out, balance)
	return nil
}

func (ce *CtrlEngine) walletSpend(c *cli.Context) error {
	if err := nArgs(c, 2, "wallet spend category amount"); err != nil {
		return err
	}
	amount, err := parseAmount(c.Args().Get(1))
	if err != nil {
		return err
	}
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	balance, err := w.Spend(c.Args().Get(0), amount, c.String("source"),
		c.String("description"))
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.out, balance)
	return nil
}

func (ce *CtrlEngine) walletBalance(c *cli.Context) error {
	if err := nArgs(c, 1, "wallet balance category"); err != nil {
		return err
	}
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.out, w.Balance(c.Args().Get(0)))
	return nil
}

func (ce *CtrlEngine) walletBalances(c *cli.Context) error {
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	balances := w.AllBalances()
	rows := [][]string{{"CATEGORY", "BALANCE"}}
	for _, category := range w.Categories() {
		rows = append(rows, []string{category,
			strconv.FormatInt(balances[category], 10)})
	}
	writeTable(ce.out, rows)
	return nil
}

func (ce *CtrlEngine) walletHistory(c *cli.Context) error {
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	limit := c.Int("limit")
	if limit == 0 {
		limit = wallet.All
	}
	rows := [][]string{{"TIME", "CATEGORY", "AMOUNT", "SOURCE", "DESCRIPTION"}}
	for _, tx := range w.History(limit) {
		rows = append(rows, []string{
			times.Format(tx.Timestamp),
			tx.Category,
			fmt.Sprintf("%+d", tx.Amount),
			tx.Source,
			tx.Description,
		})
	}
	writeTable(ce.out, rows)
	return nil
}

func (ce *CtrlEngine) walletTransfer(c *cli.Context) error {
	if err := nArgs(c, 3, "wallet transfer to-account category amount"); err != nil {
		return err
	}
	amount, err := parseAmount(c.Args().Get(2))
	if err != nil {
		return err
	}
	from, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	to, err := ce.openWallet(c, c.Args().Get(0))
	if err != nil {
		return err
	}
	err = wallet.Transfer(from, to, c.Args().Get(1), amount,
		c.String("source"), c.String("description"))
	if err != nil {
		return err
	}
	category := c.Args().Get(1)
	fmt.Fprintf(ce.out, "%s: %d\n", from.Account(), from.Balance(category))
	fmt.Fprintf(ce.out, "%s: %d\n", to.Account(), to.Balance(category))
	return nil
}

func (ce *CtrlEngine) confirm(c *cli.Context, what string) error {
	if c.Bool("force") {
		return nil
	}
	return log.Errorf("ctrlengine: %s is irreversible, repeat with --force", what)
}

func (ce *CtrlEngine) walletClear(c *cli.Context) error {
	if err := ce.confirm(c, "clearing the wallet"); err != nil {
		return err
	}
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	if err := w.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(ce.status, "wallet of %s cleared\n", w.Account())
	return nil
}

func (ce *CtrlEngine) walletDump(c *cli.Context) error {
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	spew.Fdump(ce.out, w.Snapshot())
	return nil
}

// signKey returns the wallet signing key of the store.
func (ce *CtrlEngine) signKey(c *cli.Context) (*[64]byte, error) {
	if err := ce.openStore(c); err != nil {
		return nil, err
	}
	value, err := ce.store.Get(def.WalletSignKey)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, log.Error(ErrNoSignKey)
	}
	return def.DecodeED25519PrivKey(string(value))
}

func (ce *CtrlEngine) walletPubkey(c *cli.Context) error {
	if err := ce.openStore(c); err != nil {
		return err
	}
	if c.Bool("create") {
		value, err := ce.store.Get(def.WalletSignKey)
		if err != nil {
			return err
		}
		if value == nil {
			pubKey, err := createSignKey(ce.store)
			if err != nil {
				return err
			}
			fmt.Fprintln(ce.out, pubKey)
			return nil
		}
	}
	privKey, err := ce.signKey(c)
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.out, hex.EncodeToString(privKey[32:]))
	return nil
}
