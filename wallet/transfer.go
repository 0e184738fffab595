// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/pewpi-infinity/portal/log"
)

// RefundSource is the transaction source of a compensating earn recorded when
// a transfer could not be credited to its destination.
const RefundSource = "transfer-refund"

// Transfer moves amount tokens of category from one account to another by
// spending on from and earning on to. Transfers are not atomic across
// accounts: if the earn on to fails, the spend is compensated by an earn on
// from with source RefundSource and the error of the failed earn is
// returned.
func Transfer(from, to *Ledger, category string, amount int64, source, description string) error {
	if from.account == to.account {
		return log.Warn(ErrSameLedger)
	}
	if _, err := from.Spend(category, amount, source, description); err != nil {
		return err
	}
	desc := description
	if desc == "" {
		desc = fmt.Sprintf("transfer from %s", from.account)
	}
	if _, err := to.Earn(category, amount, source, desc); err != nil {
		refund := fmt.Sprintf("refund of transfer to %s", to.account)
		if _, rerr := from.Earn(category, amount, RefundSource, refund); rerr != nil {
			log.Criticalf("wallet: transfer %s -> %s: refund of %d %s failed: %s",
				from.account, to.account, amount, category, rerr)
		}
		return err
	}
	log.Infof("wallet: transfer %s -> %s: %d %s", from.account, to.account, amount, category)
	return nil
}
