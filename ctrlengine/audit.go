// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"fmt"

	"github.com/pewpi-infinity/portal/audit"
	"github.com/pewpi-infinity/portal/log"
	"github.com/urfave/cli"
)

func (ce *CtrlEngine) audit(c *cli.Context) error {
	w, err := ce.openWallet(c, "")
	if err != nil {
		return err
	}
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	report := audit.Run(w, pc)
	fmt.Fprintln(ce.out, report.String())
	if report.OK() {
		return nil
	}
	fmt.Fprint(ce.out, report.Diff())
	return log.Errorf("ctrlengine: audit of %s failed", w.Account())
}
