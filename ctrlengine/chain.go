// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/util/times"
	"github.com/urfave/cli"
)

func shortHash(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

func (ce *CtrlEngine) chainAppend(c *cli.Context) error {
	if len(c.Args()) == 0 {
		return log.Error("usage: chain append json")
	}
	// the interactive shell splits the payload at white space
	payload := json.RawMessage(strings.Join(c.Args(), " "))
	if !json.Valid(payload) {
		return log.Errorf("ctrlengine: payload is not valid JSON: %s", payload)
	}
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	entry, err := pc.Append(payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(ce.out, entry.Hash)
	return nil
}

func (ce *CtrlEngine) chainVerify(c *cli.Context) error {
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	if idx, ok := pc.Verify(); !ok {
		return log.Errorf("ctrlengine: play chain of %s broken at entry %d",
			pc.Account(), idx)
	}
	fmt.Fprintf(ce.out, "play chain of %s intact (%d entries)\n",
		pc.Account(), pc.Len())
	return nil
}

func (ce *CtrlEngine) chainTail(c *cli.Context) error {
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	n := c.Int("n")
	if n == 0 {
		n = playchain.All
	}
	rows := [][]string{{"TIME", "HASH", "PAYLOAD"}}
	for _, entry := range pc.Tail(n) {
		rows = append(rows, []string{
			times.Format(entry.Timestamp),
			shortHash(entry.Hash),
			string(entry.Payload),
		})
	}
	writeTable(ce.out, rows)
	return nil
}

func (ce *CtrlEngine) chainClear(c *cli.Context) error {
	if err := ce.confirm(c, "clearing the play chain"); err != nil {
		return err
	}
	pc, err := ce.openChain(c)
	if err != nil {
		return err
	}
	if err := pc.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(ce.status, "play chain of %s cleared\n", pc.Account())
	return nil
}
