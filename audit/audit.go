// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package audit checks the integrity of an account: the stored balances
// against a replay of the transaction history, and the play chain.
package audit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/wallet"
	"github.com/pmezard/go-difflib/difflib"
)

// Drift describes a category whose stored balance differs from the replayed
// transaction history.
type Drift struct {
	Category string
	Stored   int64
	Replayed int64
}

// Report is the result of an audit.
type Report struct {
	Account      string
	Transactions int
	ChainEntries int
	Drift        []Drift
	// NegativeAt is the index (oldest first) of the first transaction after
	// which a replayed balance was negative, -1 if there is none.
	NegativeAt int
	// ChainBrokenAt is the index of the first broken chain entry, -1 if the
	// chain is intact.
	ChainBrokenAt int

	stored   map[string]int64
	replayed map[string]int64
}

// Run audits the wallet w and the play chain c.
func Run(w *wallet.Ledger, c *playchain.Chain) Report {
	r := State(w.Snapshot(), c.Tail(playchain.All))
	if !r.OK() {
		log.Warnf("audit: %s: %s", r.Account, r.String())
	}
	return r
}

// State audits a wallet state and chain entries, for example those of a
// capsule.
func State(state wallet.State, entries []playchain.Entry) Report {
	r := Report{
		Account:       state.Account,
		Transactions:  len(state.History),
		ChainEntries:  len(entries),
		NegativeAt:    -1,
		ChainBrokenAt: -1,
		stored:        make(map[string]int64),
		replayed:      make(map[string]int64),
	}
	for category, balance := range state.Balances {
		r.stored[category] = balance
	}
	for i, tx := range state.History {
		r.replayed[tx.Category] += tx.Amount
		if r.replayed[tx.Category] < 0 && r.NegativeAt < 0 {
			r.NegativeAt = i
		}
	}
	for _, category := range categories(r.stored, r.replayed) {
		if r.stored[category] != r.replayed[category] {
			r.Drift = append(r.Drift, Drift{
				Category: category,
				Stored:   r.stored[category],
				Replayed: r.replayed[category],
			})
		}
	}
	if idx, ok := playchain.VerifyEntries(entries, nil); !ok {
		r.ChainBrokenAt = idx
	}
	return r
}

func categories(maps ...map[string]int64) []string {
	seen := make(map[string]bool)
	var list []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				list = append(list, k)
			}
		}
	}
	sort.Strings(list)
	return list
}

// OK reports whether the audit found no problem.
func (r *Report) OK() bool {
	return len(r.Drift) == 0 && r.NegativeAt < 0 && r.ChainBrokenAt < 0
}

func render(m map[string]int64, keys []string) string {
	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %d\n", k, m[k])
	}
	return buf.String()
}

// Diff renders the stored balances against the replayed ones as a unified
// diff. It is empty if there is no drift.
func (r *Report) Diff() string {
	if len(r.Drift) == 0 {
		return ""
	}
	keys := categories(r.stored, r.replayed)
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(render(r.stored, keys)),
		B:        difflib.SplitLines(render(r.replayed, keys)),
		FromFile: "stored",
		ToFile:   "replayed",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return log.Error(err).Error()
	}
	return text
}

// String summarizes the report in one line.
func (r *Report) String() string {
	if r.OK() {
		return fmt.Sprintf("ok: %d transactions, %d chain entries",
			r.Transactions, r.ChainEntries)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "FAILED:")
	if len(r.Drift) > 0 {
		fmt.Fprintf(&buf, " %d categories drifted", len(r.Drift))
	}
	if r.NegativeAt >= 0 {
		fmt.Fprintf(&buf, " negative balance after transaction %d", r.NegativeAt)
	}
	if r.ChainBrokenAt >= 0 {
		fmt.Fprintf(&buf, " chain broken at entry %d", r.ChainBrokenAt)
	}
	return buf.String()
}
