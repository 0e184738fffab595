// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Transaction is a single entry of the append-only transaction history.
// Earnings have a positive Amount, spendings a negative one.
type Transaction struct {
	ID          string `json:"id"`
	Account     string `json:"account"`
	Category    string `json:"tokenCategory"`
	Amount      int64  `json:"amount"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"` // Unix time in milliseconds
}

// State is the persisted form of a wallet.
type State struct {
	Account  string           `json:"account"`
	Balances map[string]int64 `json:"balances"`
	History  []Transaction    `json:"history"` // oldest first
}

// Event is passed to observers after every successful mutation.
type Event struct {
	Account  string
	Category string
	Balance  int64
}

func newState(account string) State {
	return State{
		Account:  account,
		Balances: make(map[string]int64),
	}
}

func (s State) clone() State {
	c := State{
		Account:  s.Account,
		Balances: make(map[string]int64, len(s.Balances)),
		History:  make([]Transaction, len(s.History), len(s.History)+1),
	}
	for k, v := range s.Balances {
		c.Balances[k] = v
	}
	copy(c.History, s.History)
	return c
}

// NormalizeCategory trims surrounding white space and converts category to
// Unicode NFC, so that visually identical names share one balance.
func NormalizeCategory(category string) (string, error) {
	c := norm.NFC.String(strings.TrimSpace(category))
	if c == "" {
		return "", ErrInvalidCategory
	}
	return c, nil
}
