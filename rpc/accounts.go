// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpc

import (
	"sync"

	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/wallet"
)

// Accounts opens wallets and play chains of a shared store on first use and
// caches them, so that concurrent requests for one account share one lock.
type Accounts struct {
	store   kvstore.Store
	mu      sync.Mutex
	wallets map[string]*wallet.Ledger
	chains  map[string]*playchain.Chain
}

// NewAccounts returns an empty account cache for store.
func NewAccounts(store kvstore.Store) *Accounts {
	return &Accounts{
		store:   store,
		wallets: make(map[string]*wallet.Ledger),
		chains:  make(map[string]*playchain.Chain),
	}
}

func normAccount(account string) string {
	if account == "" {
		return def.DefaultAccount
	}
	return account
}

// Wallet returns the wallet of account.
func (a *Accounts) Wallet(account string) (*wallet.Ledger, error) {
	account = normAccount(account)
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.wallets[account]; ok {
		return w, nil
	}
	w, err := wallet.Open(a.store, account)
	if err != nil {
		return nil, err
	}
	a.wallets[account] = w
	return w, nil
}

// Chain returns the play chain of account.
func (a *Accounts) Chain(account string) (*playchain.Chain, error) {
	account = normAccount(account)
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.chains[account]; ok {
		return c, nil
	}
	c, err := playchain.Open(a.store, account)
	if err != nil {
		return nil, err
	}
	a.chains[account] = c
	return c, nil
}
