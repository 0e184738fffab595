// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wallet implements the token ledger of an account: balances per
// token category and the append-only transaction history.
//
// Every mutation is applied to a copy of the state and only committed after
// the copy was saved to the kvstore.Store, so a failing store leaves the
// in-memory ledger at the last persisted value.
package wallet

import (
	"encoding/json"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util/times"
)

// Ledger is the wallet of a single account.
type Ledger struct {
	store   kvstore.Store
	account string
	key     string

	mu    sync.Mutex // guards state
	state State

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Open loads the wallet of account from store. An unknown account starts
// with zero balances and is persisted on its first mutation. An empty account
// selects def.DefaultAccount.
func Open(store kvstore.Store, account string) (*Ledger, error) {
	if account == "" {
		account = def.DefaultAccount
	}
	l := &Ledger{
		store:     store,
		account:   account,
		key:       kvstore.WalletKey(account),
		observers: make(map[int]func(Event)),
	}
	state, err := Load(store, account)
	if err != nil {
		return nil, err
	}
	l.state = state
	return l, nil
}

// Load reads the persisted state of account from store without opening a
// Ledger. Missing data yields an empty state, malformed data a
// *kvstore.PersistenceError.
func Load(store kvstore.Store, account string) (State, error) {
	key := kvstore.WalletKey(account)
	data, err := store.Get(key)
	if err != nil {
		return State{}, kvstore.Fail("get", key, err)
	}
	if data == nil {
		return newState(account), nil
	}
	state := newState(account)
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, kvstore.Fail("decode", key, err)
	}
	if state.Balances == nil {
		state.Balances = make(map[string]int64)
	}
	if state.Account != account {
		return State{}, kvstore.Fail("decode", key,
			log.Errorf("wallet: document belongs to account %q", state.Account))
	}
	for category, balance := range state.Balances {
		if balance < 0 {
			return State{}, kvstore.Fail("decode", key,
				log.Errorf("wallet: negative balance %d in category %q", balance, category))
		}
	}
	return state, nil
}

// Put writes state to store. It is used to restore backups.
func Put(store kvstore.Store, state State) error {
	key := kvstore.WalletKey(state.Account)
	data, err := json.Marshal(state)
	if err != nil {
		return kvstore.Fail("encode", key, err)
	}
	if err := store.Set(key, data); err != nil {
		return kvstore.Fail("set", key, err)
	}
	return nil
}

// Account returns the account of the ledger.
func (l *Ledger) Account() string {
	return l.account
}

// commit saves next and makes it the current state. l.mu must be held.
func (l *Ledger) commit(next State) error {
	if err := Put(l.store, next); err != nil {
		return err
	}
	l.state = next
	return nil
}

// mutate adds delta to the balance of category and records the transaction.
func (l *Ledger) mutate(category string, delta int64, source, description string) (int64, error) {
	category, err := NormalizeCategory(category)
	if err != nil {
		return 0, log.Warn(err)
	}
	l.mu.Lock()
	old := l.state.Balances[category]
	if delta > 0 && old > math.MaxInt64-delta {
		l.mu.Unlock()
		return 0, log.Warn(ErrInvalidAmount)
	}
	balance := old + delta
	if balance < 0 {
		l.mu.Unlock()
		log.Warnf("wallet: %s: spend %d %s: %s", l.account, -delta, category, ErrInsufficientFunds)
		return 0, ErrInsufficientFunds
	}
	next := l.state.clone()
	next.Balances[category] = balance
	next.History = append(next.History, Transaction{
		ID:          uuid.New().String(),
		Account:     l.account,
		Category:    category,
		Amount:      delta,
		Source:      source,
		Description: description,
		Timestamp:   times.NowMilli(),
	})
	err = l.commit(next)
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}
	log.Debugf("wallet: %s: %+d %s -> %d (%s)", l.account, delta, category, balance, source)
	l.notify(Event{Account: l.account, Category: category, Balance: balance})
	return balance, nil
}

// Earn adds amount tokens to category and returns the new balance.
func (l *Ledger) Earn(category string, amount int64, source, description string) (int64, error) {
	if amount <= 0 {
		return 0, log.Warn(ErrInvalidAmount)
	}
	return l.mutate(category, amount, source, description)
}

// Spend removes amount tokens from category and returns the new balance.
// If the balance is too small ErrInsufficientFunds is returned and nothing
// changes.
func (l *Ledger) Spend(category string, amount int64, source, description string) (int64, error) {
	if amount <= 0 {
		return 0, log.Warn(ErrInvalidAmount)
	}
	return l.mutate(category, -amount, source, description)
}

// Balance returns the balance of category, zero for unknown categories.
func (l *Ledger) Balance(category string) int64 {
	category, err := NormalizeCategory(category)
	if err != nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balances[category]
}

// AllBalances returns a copy of the balances of all known categories.
func (l *Ledger) AllBalances() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	balances := make(map[string]int64, len(l.state.Balances))
	for k, v := range l.state.Balances {
		balances[k] = v
	}
	return balances
}

// Categories returns the sorted names of all known categories.
func (l *Ledger) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	categories := make([]string, 0, len(l.state.Balances))
	for k := range l.state.Balances {
		categories = append(categories, k)
	}
	sort.Strings(categories)
	return categories
}

// All passed as limit to History returns the complete history.
const All = -1

// History returns at most limit of the most recent transactions, newest
// first. A limit of 0 returns none, a negative limit (All) returns the
// complete history.
func (l *Ledger) History(limit int) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.state.History)
	if limit < 0 || limit > n {
		limit = n
	}
	history := make([]Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		history = append(history, l.state.History[i])
	}
	return history
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state.History)
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Reload replaces the in-memory state with the persisted one.
func (l *Ledger) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := Load(l.store, l.account)
	if err != nil {
		return err
	}
	l.state = state
	return nil
}

// Clear drops all balances and the history of the account and persists the
// empty wallet.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	err := l.commit(newState(l.account))
	l.mu.Unlock()
	if err != nil {
		return err
	}
	log.Infof("wallet: %s: cleared", l.account)
	return nil
}

// Subscribe registers observer for all successful mutations. Observers are
// called synchronously, after the ledger lock was released. The returned
// function removes the observer again.
func (l *Ledger) Subscribe(observer func(Event)) (cancel func()) {
	l.obsMu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = observer
	l.obsMu.Unlock()
	return func() {
		l.obsMu.Lock()
		delete(l.observers, id)
		l.obsMu.Unlock()
	}
}

func (l *Ledger) notify(ev Event) {
	l.obsMu.Lock()
	ids := make([]int, 0, len(l.observers))
	for id := range l.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		observers = append(observers, l.observers[id])
	}
	l.obsMu.Unlock()
	for _, observer := range observers {
		observer(ev)
	}
}
