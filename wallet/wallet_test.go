// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/kvstore/memstore"
	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T, store kvstore.Store, account string) *Ledger {
	l, err := Open(store, account)
	require.NoError(t, err)
	return l
}

func TestResearchScenario(t *testing.T) {
	l := openLedger(t, memstore.New(), "")
	assert.Equal(t, "default", l.Account())

	balance, err := l.Earn("research", 5, "paper-1", "published paper")
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)
	assert.Equal(t, int64(5), l.Balance("research"))

	_, err = l.Spend("research", 10, "shop", "too expensive")
	assert.Equal(t, ErrInsufficientFunds, err)
	assert.Equal(t, "insufficient funds", err.Error())
	assert.Equal(t, int64(5), l.Balance("research"))

	balance, err = l.Spend("research", 5, "shop", "bought access")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	history := l.History(All)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-5), history[0].Amount)
	assert.Equal(t, int64(5), history[1].Amount)
	assert.Equal(t, "paper-1", history[1].Source)
	assert.Equal(t, "published paper", history[1].Description)
	assert.Equal(t, "research", history[1].Category)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestInvalidInput(t *testing.T) {
	l := openLedger(t, memstore.New(), "alice")
	for _, amount := range []int64{0, -1, math.MinInt64} {
		_, err := l.Earn("art", amount, "", "")
		assert.Equal(t, ErrInvalidAmount, err)
		_, err = l.Spend("art", amount, "", "")
		assert.Equal(t, ErrInvalidAmount, err)
	}
	_, err := l.Earn("  ", 1, "", "")
	assert.Equal(t, ErrInvalidCategory, err)
	assert.Equal(t, 0, l.Len())

	_, err = l.Earn("art", math.MaxInt64, "", "")
	require.NoError(t, err)
	_, err = l.Earn("art", 1, "", "")
	assert.Equal(t, ErrInvalidAmount, err)
	assert.Equal(t, int64(math.MaxInt64), l.Balance("art"))
}

func TestBalanceNeverNegative(t *testing.T) {
	l := openLedger(t, memstore.New(), "random")
	r := rand.New(rand.NewSource(1))
	categories := []string{"infinity", "research", "art", "music"}
	for i := 0; i < 500; i++ {
		category := categories[r.Intn(len(categories))]
		amount := r.Int63n(20) + 1
		before := l.Balance(category)
		n := l.Len()
		if r.Intn(2) == 0 {
			_, err := l.Earn(category, amount, "test", "")
			require.NoError(t, err)
			continue
		}
		balance, err := l.Spend(category, amount, "test", "")
		if before < amount {
			assert.Equal(t, ErrInsufficientFunds, err)
			assert.Equal(t, before, l.Balance(category))
			assert.Equal(t, n, l.Len())
		} else {
			require.NoError(t, err)
			assert.Equal(t, before-amount, balance)
		}
		for _, c := range categories {
			assert.True(t, l.Balance(c) >= 0)
		}
	}
}

func TestHistory(t *testing.T) {
	l := openLedger(t, memstore.New(), "h")
	for i := int64(1); i <= 5; i++ {
		_, err := l.Earn("music", i, "play", "")
		require.NoError(t, err)
	}
	h := l.History(3)
	require.Len(t, h, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{h[0].Amount, h[1].Amount, h[2].Amount})
	assert.Equal(t, h, l.History(3), "history is a read-only view")
	h[0].Amount = 100
	assert.Equal(t, int64(5), l.History(1)[0].Amount)
	assert.Len(t, l.History(10), 5)
	assert.Len(t, l.History(All), 5)
	assert.Len(t, l.History(-7), 5)
	assert.Empty(t, l.History(0))
	assert.Equal(t, []string{"music"}, l.Categories())
}

func TestRoundTrip(t *testing.T) {
	store := memstore.New()
	l := openLedger(t, store, "bob")
	_, err := l.Earn("infinity", 7, "mine", "")
	require.NoError(t, err)
	_, err = l.Earn("art", 3, "gallery", "")
	require.NoError(t, err)
	_, err = l.Spend("infinity", 2, "shop", "")
	require.NoError(t, err)
	before := l.Snapshot()

	reopened := openLedger(t, store, "bob")
	assert.Equal(t, before, reopened.Snapshot())
	assert.Equal(t, l.AllBalances(), reopened.AllBalances())
	assert.Equal(t, l.History(All), reopened.History(All))

	// other accounts are independent
	other := openLedger(t, store, "carol")
	assert.Empty(t, other.AllBalances())
}

func TestNormalizeCategory(t *testing.T) {
	l := openLedger(t, memstore.New(), "n")
	// "é" precomposed and decomposed
	_, err := l.Earn("caf\u00e9", 1, "", "")
	require.NoError(t, err)
	_, err = l.Earn(" cafe\u0301 ", 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), l.Balance("caf\u00e9"))
	assert.Len(t, l.AllBalances(), 1)
}

func TestPersistenceFailure(t *testing.T) {
	store := storetest.NewFlaky(memstore.New())
	l := openLedger(t, store, "p")
	_, err := l.Earn("art", 10, "", "")
	require.NoError(t, err)
	writes := store.Writes()
	assert.True(t, writes > 0)

	store.FailWrites(true)
	_, err = l.Earn("art", 5, "", "")
	assert.True(t, kvstore.IsPersistenceFailure(err))
	_, err = l.Spend("art", 5, "", "")
	assert.True(t, kvstore.IsPersistenceFailure(err))
	assert.True(t, kvstore.IsPersistenceFailure(l.Clear()))
	assert.Equal(t, int64(10), l.Balance("art"))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, writes, store.Writes())

	store.FailWrites(false)
	require.NoError(t, l.Reload())
	assert.Equal(t, int64(10), l.Balance("art"))

	store.FailReads(true)
	_, err = Open(store, "p")
	assert.True(t, kvstore.IsPersistenceFailure(err))
}

func TestCorruptDocument(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Set(kvstore.WalletKey("x"), []byte("{not json")))
	_, err := Open(store, "x")
	assert.True(t, kvstore.IsPersistenceFailure(err))

	require.NoError(t, store.Set(kvstore.WalletKey("x"),
		[]byte(`{"account":"x","balances":{"art":-1},"history":[]}`)))
	_, err = Open(store, "x")
	assert.True(t, kvstore.IsPersistenceFailure(err))

	require.NoError(t, store.Set(kvstore.WalletKey("x"),
		[]byte(`{"account":"y","balances":{},"history":[]}`)))
	_, err = Open(store, "x")
	assert.True(t, kvstore.IsPersistenceFailure(err))
}

func TestClear(t *testing.T) {
	store := memstore.New()
	l := openLedger(t, store, "c")
	_, err := l.Earn("art", 10, "", "")
	require.NoError(t, err)
	require.NoError(t, l.Clear())
	assert.Empty(t, l.AllBalances())
	assert.Equal(t, 0, l.Len())
	reopened := openLedger(t, store, "c")
	assert.Equal(t, 0, reopened.Len())
}

func TestSubscribe(t *testing.T) {
	l := openLedger(t, memstore.New(), "obs")
	var events []Event
	cancel := l.Subscribe(func(ev Event) { events = append(events, ev) })
	_, err := l.Earn("music", 3, "", "")
	require.NoError(t, err)
	_, err = l.Spend("music", 5, "", "")
	assert.Error(t, err)
	_, err = l.Spend("music", 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Account: "obs", Category: "music", Balance: 3},
		{Account: "obs", Category: "music", Balance: 2},
	}, events)

	// observers may call back into the ledger
	l.Subscribe(func(ev Event) { assert.Equal(t, ev.Balance, l.Balance(ev.Category)) })
	cancel()
	_, err = l.Earn("music", 1, "", "")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestConcurrentMutations(t *testing.T) {
	l := openLedger(t, memstore.New(), "conc")
	_, err := l.Earn("infinity", 100, "", "")
	require.NoError(t, err)
	var wg sync.WaitGroup
	var mu sync.Mutex
	spent := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := l.Spend("infinity", 1, "", ""); err == nil {
					mu.Lock()
					spent++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, spent)
	assert.Equal(t, int64(0), l.Balance("infinity"))
	assert.Equal(t, 101, l.Len())
}
