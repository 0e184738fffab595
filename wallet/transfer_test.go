// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/kvstore/memstore"
	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	store := memstore.New()
	alice := openLedger(t, store, "alice")
	bob := openLedger(t, store, "bob")
	_, err := alice.Earn("infinity", 10, "mine", "")
	require.NoError(t, err)

	require.NoError(t, Transfer(alice, bob, "infinity", 4, "market", "buy"))
	assert.Equal(t, int64(6), alice.Balance("infinity"))
	assert.Equal(t, int64(4), bob.Balance("infinity"))

	assert.Equal(t, ErrInsufficientFunds, Transfer(alice, bob, "infinity", 7, "market", ""))
	assert.Equal(t, int64(4), bob.Balance("infinity"))
	assert.Equal(t, ErrSameLedger, Transfer(alice, alice, "infinity", 1, "", ""))
}

func TestTransferRefund(t *testing.T) {
	flaky := storetest.NewFlaky(memstore.New())
	alice := openLedger(t, memstore.New(), "alice")
	bob := openLedger(t, flaky, "bob")
	_, err := alice.Earn("art", 5, "", "")
	require.NoError(t, err)

	flaky.FailWrites(true)
	err = Transfer(alice, bob, "art", 5, "market", "")
	assert.True(t, kvstore.IsPersistenceFailure(err))
	assert.Equal(t, int64(5), alice.Balance("art"))
	assert.Equal(t, int64(0), bob.Balance("art"))
	h := alice.History(All)
	require.Len(t, h, 3)
	assert.Equal(t, RefundSource, h[0].Source)
	assert.Equal(t, int64(5), h[0].Amount)
	assert.Equal(t, int64(-5), h[1].Amount)
}
