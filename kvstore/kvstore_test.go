// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kvstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "wallet/alice", WalletKey("alice"))
	assert.Equal(t, "playchain/alice", PlayChainKey("alice"))
	prefix, account, ok := AccountFromKey("playchain/bob")
	assert.True(t, ok)
	assert.Equal(t, "playchain/", prefix)
	assert.Equal(t, "bob", account)
	_, _, ok = AccountFromKey("wallet/")
	assert.False(t, ok)
	_, _, ok = AccountFromKey("other/bob")
	assert.False(t, ok)
	assert.Error(t, CheckKey(""))
	assert.NoError(t, CheckKey("wallet/bob"))
}

func TestPersistenceError(t *testing.T) {
	err := Fail("set", "wallet/default", errors.New("disk full"))
	assert.True(t, IsPersistenceFailure(err))
	assert.Equal(t, `kvstore: set "wallet/default": disk full`, err.Error())
	assert.False(t, IsPersistenceFailure(errors.New("other")))
	assert.False(t, IsPersistenceFailure(nil))
}
