// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storetest provides behavior tests every kvstore.Store must pass and
// a store double whose writes can be made to fail.
package storetest

import (
	"errors"
	"sync"
	"testing"

	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store with the behavior expected from every backend.
func Run(t *testing.T, store kvstore.Store) {
	value, err := store.Get("wallet/unknown")
	require.NoError(t, err)
	assert.Nil(t, value, "unknown key must return nil")

	doc := []byte(`{"balances":{"music":5}}`)
	require.NoError(t, store.Set("wallet/default", doc))
	value, err = store.Get("wallet/default")
	require.NoError(t, err)
	assert.Equal(t, doc, value)

	// overwrite
	doc2 := []byte(`{"balances":{"music":7}}`)
	require.NoError(t, store.Set("wallet/default", doc2))
	value, err = store.Get("wallet/default")
	require.NoError(t, err)
	assert.Equal(t, doc2, value)

	// keys are independent
	require.NoError(t, store.Set("playchain/default", []byte(`[]`)))
	value, err = store.Get("wallet/default")
	require.NoError(t, err)
	assert.Equal(t, doc2, value)

	// keys with unusual characters
	odd := "wallet/ünïcode ../name"
	require.NoError(t, store.Set(odd, []byte(`{}`)))
	value, err = store.Get(odd)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), value)

	require.NoError(t, store.Delete("wallet/default"))
	value, err = store.Get("wallet/default")
	require.NoError(t, err)
	assert.Nil(t, value)
	require.NoError(t, store.Delete("wallet/default"), "deleting twice")

	assert.Error(t, store.Set("", []byte(`{}`)))
	_, err = store.Get("")
	assert.Error(t, err)
}

// ErrInjected is returned by a Flaky store while failing.
var ErrInjected = errors.New("storetest: injected failure")

// Flaky wraps a kvstore.Store and fails Set and Delete while FailWrites is
// set, and Get while FailReads is set.
type Flaky struct {
	kvstore.Store
	mu         sync.Mutex
	failWrites bool
	failReads  bool
	writes     int
}

// NewFlaky wraps store.
func NewFlaky(store kvstore.Store) *Flaky {
	return &Flaky{Store: store}
}

// FailWrites switches write failures on or off.
func (f *Flaky) FailWrites(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

// FailReads switches read failures on or off.
func (f *Flaky) FailReads(fail bool) {
	f.mu.Lock()
	f.failReads = fail
	f.mu.Unlock()
}

// Get implements kvstore.Store.
func (f *Flaky) Get(key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Store.Get(key)
}

// Set implements kvstore.Store.
func (f *Flaky) Set(key string, value []byte) error {
	f.mu.Lock()
	fail := f.failWrites
	if !fail {
		f.writes++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Set(key, value)
}

// Writes returns the number of Set calls passed to the wrapped store.
func (f *Flaky) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Delete implements kvstore.Store.
func (f *Flaky) Delete(key string) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Delete(key)
}
