// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package playchain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/kvstore/memstore"
	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type track struct {
	Track string `json:"track"`
}

func openChain(t *testing.T, store kvstore.Store, account string, opts ...Option) *Chain {
	c, err := Open(store, account, opts...)
	require.NoError(t, err)
	return c
}

func TestAppendVerify(t *testing.T) {
	c := openChain(t, memstore.New(), "")
	assert.Equal(t, "default", c.Account())
	idx, ok := c.Verify()
	assert.True(t, ok, "empty chain is valid")
	assert.Equal(t, -1, idx)

	a, err := c.Append(track{"A"})
	require.NoError(t, err)
	assert.Equal(t, GenesisPrevHash, a.PrevHash)
	assert.Equal(t, `{"track":"A"}`, string(a.Payload))
	b, err := c.Append(map[string]string{"track": "B"})
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.PrevHash)
	assert.NotEqual(t, a.Hash, b.Hash)

	idx, ok = c.Verify()
	assert.True(t, ok)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 2, c.Len())
}

// tamper rewrites the persisted chain of account with edit applied.
func tamper(t *testing.T, store kvstore.Store, account string, edit func([]Entry)) {
	entries, err := Load(store, account)
	require.NoError(t, err)
	edit(entries)
	require.NoError(t, Put(store, account, entries))
}

func TestTamperedPayload(t *testing.T) {
	store := memstore.New()
	c := openChain(t, store, "player")
	_, err := c.Append(track{"A"})
	require.NoError(t, err)
	_, err = c.Append(track{"B"})
	require.NoError(t, err)

	tamper(t, store, "player", func(entries []Entry) {
		entries[0].Payload = json.RawMessage(`{"track":"Z"}`)
	})
	require.NoError(t, c.Reload())
	idx, ok := c.Verify()
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

func TestTamperedEachEntry(t *testing.T) {
	for i := 0; i < 5; i++ {
		store := memstore.New()
		c := openChain(t, store, "p")
		for j := 0; j < 5; j++ {
			_, err := c.Append(map[string]int{"n": j})
			require.NoError(t, err)
		}
		tamper(t, store, "p", func(entries []Entry) {
			entries[i].Payload = json.RawMessage(`{"n":99}`)
		})
		reopened := openChain(t, store, "p")
		idx, ok := reopened.Verify()
		assert.False(t, ok)
		assert.Equal(t, i, idx, "first mismatch must be the tampered entry")
	}
}

func TestTamperedLinks(t *testing.T) {
	store := memstore.New()
	c := openChain(t, store, "links")
	for j := 0; j < 3; j++ {
		_, err := c.Append(j)
		require.NoError(t, err)
	}
	entries := c.Tail(All)

	// rehashing an entry breaks the link of its successor
	broken := append([]Entry(nil), entries...)
	broken[1].Timestamp++
	broken[1].Hash = SHA256Digest(broken[1].Payload, broken[1].Timestamp, broken[1].PrevHash)
	idx, ok := VerifyEntries(broken, nil)
	assert.False(t, ok)
	assert.Equal(t, 2, idx)

	// removing an entry
	idx, ok = VerifyEntries([]Entry{entries[0], entries[2]}, nil)
	assert.False(t, ok)
	assert.Equal(t, 1, idx)

	// wrong genesis
	idx, ok = VerifyEntries(entries[1:], nil)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

func TestTail(t *testing.T) {
	c := openChain(t, memstore.New(), "tail")
	for j := 0; j < 5; j++ {
		_, err := c.Append(j)
		require.NoError(t, err)
	}
	tail := c.Tail(2)
	require.Len(t, tail, 2)
	assert.Equal(t, "3", string(tail[0].Payload))
	assert.Equal(t, "4", string(tail[1].Payload))
	assert.Len(t, c.Tail(10), 5)
	assert.Len(t, c.Tail(All), 5)
	assert.Empty(t, c.Tail(0))
	tail[0].Hash = "x"
	_, ok := c.Verify()
	assert.True(t, ok, "tail is a copy")
}

func TestCanonicalPayload(t *testing.T) {
	c := openChain(t, memstore.New(), "canon")
	e, err := c.Append(json.RawMessage("{ \"track\" : \"<A>\" }"))
	require.NoError(t, err)
	// HTML characters are escaped exactly like encoding/json does when the
	// chain document is written, so the hashed bytes survive a reload
	assert.Equal(t, `{"track":"\u003cA\u003e"}`, string(e.Payload))

	_, err = c.Append(json.RawMessage("{broken"))
	assert.True(t, kvstore.IsPersistenceFailure(err))
	_, err = c.Append(func() {})
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestRoundTrip(t *testing.T) {
	store := memstore.New()
	c := openChain(t, store, "rt")
	for _, name := range []string{"A", "B", "C"} {
		_, err := c.Append(track{name})
		require.NoError(t, err)
	}
	reopened := openChain(t, store, "rt")
	assert.Equal(t, c.Tail(All), reopened.Tail(All))
	_, ok := reopened.Verify()
	assert.True(t, ok)
}

func TestPersistenceFailure(t *testing.T) {
	store := storetest.NewFlaky(memstore.New())
	c := openChain(t, store, "fail")
	_, err := c.Append(track{"A"})
	require.NoError(t, err)
	store.FailWrites(true)
	_, err = c.Append(track{"B"})
	assert.True(t, kvstore.IsPersistenceFailure(err))
	assert.Equal(t, 1, c.Len())
	assert.True(t, kvstore.IsPersistenceFailure(c.Clear()))
	assert.Equal(t, 1, c.Len())
	store.FailWrites(false)
	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestCorruptDocument(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Set(kvstore.PlayChainKey("bad"), []byte("[")))
	_, err := Open(store, "bad")
	assert.True(t, kvstore.IsPersistenceFailure(err))
}

func TestWithDigest(t *testing.T) {
	weak := func(payload []byte, timestamp int64, prevHash string) string {
		return strings.ToUpper(prevHash) + string(payload)
	}
	store := memstore.New()
	c := openChain(t, store, "weak", WithDigest(weak))
	e, err := c.Append("x")
	require.NoError(t, err)
	assert.Equal(t, `0"x"`, e.Hash)
	_, ok := c.Verify()
	assert.True(t, ok)
	// the default digest does not accept the chain
	_, ok = openChain(t, store, "weak").Verify()
	assert.False(t, ok)
}

func TestSHA256Digest(t *testing.T) {
	h := SHA256Digest([]byte(`{"track":"A"}`), 1, "0")
	assert.Len(t, h, 64)
	assert.Equal(t, h, SHA256Digest([]byte(`{"track":"A"}`), 1, "0"))
	assert.NotEqual(t, h, SHA256Digest([]byte(`{"track":"B"}`), 1, "0"))
	assert.NotEqual(t, h, SHA256Digest([]byte(`{"track":"A"}`), 2, "0"))
	assert.NotEqual(t, h, SHA256Digest([]byte(`{"track":"A"}`), 1, "1"))
	// length prefixes separate the inputs
	assert.NotEqual(t, SHA256Digest([]byte("ab"), 1, "c"), SHA256Digest([]byte("a"), 1, "bc"))
}
