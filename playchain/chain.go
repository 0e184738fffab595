// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package playchain implements the play chain of an account: an append-only
// log of events (track plays and the like) in which every entry carries the
// hash of its predecessor. The chain makes accidental or casual edits of the
// persisted log detectable, it is not a consensus structure.
package playchain

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util/times"
)

// Entry is a single element of the play chain.
type Entry struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // Unix time in milliseconds
	PrevHash  string          `json:"prevHash"`
	Hash      string          `json:"hash"`
}

// document is the persisted form of a chain.
type document struct {
	Account string  `json:"account"`
	Entries []Entry `json:"entries"`
}

// Chain is the play chain of a single account.
type Chain struct {
	store   kvstore.Store
	account string
	key     string
	digest  DigestFunc

	mu      sync.Mutex
	entries []Entry
}

// Option configures a Chain.
type Option func(*Chain)

// WithDigest replaces SHA256Digest by digest.
func WithDigest(digest DigestFunc) Option {
	return func(c *Chain) {
		c.digest = digest
	}
}

// Open loads the play chain of account from store. The chain is not
// verified, use Verify for that. An empty account selects
// def.DefaultAccount.
func Open(store kvstore.Store, account string, opts ...Option) (*Chain, error) {
	if account == "" {
		account = def.DefaultAccount
	}
	c := &Chain{
		store:   store,
		account: account,
		key:     kvstore.PlayChainKey(account),
		digest:  SHA256Digest,
	}
	for _, opt := range opts {
		opt(c)
	}
	entries, err := Load(store, account)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// Load reads the persisted entries of account from store.
func Load(store kvstore.Store, account string) ([]Entry, error) {
	key := kvstore.PlayChainKey(account)
	data, err := store.Get(key)
	if err != nil {
		return nil, kvstore.Fail("get", key, err)
	}
	if data == nil {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, kvstore.Fail("decode", key, err)
	}
	if doc.Account != account {
		return nil, kvstore.Fail("decode", key,
			log.Errorf("playchain: document belongs to account %q", doc.Account))
	}
	return doc.Entries, nil
}

// Put writes entries as the play chain of account to store.
func Put(store kvstore.Store, account string, entries []Entry) error {
	key := kvstore.PlayChainKey(account)
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(document{Account: account, Entries: entries})
	if err != nil {
		return kvstore.Fail("encode", key, err)
	}
	if err := store.Set(key, data); err != nil {
		return kvstore.Fail("set", key, err)
	}
	return nil
}

// Canonical returns the canonical JSON encoding of payload, the form that is
// hashed and stored. json.RawMessage payloads are validated and compacted.
func Canonical(payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, log.Error(err)
	}
	return data, nil
}

// Account returns the account of the chain.
func (c *Chain) Account() string {
	return c.account
}

// Append adds an entry for payload and persists the full chain. It fails
// only if payload cannot be encoded or the chain cannot be saved, in which
// case the chain is unchanged.
func (c *Chain) Append(payload interface{}) (Entry, error) {
	data, err := Canonical(payload)
	if err != nil {
		return Entry{}, kvstore.Fail("encode", c.key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prevHash := GenesisPrevHash
	if n := len(c.entries); n > 0 {
		prevHash = c.entries[n-1].Hash
	}
	entry := Entry{
		ID:        uuid.New().String(),
		Payload:   data,
		Timestamp: times.NowMilli(),
		PrevHash:  prevHash,
	}
	entry.Hash = c.digest(entry.Payload, entry.Timestamp, entry.PrevHash)
	next := make([]Entry, len(c.entries), len(c.entries)+1)
	copy(next, c.entries)
	next = append(next, entry)
	if err := Put(c.store, c.account, next); err != nil {
		return Entry{}, err
	}
	c.entries = next
	log.Debugf("playchain: %s: appended %s", c.account, entry.Hash)
	return entry, nil
}

// VerifyEntries walks entries from the first one and returns the index of
// the first entry whose hash does not match its content or whose prevHash
// does not match the hash of its predecessor. It returns (-1, true) for an
// intact chain.
func VerifyEntries(entries []Entry, digest DigestFunc) (int, bool) {
	if digest == nil {
		digest = SHA256Digest
	}
	prevHash := GenesisPrevHash
	for i, entry := range entries {
		if entry.PrevHash != prevHash {
			return i, false
		}
		if digest(entry.Payload, entry.Timestamp, entry.PrevHash) != entry.Hash {
			return i, false
		}
		prevHash = entry.Hash
	}
	return -1, true
}

// Verify checks the chain, see VerifyEntries.
func (c *Chain) Verify() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := VerifyEntries(c.entries, c.digest)
	if !ok {
		log.Warnf("playchain: %s: chain broken at entry %d", c.account, idx)
	}
	return idx, ok
}

// All passed as n to Tail returns the complete chain.
const All = -1

// Tail returns at most the last n entries, oldest first. n == 0 returns none,
// a negative n (All) returns all entries.
func (c *Chain) Tail(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n > len(c.entries) {
		n = len(c.entries)
	}
	tail := make([]Entry, n)
	copy(tail, c.entries[len(c.entries)-n:])
	return tail
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reload replaces the in-memory chain with the persisted one.
func (c *Chain) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := Load(c.store, c.account)
	if err != nil {
		return err
	}
	c.entries = entries
	return nil
}

// Clear removes all entries and persists the empty chain.
func (c *Chain) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := Put(c.store, c.account, nil); err != nil {
		return err
	}
	c.entries = nil
	log.Infof("playchain: %s: cleared", c.account)
	return nil
}
