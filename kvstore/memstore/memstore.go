// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memstore implements an in-memory kvstore.Store.
package memstore

import (
	"sync"

	"github.com/pewpi-infinity/portal/kvstore"
)

// Store is an in-memory key-value store. The zero value is not usable, use
// New.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements kvstore.Store.
func (s *Store) Get(key string) ([]byte, error) {
	if err := kvstore.CheckKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

// Set implements kvstore.Store.
func (s *Store) Set(key string, value []byte) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

// Delete implements kvstore.Store.
func (s *Store) Delete(key string) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
