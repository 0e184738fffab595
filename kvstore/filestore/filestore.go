// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filestore implements a kvstore.Store keeping one JSON file per key
// in a directory.
package filestore

import (
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util"
)

// Suffix of all files written by the store.
const Suffix = ".json"

// Store is a directory backed key-value store.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store for dir. The directory is created if necessary.
func New(dir string) (*Store, error) {
	if err := util.CreateDirs(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// filename maps key to a file below dir. Path separators are escaped, so a
// key can never leave the directory.
func (s *Store) filename(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+Suffix)
}

// Get implements kvstore.Store.
func (s *Store) Get(key string) ([]byte, error) {
	if err := kvstore.CheckKey(key); err != nil {
		return nil, err
	}
	filename := s.filename(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	exists, err := util.Exists(filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	value, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, log.Error(err)
	}
	return value, nil
}

// Set implements kvstore.Store. The value is written to a temporary file
// which is then renamed over the old one.
func (s *Store) Set(key string, value []byte) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := ioutil.TempFile(s.dir, ".tmp-")
	if err != nil {
		return log.Error(err)
	}
	tmpname := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpname)
		return log.Error(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpname)
		return log.Error(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpname)
		return log.Error(err)
	}
	if err := os.Rename(tmpname, s.filename(key)); err != nil {
		os.Remove(tmpname)
		return log.Error(err)
	}
	return nil
}

// Delete implements kvstore.Store.
func (s *Store) Delete(key string) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.filename(key))
	if err != nil && !os.IsNotExist(err) {
		return log.Error(err)
	}
	return nil
}
