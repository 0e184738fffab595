// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend opens the persistence backend selected by name.
package backend

import (
	"path/filepath"
	"strings"

	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/encdb"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/kvstore/filestore"
	"github.com/pewpi-infinity/portal/kvstore/memstore"
	"github.com/pewpi-infinity/portal/kvstore/sqlstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/bzero"
)

// Names of the available backends.
const (
	EncDB  = "encdb"
	File   = "file"
	MySQL  = "mysql"
	Memory = "memory"
)

// Names lists all backend names.
var Names = []string{EncDB, File, MySQL, Memory}

// Usage describes the backend names for flag help texts.
func Usage() string {
	return "persistence backend (" + strings.Join(Names, ", ") + ")"
}

// Config selects and configures a backend.
type Config struct {
	Name     string
	HomeDir  string
	MySQLDSN string
	// Passphrase is called to get the passphrase of the encrypted database.
	Passphrase func() ([]byte, error)
}

// Backend is an opened store.
type Backend struct {
	kvstore.Store
	// SQL is set for the encdb and the mysql backend.
	SQL *sqlstore.Store
}

// DBName returns the name of the encrypted database below homedir.
func DBName(homedir string) string {
	return filepath.Join(homedir, def.DBName)
}

// Check returns an error if name is not a known backend.
func Check(name string) error {
	if !util.ContainsString(Names, name) {
		return log.Errorf("backend: unknown store '%s' (possible: %s)",
			name, strings.Join(Names, ", "))
	}
	return nil
}

// Open opens the backend described by cfg.
func Open(cfg Config) (*Backend, error) {
	if err := Check(cfg.Name); err != nil {
		return nil, err
	}
	switch cfg.Name {
	case EncDB:
		if cfg.Passphrase == nil {
			return nil, log.Error("backend: passphrase required for encdb store")
		}
		passphrase, err := cfg.Passphrase()
		if err != nil {
			return nil, err
		}
		defer bzero.Bytes(passphrase)
		name := DBName(cfg.HomeDir)
		log.Infof("backend: open encrypted DB %s", name)
		db, err := encdb.Open(name, passphrase)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.NewFromDB(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{Store: s, SQL: s}, nil
	case File:
		dir := filepath.Join(cfg.HomeDir, def.StoreDir)
		log.Infof("backend: open file store %s", dir)
		s, err := filestore.New(dir)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s}, nil
	case MySQL:
		if cfg.MySQLDSN == "" {
			return nil, log.Error("backend: MySQL DSN required for mysql store")
		}
		s, err := sqlstore.NewFromURL(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, SQL: s}, nil
	default:
		log.Warn("backend: memory store is not persistent")
		return &Backend{Store: memstore.New()}, nil
	}
}

// Close closes the SQL database of the backend, if any.
func (b *Backend) Close() error {
	if b.SQL != nil {
		return b.SQL.Close()
	}
	return nil
}
