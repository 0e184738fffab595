// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package encdb defines the encrypted database the portal keeps its ledger in.
An encrypted database consists of two files for a given database name
"dbname":

  dbname.db
  dbname.key

The file "dbname.db" is an AES-256 encrypted sqlite3 file managed by
"github.com/mutecomm/go-sqlcipher". The file "dbname.key" holds the randomly
generated raw key of "dbname.db", sealed with AES-256-GCM under a key derived
from the passphrase with PBKDF2-SHA256.

A rekey only rewrites the key file, the database file is left untouched.
*/
package encdb

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mutecomm/go-sqlcipher"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/bzero"
)

// DBSuffix defines the suffix for database files.
const DBSuffix = ".db"

// KeySuffix defines the suffix for key files.
const KeySuffix = ".key"

// ErrWrongPassphrase is returned if a key file cannot be opened with the
// supplied passphrase.
var ErrWrongPassphrase = errors.New("encdb: wrong passphrase")

func dsn(dbfile string, key []byte) string {
	return dbfile +
		fmt.Sprintf("?_pragma_key=x'%s'&_pragma_cipher_page_size=4096",
			hex.EncodeToString(key))
}

func createTables(db *sql.DB, createStmts []string) error {
	for _, stmt := range createStmts {
		if _, err := db.Exec(stmt); err != nil {
			return log.Errorf("encdb: %q: %s", err, stmt)
		}
	}
	return nil
}

func mustNotExist(filenames ...string) error {
	for _, filename := range filenames {
		exists, err := util.Exists(filename)
		if err != nil {
			return err
		}
		if exists {
			return log.Errorf("encdb: file '%s' exists already", filename)
		}
	}
	return nil
}

// Create creates an encrypted database protected by passphrase, with iter
// many KDF iterations. The files dbname.db and dbname.key must not exist.
// The database is initialized with the statements in createStmts.
func Create(dbname string, passphrase []byte, iter int, createStmts []string) error {
	dbfile := dbname + DBSuffix
	keyfile := dbname + KeySuffix
	if err := mustNotExist(dbfile, keyfile); err != nil {
		return err
	}
	key, err := generateKeyfile(keyfile, passphrase, iter)
	if err != nil {
		return err
	}
	defer bzero.Bytes(key)
	db, err := sql.Open("sqlite3", dsn(dbfile, key))
	if err != nil {
		return log.Error(err)
	}
	if _, err := db.Exec("PRAGMA auto_vacuum = full;"); err != nil {
		db.Close()
		return log.Error(err)
	}
	if err := createTables(db, createStmts); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return log.Error(err)
	}
	encrypted, err := sqlite3.IsEncrypted(dbfile)
	if err != nil {
		return log.Error(err)
	}
	if !encrypted {
		return log.Errorf("encdb: created dbfile '%s' is not encrypted", dbfile)
	}
	log.Infof("encdb: created %s", dbfile)
	return nil
}

// Open opens the encrypted database dbname with passphrase. A wrong
// passphrase results in ErrWrongPassphrase.
func Open(dbname string, passphrase []byte) (*sql.DB, error) {
	dbfile := dbname + DBSuffix
	keyfile := dbname + KeySuffix
	for _, filename := range []string{dbfile, keyfile} {
		exists, err := util.Exists(filename)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, log.Errorf("encdb: file '%s' does not exist", filename)
		}
	}
	encrypted, err := sqlite3.IsEncrypted(dbfile)
	if err != nil {
		return nil, log.Error(err)
	}
	if !encrypted {
		return nil, log.Errorf("encdb: dbfile '%s' is not encrypted", dbfile)
	}
	key, err := readKeyfile(keyfile, passphrase)
	if err != nil {
		return nil, err
	}
	defer bzero.Bytes(key)
	db, err := sql.Open("sqlite3", dsn(dbfile, key)+"&_foreign_keys=1")
	if err != nil {
		return nil, log.Error(err)
	}
	if _, err := db.Exec("SELECT count(*) FROM sqlite_master;"); err != nil {
		db.Close()
		return nil, log.Error(err)
	}
	return db, nil
}

// Rekey protects the database dbname with newPassphrase and newIter many KDF
// iterations. Only dbname.key is replaced.
func Rekey(dbname string, oldPassphrase, newPassphrase []byte, newIter int) error {
	db, err := Open(dbname, oldPassphrase)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := replaceKeyfile(dbname+KeySuffix, oldPassphrase, newPassphrase, newIter); err != nil {
		return err
	}
	log.Infof("encdb: rekeyed %s", dbname+DBSuffix)
	return nil
}

var autoVacuumModes = []string{
	"NONE",
	"FULL",
	"INCREMENTAL",
}

func autoVacuum(db *sql.DB) (string, error) {
	var av int64
	if err := db.QueryRow("PRAGMA auto_vacuum;").Scan(&av); err != nil {
		return "", log.Error(err)
	}
	if av < 0 || int(av) >= len(autoVacuumModes) {
		return "", log.Errorf("encdb: unknown auto_vacuum value %d", av)
	}
	return autoVacuumModes[av], nil
}

// Status returns the auto_vacuum mode and the freelist count of db.
func Status(db *sql.DB) (mode string, freelistCount int64, err error) {
	mode, err = autoVacuum(db)
	if err != nil {
		return "", 0, err
	}
	err = db.QueryRow("PRAGMA freelist_count;").Scan(&freelistCount)
	if err != nil {
		return "", 0, log.Error(err)
	}
	return
}

// Vacuum executes VACUUM in db. If mode is not empty and differs from the
// current auto_vacuum mode, the mode is changed first.
func Vacuum(db *sql.DB, mode string) error {
	if mode != "" {
		if !util.ContainsString(autoVacuumModes, mode) {
			return log.Errorf("encdb: unknown auto_vacuum mode: %s", mode)
		}
		current, err := autoVacuum(db)
		if err != nil {
			return err
		}
		if current != mode {
			if _, err := db.Exec(fmt.Sprintf("PRAGMA auto_vacuum = %s;", mode)); err != nil {
				return log.Error(err)
			}
		}
	}
	if _, err := db.Exec("VACUUM;"); err != nil {
		return log.Error(err)
	}
	return nil
}
