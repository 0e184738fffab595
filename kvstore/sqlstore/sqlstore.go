// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlstore implements a kvstore.Store on top of an SQL database,
// either the local sqlcipher database (see encdb) or a MySQL server.
package sqlstore

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
	"github.com/jpillora/backoff"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
)

// CreateQuery creates the key-value table. It is understood by sqlite3 and
// MySQL alike.
const CreateQuery = `
CREATE TABLE IF NOT EXISTS KeyValueStore (
  KeyEntry   VARCHAR(255) NOT NULL UNIQUE,
  ValueEntry MEDIUMTEXT   NOT NULL
);`

const (
	updateValueQuery = "UPDATE KeyValueStore SET ValueEntry=? WHERE KeyEntry=?;"
	insertValueQuery = "INSERT INTO KeyValueStore (KeyEntry, ValueEntry) VALUES (?, ?);"
	getValueQuery    = "SELECT ValueEntry FROM KeyValueStore WHERE KeyEntry=?;"
	countValueQuery  = "SELECT COUNT(*) FROM KeyValueStore WHERE KeyEntry=?;"
	delValueQuery    = "DELETE FROM KeyValueStore WHERE KeyEntry=?;"
)

// Store is an SQL backed key-value store.
type Store struct {
	DB               *sql.DB
	updateValueQuery *sql.Stmt
	insertValueQuery *sql.Stmt
	getValueQuery    *sql.Stmt
	countValueQuery  *sql.Stmt
	delValueQuery    *sql.Stmt
}

// NewFromDB returns a store for an existing database connection. The table
// is created if it does not exist.
func NewFromDB(db *sql.DB) (*Store, error) {
	s := &Store{DB: db}
	if err := s.initDB(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromURL returns a store for the MySQL data source name dburl. The
// connection is retried with exponential backoff for at most
// def.SQLConnectMaxDuration.
func NewFromURL(dburl string) (*Store, error) {
	db, err := sql.Open("mysql", dburl)
	if err != nil {
		return nil, log.Error(err)
	}
	if err := ping(db); err != nil {
		db.Close()
		return nil, err
	}
	s, err := NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func ping(db *sql.DB) error {
	err := db.Ping()
	if err == nil {
		return nil
	}
	log.Warnf("sqlstore: ping: %s", err)
	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 1.5,
		Jitter: false,
	}
	var total time.Duration
	for total < def.SQLConnectMaxDuration {
		d := b.Duration()
		time.Sleep(d)
		total += d
		if err = db.Ping(); err == nil {
			return nil
		}
		log.Warnf("sqlstore: ping: %s", err)
	}
	return log.Error(err)
}

func (s *Store) initDB() (err error) {
	if _, err = s.DB.Exec(CreateQuery); err != nil {
		return log.Error(err)
	}
	if s.updateValueQuery, err = s.DB.Prepare(updateValueQuery); err != nil {
		return log.Error(err)
	}
	if s.insertValueQuery, err = s.DB.Prepare(insertValueQuery); err != nil {
		return log.Error(err)
	}
	if s.getValueQuery, err = s.DB.Prepare(getValueQuery); err != nil {
		return log.Error(err)
	}
	if s.countValueQuery, err = s.DB.Prepare(countValueQuery); err != nil {
		return log.Error(err)
	}
	if s.delValueQuery, err = s.DB.Prepare(delValueQuery); err != nil {
		return log.Error(err)
	}
	return nil
}

// Get implements kvstore.Store.
func (s *Store) Get(key string) ([]byte, error) {
	if err := kvstore.CheckKey(key); err != nil {
		return nil, err
	}
	var value string
	err := s.getValueQuery.QueryRow(key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, log.Error(err)
	default:
		return []byte(value), nil
	}
}

// Set implements kvstore.Store.
func (s *Store) Set(key string, value []byte) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	tx, err := s.DB.Begin()
	if err != nil {
		return log.Error(err)
	}
	res, err := tx.Stmt(s.updateValueQuery).Exec(string(value), key)
	if err != nil {
		tx.Rollback()
		return log.Error(err)
	}
	nRows, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return log.Error(err)
	}
	if nRows == 0 {
		// MySQL reports 0 affected rows for an unchanged value
		var count int64
		if err := tx.Stmt(s.countValueQuery).QueryRow(key).Scan(&count); err != nil {
			tx.Rollback()
			return log.Error(err)
		}
		if count == 0 {
			if _, err := tx.Stmt(s.insertValueQuery).Exec(key, string(value)); err != nil {
				tx.Rollback()
				return log.Error(err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return log.Error(err)
	}
	return nil
}

// Delete implements kvstore.Store.
func (s *Store) Delete(key string) error {
	if err := kvstore.CheckKey(key); err != nil {
		return err
	}
	if _, err := s.delValueQuery.Exec(key); err != nil {
		return log.Error(err)
	}
	return nil
}

// Close closes the prepared statements and the database.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.updateValueQuery,
		s.insertValueQuery,
		s.getValueQuery,
		s.countValueQuery,
		s.delValueQuery,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if err := s.DB.Close(); err != nil {
		return log.Error(err)
	}
	return nil
}
