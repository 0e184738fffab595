// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/pewpi-infinity/portal/encdb"
	"github.com/pewpi-infinity/portal/kvstore/sqlstore"
	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "backend_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestUnknown(t *testing.T) {
	assert.Error(t, Check("floppy"))
	_, err := Open(Config{Name: "floppy"})
	assert.Error(t, err)
	assert.Contains(t, Usage(), "memory")
}

func TestMemory(t *testing.T) {
	b, err := Open(Config{Name: Memory})
	require.NoError(t, err)
	defer b.Close()
	assert.Nil(t, b.SQL)
	storetest.Run(t, b)
}

func TestFile(t *testing.T) {
	b, err := Open(Config{Name: File, HomeDir: tempDir(t)})
	require.NoError(t, err)
	defer b.Close()
	storetest.Run(t, b)
}

func TestMySQLNeedsDSN(t *testing.T) {
	_, err := Open(Config{Name: MySQL})
	assert.Error(t, err)
}

func TestEncDB(t *testing.T) {
	dir := tempDir(t)
	passphrase := func() ([]byte, error) { return []byte("passphrase"), nil }
	_, err := Open(Config{Name: EncDB, HomeDir: dir})
	assert.Error(t, err)
	_, err = Open(Config{Name: EncDB, HomeDir: dir, Passphrase: passphrase})
	assert.Error(t, err, "database does not exist")

	err = encdb.Create(DBName(dir), []byte("passphrase"), 1000,
		[]string{sqlstore.CreateQuery})
	require.NoError(t, err)
	b, err := Open(Config{Name: EncDB, HomeDir: dir, Passphrase: passphrase})
	require.NoError(t, err)
	require.NotNil(t, b.SQL)
	storetest.Run(t, b)
	require.NoError(t, b.Close())

	_, err = Open(Config{Name: EncDB, HomeDir: dir, Passphrase: func() ([]byte, error) {
		return []byte("wrong"), nil
	}})
	assert.Equal(t, encdb.ErrWrongPassphrase, err)

	readErr := errors.New("no input")
	_, err = Open(Config{Name: EncDB, HomeDir: dir, Passphrase: func() ([]byte, error) {
		return nil, readErr
	}})
	assert.Equal(t, readErr, err)
}
