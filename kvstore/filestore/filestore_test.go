// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filestore

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	tmpdir, err := ioutil.TempDir("", "filestore_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)
	s, err := New(filepath.Join(tmpdir, "store"))
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestFilesStayInDir(t *testing.T) {
	tmpdir, err := ioutil.TempDir("", "filestore_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)
	s, err := New(tmpdir)
	require.NoError(t, err)
	require.NoError(t, s.Set("../../escape", []byte(`{}`)))
	require.NoError(t, s.Set("wallet/default", []byte(`{}`)))
	files, err := ioutil.ReadDir(tmpdir)
	require.NoError(t, err)
	var names []string
	for _, fi := range files {
		names = append(names, fi.Name())
	}
	assert.ElementsMatch(t, []string{"..%2F..%2Fescape.json", "wallet%2Fdefault.json"}, names)
}

func TestReopen(t *testing.T) {
	tmpdir, err := ioutil.TempDir("", "filestore_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpdir)
	s, err := New(tmpdir)
	require.NoError(t, err)
	require.NoError(t, s.Set("playchain/default", []byte(`[1]`)))
	s2, err := New(tmpdir)
	require.NoError(t, err)
	value, err := s2.Get("playchain/default")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(value))
	assert.Equal(t, tmpdir, s2.Dir())
}
