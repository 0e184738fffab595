// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memstore

import (
	"testing"

	"github.com/pewpi-infinity/portal/kvstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, New())
}

func TestValuesAreCopied(t *testing.T) {
	s := New()
	value := []byte(`{"a":1}`)
	require.NoError(t, s.Set("wallet/a", value))
	value[2] = 'X'
	got, err := s.Get("wallet/a")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
	assert.Equal(t, 1, s.Keys())
}
