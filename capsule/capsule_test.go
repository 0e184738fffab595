// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capsule

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/agl/ed25519"
	"github.com/pewpi-infinity/portal/cipher"
	"github.com/pewpi-infinity/portal/encode"
	"github.com/pewpi-infinity/portal/kvstore/memstore"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iter = 1024

var passphrase = []byte("capsule passphrase")

func fixture(t *testing.T, account string) (*wallet.Ledger, *playchain.Chain, *[ed25519.PrivateKeySize]byte) {
	store := memstore.New()
	w, err := wallet.Open(store, account)
	require.NoError(t, err)
	c, err := playchain.Open(store, account)
	require.NoError(t, err)
	_, err = w.Earn("music", 12, "jukebox", "played ten tracks")
	require.NoError(t, err)
	_, err = w.Spend("music", 2, "market", "")
	require.NoError(t, err)
	_, err = c.Append(map[string]string{"track": "A"})
	require.NoError(t, err)
	_, err = c.Append(map[string]string{"track": "B"})
	require.NoError(t, err)
	_, signKey, err := ed25519.GenerateKey(cipher.RandReader)
	require.NoError(t, err)
	return w, c, signKey
}

func TestExportOpenRestore(t *testing.T) {
	w, c, signKey := fixture(t, "alice")
	data, err := Export(w, c, signKey, passphrase, iter)
	require.NoError(t, err)

	capsule, err := Open(data, passphrase)
	require.NoError(t, err)
	assert.Equal(t, "alice", capsule.CONTENT.ACCOUNT)
	assert.Equal(t, w.Snapshot(), capsule.CONTENT.WALLET)
	assert.Equal(t, c.Tail(playchain.All), capsule.CONTENT.CHAIN)

	store := memstore.New()
	require.NoError(t, Restore(capsule, store))
	w2, err := wallet.Open(store, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), w2.Balance("music"))
	assert.Equal(t, w.History(wallet.All), w2.History(wallet.All))
	c2, err := playchain.Open(store, "alice")
	require.NoError(t, err)
	_, ok := c2.Verify()
	assert.True(t, ok)
	assert.Equal(t, 2, c2.Len())
}

func TestEmptyAccount(t *testing.T) {
	store := memstore.New()
	w, err := wallet.Open(store, "empty")
	require.NoError(t, err)
	c, err := playchain.Open(store, "empty")
	require.NoError(t, err)
	_, signKey, err := ed25519.GenerateKey(cipher.RandReader)
	require.NoError(t, err)
	data, err := Export(w, c, signKey, passphrase, iter)
	require.NoError(t, err)
	_, err = Open(data, passphrase)
	require.NoError(t, err)
}

func TestOpenFailures(t *testing.T) {
	w, c, signKey := fixture(t, "bob")
	data, err := Export(w, c, signKey, passphrase, iter)
	require.NoError(t, err)

	_, err = Open(data, []byte("wrong"))
	assert.Equal(t, ErrWrongPassphrase, err)
	_, err = Open(data[:10], passphrase)
	assert.Equal(t, ErrFormat, err)
	_, err = Open([]byte("this is not a capsule at all, just some text"), passphrase)
	assert.Equal(t, ErrFormat, err)

	// the iteration count is checked before any key derivation
	expensive := append([]byte(nil), data...)
	copy(expensive[4:12], encode.ToByte8(MaxIterations+1))
	_, err = Open(expensive, passphrase)
	assert.Equal(t, ErrFormat, err)
	copy(expensive[4:12], encode.ToByte8(0))
	_, err = Open(expensive, passphrase)
	assert.Equal(t, ErrFormat, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0x01
	_, err = Open(flipped, passphrase)
	assert.Error(t, err)
}

func TestExportIterations(t *testing.T) {
	w, c, signKey := fixture(t, "dave")
	_, err := Export(w, c, signKey, passphrase, MaxIterations+1)
	assert.Error(t, err)
	_, err = Export(w, c, signKey, passphrase, 0)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	w, c, signKey := fixture(t, "carol")
	data, err := Export(w, c, signKey, passphrase, iter)
	require.NoError(t, err)
	capsule, err := Open(data, passphrase)
	require.NoError(t, err)

	// raising a balance invalidates the signature
	forged := *capsule
	forged.CONTENT.WALLET = capsule.CONTENT.WALLET
	forged.CONTENT.WALLET.Balances = map[string]int64{"music": 1000}
	assert.Equal(t, ErrSignature, forged.Verify())

	// a flipped signature bit
	sig := []byte(capsule.SIGNATURE)
	if sig[0] == '0' {
		sig[0] = '1'
	} else {
		sig[0] = '0'
	}
	forged = *capsule
	forged.SIGNATURE = string(sig)
	assert.Equal(t, ErrSignature, forged.Verify())

	// a re-signed capsule with a broken chain
	forged = *capsule
	forged.CONTENT.CHAIN = append([]playchain.Entry(nil), capsule.CONTENT.CHAIN...)
	forged.CONTENT.CHAIN[0].Payload = json.RawMessage(`{"track":"Z"}`)
	sigArr := ed25519.Sign(signKey, forged.CONTENT.JSON())
	forged.SIGNATURE = hex.EncodeToString(sigArr[:])
	assert.Equal(t, ErrChainBroken, forged.Verify())
}

func TestAccountMismatch(t *testing.T) {
	store := memstore.New()
	w, err := wallet.Open(store, "a")
	require.NoError(t, err)
	c, err := playchain.Open(store, "b")
	require.NoError(t, err)
	_, signKey, err := ed25519.GenerateKey(cipher.RandReader)
	require.NoError(t, err)
	_, err = Export(w, c, signKey, passphrase, iter)
	assert.Equal(t, ErrAccountMismatch, err)
}

func TestContentJSONSorted(t *testing.T) {
	content := Content{VERSION: Version, ACCOUNT: "x"}
	jsn := string(content.JSON())
	assert.True(t, strings.Index(jsn, `"ACCOUNT"`) < strings.Index(jsn, `"CHAIN"`))
	assert.True(t, strings.Index(jsn, `"SIGKEY"`) < strings.Index(jsn, `"VERSION"`))
	assert.True(t, strings.Index(jsn, `"VERSION"`) < strings.Index(jsn, `"WALLET"`))
}
