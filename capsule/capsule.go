// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package capsule implements signed and encrypted backups of an account: its
wallet and its play chain. A capsule file has the following format:

  4 bytes   magic "PCP1"
  8 bytes   number of PBKDF2 iterations (little-endian)
  32 bytes  PBKDF2 salt
  rest      AES-256-GCM sealed JSON encoding of Capsule (nonce prepended)

The JSON content is signed with the Ed25519 wallet key of the exporting
installation. The signature is computed over the content encoded with sorted
keys.
*/
package capsule

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/agl/ed25519"
	"github.com/fatih/structs"
	"github.com/pewpi-infinity/portal/cipher"
	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/encode"
	"github.com/pewpi-infinity/portal/kvstore"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/util/bzero"
	"github.com/pewpi-infinity/portal/util/times"
	"github.com/pewpi-infinity/portal/wallet"
)

// Version is the current capsule content version.
const Version = "1"

var magic = []byte("PCP1")

const headerSize = 4 + 8 + cipher.SaltSize

// MaxIterations bounds the PBKDF2 iterations of a capsule. The count is read
// from the unauthenticated header, so it is checked before deriving the key.
const MaxIterations = 10 * def.KDFIterationsCapsule

var (
	// ErrFormat is returned for data which is not a capsule.
	ErrFormat = errors.New("capsule: invalid format")
	// ErrWrongPassphrase is returned if a capsule cannot be decrypted.
	ErrWrongPassphrase = errors.New("capsule: wrong passphrase")
	// ErrSignature is returned if the capsule signature does not verify.
	ErrSignature = errors.New("capsule: invalid signature")
	// ErrChainBroken is returned if the play chain of a capsule does not
	// verify.
	ErrChainBroken = errors.New("capsule: play chain broken")
	// ErrAccountMismatch is returned if wallet and chain belong to different
	// accounts.
	ErrAccountMismatch = errors.New("capsule: wallet and chain belong to different accounts")
)

// Content is the signed part of a capsule.
type Content struct {
	VERSION string
	ACCOUNT string
	CREATED int64  // Unix time in milliseconds
	SIGKEY  string // hex encoded Ed25519 public key
	WALLET  wallet.State      `structs:"WALLET,omitnested"`
	CHAIN   []playchain.Entry `structs:"CHAIN,omitnested"`
}

// Capsule is a backup of an account.
type Capsule struct {
	CONTENT   Content
	SIGNATURE string // hex encoded Ed25519 signature of CONTENT
}

// JSON encodes content with sorted keys.
func (content *Content) JSON() []byte {
	// maps are sorted by encoding/json, structs are not
	m := structs.Map(content)
	jsn, err := json.Marshal(m)
	if err != nil {
		panic(log.Critical(err))
	}
	return jsn
}

// Export creates an encrypted capsule of the wallet w and the play chain c,
// signed with signKey. The encryption key is derived from passphrase with
// iter many PBKDF2 iterations.
func Export(
	w *wallet.Ledger,
	c *playchain.Chain,
	signKey *[ed25519.PrivateKeySize]byte,
	passphrase []byte,
	iter int,
) ([]byte, error) {
	if w.Account() != c.Account() {
		return nil, log.Error(ErrAccountMismatch)
	}
	if iter <= 0 || iter > MaxIterations {
		return nil, log.Errorf("capsule: iterations must be in 1..%d", MaxIterations)
	}
	content := Content{
		VERSION: Version,
		ACCOUNT: w.Account(),
		CREATED: times.NowMilli(),
		SIGKEY:  hex.EncodeToString(signKey[32:]),
		WALLET:  w.Snapshot(),
		CHAIN:   c.Tail(playchain.All),
	}
	if content.CHAIN == nil {
		content.CHAIN = []playchain.Entry{}
	}
	sig := ed25519.Sign(signKey, content.JSON())
	capsule := Capsule{
		CONTENT:   content,
		SIGNATURE: hex.EncodeToString(sig[:]),
	}
	plaintext, err := json.Marshal(&capsule)
	if err != nil {
		return nil, log.Error(err)
	}
	salt, err := cipher.NewSalt(cipher.RandReader)
	if err != nil {
		return nil, err
	}
	key, err := cipher.DeriveKey(passphrase, salt, iter)
	if err != nil {
		return nil, err
	}
	defer bzero.Bytes(key)
	sealed, err := cipher.AES256GCMSeal(key, plaintext, cipher.RandReader)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write(encode.ToByte8(uint64(iter)))
	buf.Write(salt)
	buf.Write(sealed)
	log.Infof("capsule: exported account %s (%d transactions, %d chain entries)",
		content.ACCOUNT, len(content.WALLET.History), len(content.CHAIN))
	return buf.Bytes(), nil
}

// Open decrypts data with passphrase and verifies the signature and the play
// chain of the capsule.
func Open(data, passphrase []byte) (*Capsule, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, log.Error(ErrFormat)
	}
	uiter := encode.ToUint64(data[4:12])
	if uiter == 0 || uiter > MaxIterations {
		return nil, log.Error(ErrFormat)
	}
	key, err := cipher.DeriveKey(passphrase, data[12:headerSize], int(uiter))
	if err != nil {
		return nil, err
	}
	defer bzero.Bytes(key)
	plaintext, err := cipher.AES256GCMOpen(key, data[headerSize:])
	if err != nil {
		return nil, log.Error(ErrWrongPassphrase)
	}
	var capsule Capsule
	if err := json.Unmarshal(plaintext, &capsule); err != nil {
		return nil, log.Error(ErrFormat)
	}
	if err := capsule.Verify(); err != nil {
		return nil, err
	}
	return &capsule, nil
}

// Verify checks the signature, the play chain and the wallet of capsule.
func (capsule *Capsule) Verify() error {
	content := &capsule.CONTENT
	if content.VERSION != Version {
		return log.Errorf("capsule: unsupported version %q", content.VERSION)
	}
	pub, err := hex.DecodeString(content.SIGKEY)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return log.Error(ErrSignature)
	}
	sig, err := hex.DecodeString(capsule.SIGNATURE)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return log.Error(ErrSignature)
	}
	var pubKey [ed25519.PublicKeySize]byte
	var signature [ed25519.SignatureSize]byte
	copy(pubKey[:], pub)
	copy(signature[:], sig)
	if !ed25519.Verify(&pubKey, content.JSON(), &signature) {
		return log.Error(ErrSignature)
	}
	if content.WALLET.Account != content.ACCOUNT {
		return log.Error(ErrAccountMismatch)
	}
	for category, balance := range content.WALLET.Balances {
		if balance < 0 {
			return log.Errorf("capsule: negative balance in category %q", category)
		}
	}
	if idx, ok := playchain.VerifyEntries(content.CHAIN, nil); !ok {
		log.Warnf("capsule: chain broken at entry %d", idx)
		return ErrChainBroken
	}
	return nil
}

// Restore writes the wallet and the play chain of capsule to store,
// replacing the current documents of the account.
func Restore(capsule *Capsule, store kvstore.Store) error {
	content := &capsule.CONTENT
	if err := wallet.Put(store, content.WALLET); err != nil {
		return err
	}
	if err := playchain.Put(store, content.ACCOUNT, content.CHAIN); err != nil {
		return err
	}
	log.Infof("capsule: restored account %s", content.ACCOUNT)
	return nil
}
