// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package playchain

import (
	"encoding/hex"
	"strconv"

	"github.com/pewpi-infinity/portal/cipher"
	"github.com/pewpi-infinity/portal/encode"
)

// GenesisPrevHash is the prevHash of the first entry of every chain.
const GenesisPrevHash = "0"

// DigestFunc computes the hash of a chain entry from its canonical JSON
// payload, its timestamp and the hash of the previous entry. It must be
// deterministic and every input bit must influence the result.
type DigestFunc func(payload []byte, timestamp int64, prevHash string) string

// SHA256Digest is the default DigestFunc. Each input is length-prefixed, so
// moving bytes between inputs changes the digest. It detects tampering, it
// does not prevent it: anyone with write access to the store can recompute
// the chain.
func SHA256Digest(payload []byte, timestamp int64, prevHash string) string {
	var buf []byte
	buf = append(buf, encode.LengthPrefixed(payload)...)
	buf = append(buf, encode.LengthPrefixed([]byte(strconv.FormatInt(timestamp, 10)))...)
	buf = append(buf, encode.LengthPrefixed([]byte(prevHash))...)
	return hex.EncodeToString(cipher.SHA256(buf))
}
