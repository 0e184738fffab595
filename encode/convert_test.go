// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"bytes"
	"testing"
)

func TestToUint64(t *testing.T) {
	b := make([]byte, 8)
	if ToUint64(b) != 0 {
		t.Error("ToUint64(b) != 0")
	}
	b[1] = 0x1
	if ToUint64(b) != 256 {
		t.Error("ToUint64(b) != 256")
	}
	b[2] = 0x1
	if ToUint64(b) != 65792 {
		t.Error("ToUint64(b) != 65792")
	}

	b = make([]byte, 7)
	defer func() {
		if r := recover(); r == nil {
			t.Error("ToUint64(b) with len(b) != 8 is supposed to panic")
		}
	}()
	ToUint64(b)
}

func TestToByte8(t *testing.T) {
	for _, u := range []uint64{0, 1, 256, 1 << 40, ^uint64(0)} {
		if ToUint64(ToByte8(u)) != u {
			t.Errorf("ToUint64(ToByte8(%d)) != %d", u, u)
		}
	}
	if !bytes.Equal(ToByte8(258), []byte{2, 1, 0, 0, 0, 0, 0, 0}) {
		t.Error("ToByte8(258) is not little-endian")
	}
}

func TestLengthPrefixed(t *testing.T) {
	a := append(LengthPrefixed([]byte("ab")), LengthPrefixed([]byte("c"))...)
	b := append(LengthPrefixed([]byte("a")), LengthPrefixed([]byte("bc"))...)
	if bytes.Equal(a, b) {
		t.Error("length prefixing must separate field boundaries")
	}
}
