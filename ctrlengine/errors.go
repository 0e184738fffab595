// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"errors"
)

// ErrPassphrasesDiffer is raised when the supplied passphrases during a DB
// creation, a rekey or a capsule export differ.
var ErrPassphrasesDiffer = errors.New("ctrlengine: passphrases differ")

// ErrNoSignKey is raised if the store has no wallet signing key.
var ErrNoSignKey = errors.New("ctrlengine: no wallet signing key, run 'wallet pubkey --create'")

var errExit = errors.New("ctrlengine: requests exit")
