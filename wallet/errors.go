// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
)

// ErrInvalidAmount is returned by Earn and Spend for amounts <= 0.
var ErrInvalidAmount = errors.New("wallet: amount must be positive")

// ErrInsufficientFunds is returned by Spend if the balance of the category is
// smaller than the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidCategory is returned for empty category names.
var ErrInvalidCategory = errors.New("wallet: category must be defined")

// ErrSameLedger is returned by Transfer if source and destination are the
// same account.
var ErrSameLedger = errors.New("wallet: cannot transfer to the same account")
