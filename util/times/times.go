// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package times contains time utility functions for the portal ledger.
// Ledger timestamps are Unix time in milliseconds (UTC).
package times

import (
	"time"
)

// layout used to render ledger timestamps.
const layout = "2006-01-02 15:04:05.000"

// clock is replaced in tests to obtain deterministic timestamps.
var clock = time.Now

// NowMilli returns the current time in UTC as Unix time,
// the number of milliseconds elapsed since January 1, 1970 UTC.
func NowMilli() int64 {
	return clock().UTC().UnixNano() / int64(time.Millisecond)
}

// FromMilli converts a ledger timestamp back to a time.Time in UTC.
func FromMilli(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}

// Format renders the ledger timestamp ms for human consumption.
func Format(ms int64) string {
	return FromMilli(ms).Format(layout)
}

// SetClock replaces the clock used by NowMilli and returns a function which
// restores the previous one.
func SetClock(now func() time.Time) (restore func()) {
	prev := clock
	clock = now
	return func() { clock = prev }
}
