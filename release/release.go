// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package release implements release specific constants and methods.
package release

import (
	"fmt"

	"github.com/urfave/cli"
)

// Commit and Date describe the source revision of a binary. They are set at
// link time:
//
//  go build -ldflags "-X github.com/pewpi-infinity/portal/release.Commit=..."
var (
	Commit = "unknown"
	Date   = "unknown"
)

// PrintVersion prints version information.
func PrintVersion(c *cli.Context) {
	fmt.Fprintf(c.App.Writer, "%v version %v\n", c.App.Name, c.App.Version)
	fmt.Fprintf(c.App.Writer, "commit %s\n", Commit)
	fmt.Fprintf(c.App.Writer, "Date:   %s\n", Date)
}
