// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// portalctl is the control client for Infinity Portal wallets and play
// chains.
package main

import (
	"os"

	"github.com/pewpi-infinity/portal/ctrlengine"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/release"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/interrupt"
	"github.com/urfave/cli"
)

func init() {
	cli.VersionPrinter = release.PrintVersion
}

func portalctlMain() error {
	defer log.Flush()

	// create control engine
	ce := ctrlengine.New()
	defer ce.Close()

	// add interrupt handler
	interrupt.AddInterruptHandler(func() {
		log.Infof("gracefully shutting down...")
		ce.Close()
	})

	// start control engine
	go func() {
		if err := ce.Start(os.Args); err != nil {
			interrupt.ShutdownChannel <- err
			return
		}
		interrupt.ShutdownChannel <- nil
	}()

	return <-interrupt.ShutdownChannel
}

func main() {
	// work around defer not working after os.Exit()
	if err := portalctlMain(); err != nil {
		util.Fatal(err)
	}
}
