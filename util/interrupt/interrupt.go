// Copyright (c) 2013 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package interrupt runs registered handlers when portald receives SIGINT or
// SIGTERM and then signals ShutdownChannel.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pewpi-infinity/portal/log"
)

// ShutdownChannel is used to signal that shutdown is in progress.
var ShutdownChannel = make(chan error)

var (
	interruptChannel  chan os.Signal
	addHandlerChannel = make(chan func())
	startOnce         sync.Once
)

// mainInterruptHandler listens for signals on the interruptChannel and
// invokes the registered callbacks in reverse order of registration, so the
// listener closed last was the one opened first. It must be run as a
// goroutine.
func mainInterruptHandler() {
	var callbacks []func()
	for {
		select {
		case sig := <-interruptChannel:
			log.Infof("received %s, shutting down...", sig)
			for i := len(callbacks) - 1; i >= 0; i-- {
				callbacks[i]()
			}
			ShutdownChannel <- nil

		case handler := <-addHandlerChannel:
			callbacks = append(callbacks, handler)
		}
	}
}

// AddInterruptHandler adds a handler to call when SIGINT (Ctrl+C) or SIGTERM
// is received.
func AddInterruptHandler(handler func()) {
	startOnce.Do(func() {
		interruptChannel = make(chan os.Signal, 1)
		signal.Notify(interruptChannel, os.Interrupt, syscall.SIGTERM)
		go mainInterruptHandler()
	})
	addHandlerChannel <- handler
}
