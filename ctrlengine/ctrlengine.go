// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctrlengine implements the command engine for portalctl.
package ctrlengine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pewpi-infinity/portal/kvstore/backend"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/playchain"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/bzero"
	"github.com/pewpi-infinity/portal/wallet"
	"github.com/urfave/cli"
	"golang.org/x/crypto/ssh/terminal"
)

// CtrlEngine abstracts a portalctl command engine.
type CtrlEngine struct {
	prepared    bool
	interactive bool
	app         *cli.App
	store       *backend.Backend
	passIn      io.Reader // passphrase source, overrides --passphrase-fd
	passScanner *bufio.Scanner
	globals     []string // global arguments given before 'shell'
	out         io.Writer // command output
	status      io.Writer // status messages
}

func (ce *CtrlEngine) prepare(c *cli.Context) error {
	if ce.prepared {
		return nil
	}
	if err := backend.Check(c.GlobalString("store")); err != nil {
		return err
	}
	// create the necessary directories if they don't already exist
	err := util.CreateDirs(c.GlobalString("homedir"), c.GlobalString("logdir"))
	if err != nil {
		return err
	}
	err = log.Init(c.GlobalString("loglevel"), "ctrl ",
		c.GlobalString("logdir"), c.GlobalBool("logconsole"))
	if err != nil {
		return err
	}
	ce.prepared = true
	return nil
}

// readPassphrase reads a single passphrase from --passphrase-fd. Multiple
// passphrases can be supplied on consecutive lines.
func (ce *CtrlEngine) readPassphrase(c *cli.Context, what string) ([]byte, error) {
	fd := c.GlobalInt("passphrase-fd")
	fmt.Fprintf(ce.status, "read %s from fd %d\n", what, fd)
	log.Infof("read %s from fd %d", what, fd)
	if ce.passScanner == nil && ce.passIn != nil {
		ce.passScanner = bufio.NewScanner(ce.passIn)
	}
	if ce.passScanner == nil {
		fp := os.NewFile(uintptr(fd), "passphrase-fd")
		if terminal.IsTerminal(fd) {
			return util.Readline(fp)
		}
		ce.passScanner = bufio.NewScanner(fp)
	}
	return util.ReadlineScanner(ce.passScanner)
}

// readNewPassphrase reads a passphrase twice and makes sure both are equal.
func (ce *CtrlEngine) readNewPassphrase(c *cli.Context, what string) ([]byte, error) {
	passphrase, err := ce.readPassphrase(c, what)
	if err != nil {
		return nil, err
	}
	passphrase2, err := ce.readPassphrase(c, what+" again")
	if err != nil {
		bzero.Bytes(passphrase)
		return nil, err
	}
	defer bzero.Bytes(passphrase2)
	if string(passphrase) != string(passphrase2) {
		bzero.Bytes(passphrase)
		return nil, log.Error(ErrPassphrasesDiffer)
	}
	return passphrase, nil
}

// openStore opens the store selected with --store, if not already open.
func (ce *CtrlEngine) openStore(c *cli.Context) error {
	if ce.store != nil {
		return nil
	}
	b, err := backend.Open(backend.Config{
		Name:     c.GlobalString("store"),
		HomeDir:  c.GlobalString("homedir"),
		MySQLDSN: c.GlobalString("mysql-dsn"),
		Passphrase: func() ([]byte, error) {
			return ce.readPassphrase(c, "passphrase")
		},
	})
	if err != nil {
		return err
	}
	ce.store = b
	return nil
}

func (ce *CtrlEngine) openWallet(c *cli.Context, account string) (*wallet.Ledger, error) {
	if err := ce.openStore(c); err != nil {
		return nil, err
	}
	if account == "" {
		account = c.GlobalString("account")
	}
	return wallet.Open(ce.store, account)
}

func (ce *CtrlEngine) openChain(c *cli.Context) (*playchain.Chain, error) {
	if err := ce.openStore(c); err != nil {
		return nil, err
	}
	return playchain.Open(ce.store, c.GlobalString("account"))
}

func noArgs(c *cli.Context) error {
	if len(c.Args()) > 0 {
		return log.Errorf("superfluous argument(s): %s", strings.Join(c.Args(), " "))
	}
	return nil
}

func nArgs(c *cli.Context, n int, usage string) error {
	if len(c.Args()) != n {
		return log.Errorf("usage: %s", usage)
	}
	return nil
}

// Start starts the CtrlEngine with the given args.
func (ce *CtrlEngine) Start(args []string) error {
	ce.app.Name = filepath.Base(args[0])
	for i, arg := range args[1:] {
		if arg == "shell" {
			ce.globals = args[1 : i+1]
			break
		}
	}
	return ce.app.Run(args)
}

// Close the underlying store of the CtrlEngine.
func (ce *CtrlEngine) Close() {
	if ce.store != nil {
		ce.store.Close()
		ce.store = nil
	}
}

// New returns a new CtrlEngine writing command output to os.Stdout and
// status messages to os.Stderr.
func New() *CtrlEngine {
	return newEngine(os.Stdout, os.Stderr)
}
