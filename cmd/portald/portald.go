// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// portald serves Infinity Portal wallets and play chains over JSON-RPC.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/def/version"
	"github.com/pewpi-infinity/portal/kvstore/backend"
	"github.com/pewpi-infinity/portal/log"
	"github.com/pewpi-infinity/portal/release"
	"github.com/pewpi-infinity/portal/rpc"
	"github.com/pewpi-infinity/portal/util"
	"github.com/pewpi-infinity/portal/util/interrupt"
	"github.com/urfave/cli"
)

const shutdownTimeout = 5 * time.Second

func init() {
	cli.VersionPrinter = release.PrintVersion
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "portald"
	app.Usage = "serve Infinity Portal wallets and play chains over JSON-RPC"
	app.Version = version.Number
	homedir := def.HomeDir()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "listen",
			Value:  def.RPCListen,
			Usage:  "address to listen on",
			EnvVar: "PORTAL_LISTEN",
		},
		cli.StringFlag{
			Name:   "homedir",
			Value:  homedir,
			Usage:  "set home directory",
			EnvVar: "PORTAL_HOMEDIR",
		},
		cli.StringFlag{
			Name:   "store",
			Value:  backend.EncDB,
			Usage:  backend.Usage(),
			EnvVar: "PORTAL_STORE",
		},
		cli.StringFlag{
			Name:   "mysql-dsn",
			Usage:  "MySQL data source name for --store mysql",
			EnvVar: "PORTAL_MYSQL_DSN",
		},
		cli.IntFlag{
			Name:   "passphrase-fd",
			Value:  0,
			Usage:  "read passphrase from file descriptor",
			EnvVar: "PORTAL_PASSPHRASE_FD",
		},
		cli.StringFlag{
			Name:   "loglevel",
			Value:  "info",
			Usage:  "logging level (trace, debug, info, warn, error, critical)",
			EnvVar: "PORTAL_LOGLEVEL",
		},
		cli.StringFlag{
			Name:   "logdir",
			Value:  def.LogDir(homedir),
			Usage:  "directory to log output",
			EnvVar: "PORTAL_LOGDIR",
		},
		cli.BoolFlag{
			Name:   "logconsole",
			Usage:  "enable logging to console",
			EnvVar: "PORTAL_LOGCONSOLE",
		},
	}
	app.Action = serve
	return app
}

func serve(c *cli.Context) error {
	if len(c.Args()) > 0 {
		return log.Errorf("portald: superfluous argument(s): %v", c.Args())
	}
	if err := backend.Check(c.String("store")); err != nil {
		return err
	}
	err := util.CreateDirs(c.String("homedir"), c.String("logdir"))
	if err != nil {
		return err
	}
	err = log.Init(c.String("loglevel"), "portd", c.String("logdir"),
		c.Bool("logconsole"))
	if err != nil {
		return err
	}
	store, err := backend.Open(backend.Config{
		Name:     c.String("store"),
		HomeDir:  c.String("homedir"),
		MySQLDSN: c.String("mysql-dsn"),
		Passphrase: func() ([]byte, error) {
			fp := os.NewFile(uintptr(c.Int("passphrase-fd")), "passphrase-fd")
			return util.Readline(fp)
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(err)
		}
		log.Info("portald: store closed")
	}()
	handler, err := rpc.Handler(store)
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.String("listen"), Handler: handler}
	interrupt.AddInterruptHandler(func() {
		log.Info("portald: gracefully shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error(err)
		}
	})
	log.Infof("portald: serving %s on %s", def.RPCPath, server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return log.Error(err)
	}
	return nil
}

// wait returns the result of serve. A shutdown signal only means the
// server was stopped; serve still has to close the store.
func wait(done, shutdown <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-shutdown:
		log.Info("portald: waiting for store to close")
		return <-done
	}
}

func portaldMain() error {
	defer log.Flush()
	done := make(chan error, 1)
	go func() {
		done <- newApp().Run(os.Args)
	}()
	return wait(done, interrupt.ShutdownChannel)
}

func main() {
	// work around defer not working after os.Exit()
	if err := portaldMain(); err != nil {
		util.Fatal(err)
	}
}
