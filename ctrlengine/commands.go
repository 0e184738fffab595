// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"io"

	"github.com/pewpi-infinity/portal/def"
	"github.com/pewpi-infinity/portal/def/version"
	"github.com/pewpi-infinity/portal/kvstore/backend"
	"github.com/urfave/cli"
)

func newEngine(out, status io.Writer) *CtrlEngine {
	var ce CtrlEngine
	ce.out = out
	ce.status = status
	ce.app = cli.NewApp()
	ce.app.Usage = "tool to manage Infinity Portal token wallets and play chains"
	ce.app.Version = version.Number
	ce.app.Writer = out
	ce.app.ErrWriter = status

	homedir := def.HomeDir()
	ce.app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "homedir",
			Value:  homedir,
			Usage:  "set home directory",
			EnvVar: "PORTAL_HOMEDIR",
		},
		cli.StringFlag{
			Name:   "account",
			Value:  def.DefaultAccount,
			Usage:  "account the wallet and play chain belong to",
			EnvVar: "PORTAL_ACCOUNT",
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
			Usage:  "read passphrase(s) from file descriptor",
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
	ce.app.Before = func(c *cli.Context) error {
		return ce.prepare(c)
	}

	ce.app.Commands = []cli.Command{
		{
			Name:  "db",
			Usage: "commands for the encrypted ledger database",
			Subcommands: []cli.Command{
				{
					Name:  "create",
					Usage: "create new encrypted ledger database",
					Flags: []cli.Flag{
						cli.IntFlag{
							Name:  "iterations",
							Value: def.KDFIterationsDB,
							Usage: "number of KDF iterations used for the key file",
						},
					},
					Before: noArgs,
					Action: ce.dbCreate,
				},
				{
					Name:   "rekey",
					Usage:  "change passphrase of encrypted ledger database",
					Flags:  []cli.Flag{cli.IntFlag{Name: "iterations", Value: def.KDFIterationsDB, Usage: "new number of KDF iterations"}},
					Before: noArgs,
					Action: ce.dbRekey,
				},
				{
					Name:   "status",
					Usage:  "show DB status",
					Before: noArgs,
					Action: ce.dbStatus,
				},
				{
					Name:  "vacuum",
					Usage: "do full DB rebuild (VACUUM)",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "auto-vacuum",
							Usage: "also change auto_vacuum mode (NONE or FULL)",
						},
					},
					Before: noArgs,
					Action: ce.dbVacuum,
				},
			},
		},
		{
			Name:  "wallet",
			Usage: "commands for the token wallet",
			Subcommands: []cli.Command{
				{
					Name:      "earn",
					Usage:     "credit tokens to a category",
					ArgsUsage: "category amount",
					Flags:     txFlags(),
					Action:    ce.walletEarn,
				},
				{
					Name:      "spend",
					Usage:     "debit tokens from a category",
					ArgsUsage: "category amount",
					Flags:     txFlags(),
					Action:    ce.walletSpend,
				},
				{
					Name:      "balance",
					Usage:     "show balance of a category",
					ArgsUsage: "category",
					Action:    ce.walletBalance,
				},
				{
					Name:   "balances",
					Usage:  "show balances of all categories",
					Before: noArgs,
					Action: ce.walletBalances,
				},
				{
					Name:  "history",
					Usage: "show most recent transactions",
					Flags: []cli.Flag{
						cli.IntFlag{
							Name:  "limit",
							Value: def.HistoryLimit,
							Usage: "maximum number of transactions (0 shows all)",
						},
					},
					Before: noArgs,
					Action: ce.walletHistory,
				},
				{
					Name:      "transfer",
					Usage:     "move tokens to another account",
					ArgsUsage: "to-account category amount",
					Flags:     txFlags(),
					Action:    ce.walletTransfer,
				},
				{
					Name:   "clear",
					Usage:  "reset wallet to empty",
					Flags:  []cli.Flag{cli.BoolFlag{Name: "force", Usage: "do not ask for confirmation"}},
					Before: noArgs,
					Action: ce.walletClear,
				},
				{
					Name:   "dump",
					Usage:  "dump wallet document (for debugging)",
					Before: noArgs,
					Action: ce.walletDump,
				},
				{
					Name:  "pubkey",
					Usage: "show public key used to sign capsules",
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:  "create",
							Usage: "create signing key if it does not exist",
						},
					},
					Before: noArgs,
					Action: ce.walletPubkey,
				},
			},
		},
		{
			Name:  "chain",
			Usage: "commands for the play chain",
			Subcommands: []cli.Command{
				{
					Name:      "append",
					Usage:     "append JSON payload to play chain",
					ArgsUsage: "json",
					Action:    ce.chainAppend,
				},
				{
					Name:   "verify",
					Usage:  "verify hash links of play chain",
					Before: noArgs,
					Action: ce.chainVerify,
				},
				{
					Name:  "tail",
					Usage: "show last play chain entries",
					Flags: []cli.Flag{
						cli.IntFlag{
							Name:  "n",
							Value: def.TailLimit,
							Usage: "number of entries (0 shows all)",
						},
					},
					Before: noArgs,
					Action: ce.chainTail,
				},
				{
					Name:   "clear",
					Usage:  "reset play chain to empty",
					Flags:  []cli.Flag{cli.BoolFlag{Name: "force", Usage: "do not ask for confirmation"}},
					Before: noArgs,
					Action: ce.chainClear,
				},
			},
		},
		{
			Name:  "capsule",
			Usage: "export and import signed, encrypted account capsules",
			Subcommands: []cli.Command{
				{
					Name:  "export",
					Usage: "export wallet and play chain to capsule file",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "file", Usage: "capsule file to write"},
						cli.IntFlag{
							Name:  "iterations",
							Value: def.KDFIterationsCapsule,
							Usage: "number of KDF iterations",
						},
					},
					Before: noArgs,
					Action: ce.capsuleExport,
				},
				{
					Name:  "import",
					Usage: "verify capsule file and optionally restore it",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "file", Usage: "capsule file to read"},
						cli.BoolFlag{Name: "restore", Usage: "replace account documents with capsule content"},
					},
					Before: noArgs,
					Action: ce.capsuleImport,
				},
			},
		},
		{
			Name:   "audit",
			Usage:  "replay wallet history and verify play chain",
			Before: noArgs,
			Action: ce.audit,
		},
		{
			Name:   "shell",
			Usage:  "run interactive command shell",
			Before: noArgs,
			Action: ce.shell,
		},
		{
			Name:   "quit",
			Usage:  "leave the interactive shell",
			Before: noArgs,
			Action: ce.quit,
		},
	}
	return &ce
}

func txFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "source",
			Value: "portalctl",
			Usage: "source of the transaction",
		},
		cli.StringFlag{
			Name:  "description",
			Usage: "description of the transaction",
		},
	}
}
