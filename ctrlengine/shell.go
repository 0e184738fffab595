// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrlengine

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/pewpi-infinity/portal/log"
	"github.com/urfave/cli"
)

func buildCmdList(commands []cli.Command, prefix string) []string {
	var cmds []string
	for _, cmd := range commands {
		if cmd.Subcommands != nil {
			cmds = append(cmds, buildCmdList(cmd.Subcommands, prefix+cmd.Name+" ")...)
		} else {
			cmds = append(cmds, prefix+cmd.Name)
		}
	}
	return cmds
}

func complete(commands []string, line string) (c []string) {
	for _, command := range commands {
		if strings.HasPrefix(command, line) {
			c = append(c, command)
		}
	}
	return
}

// runLine executes a single shell line. It returns errExit if the shell
// should stop.
func (ce *CtrlEngine) runLine(ln string) error {
	fields := strings.Fields(ln)
	if len(fields) == 0 {
		log.Infof("read empty line")
		return nil
	}
	log.Infof("read: %s", ln)
	if fields[0] == "shell" {
		return log.Error("ctrlengine: already in shell")
	}
	args := append([]string{ce.app.Name}, ce.globals...)
	return ce.app.Run(append(args, fields...))
}

// shell runs the CtrlEngine in a loop and reads commands with liner until
// 'quit' is entered or the input ends. The store stays open between
// commands, so the passphrase is only read once.
func (ce *CtrlEngine) shell(c *cli.Context) error {
	log.Info("ctrlengine: starting shell")
	ce.interactive = true
	defer func() { ce.interactive = false }()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	commands := buildCmdList(c.App.Commands, "")
	line.SetCompleter(func(ln string) []string {
		return complete(commands, ln)
	})

	for {
		fmt.Fprintf(ce.status, "account: %s\n", c.GlobalString("account"))
		fmt.Fprintln(ce.status, "READY.")
		ln, err := line.Prompt("")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(ce.status, "aborting...")
			}
			log.Info("ctrlengine: stopping shell (error)")
			log.Error(err)
			return nil
		}
		line.AppendHistory(ln)
		if err := ce.runLine(ln); err != nil {
			if err == errExit {
				log.Info("ctrlengine: stopping shell (exit requested)")
				return nil
			}
			// command execution failed -> issue status and continue
			log.Infof("command execution failed: %s", err)
			fmt.Fprintln(ce.status, err)
			continue
		}
		log.Info("command successful")
	}
}

func (ce *CtrlEngine) quit(c *cli.Context) error {
	if !ce.interactive {
		return log.Error("ctrlengine: quit is only valid in the shell")
	}
	return errExit
}
