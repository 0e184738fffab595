// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package util contains utility functions shared by the portal binaries.
package util

import (
	"bufio"
	"fmt"
	"os"

	"github.com/frankbraun/codechain/util/file"
	"github.com/pewpi-infinity/portal/log"
	"golang.org/x/crypto/ssh/terminal"
)

// Fatal prints err to stderr and exits the process with exit code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s: error: %s\n", os.Args[0], err)
	os.Exit(1)
}

// Readline reads a single line from the file pointer fp.
// If fp is a terminal the input is not echoed (passphrases).
// It does not close fp, so a passphrase-fd can be read more than once.
func Readline(fp *os.File) ([]byte, error) {
	fd := int(fp.Fd())
	if terminal.IsTerminal(fd) {
		line, err := terminal.ReadPassword(fd)
		if err != nil {
			return nil, log.Error(err)
		}
		return line, nil
	}
	return ReadlineScanner(bufio.NewScanner(fp))
}

// ReadlineScanner returns the next line of scanner.
// It returns an error if there is no next line.
func ReadlineScanner(scanner *bufio.Scanner) ([]byte, error) {
	if scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		return line, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, log.Error(err)
	}
	return nil, log.Error("util: unexpected end of input")
}

// CreateDirs creates all given directories.
func CreateDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return log.Error(err)
		}
	}
	return nil
}

// Exists reports whether filename exists.
func Exists(filename string) (bool, error) {
	exists, err := file.Exists(filename)
	if err != nil {
		return false, log.Error(err)
	}
	return exists, nil
}

// ContainsString returns true, if the the string array sa contains the string s.
// Otherwise, it returns false.
func ContainsString(sa []string, s string) bool {
	for _, v := range sa {
		if v == s {
			return true
		}
	}
	return false
}
