// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/cihub/seelog"
)

var logger seelog.LoggerInterface

// PrefixLen is the length every command prefix passed to Init must have, so
// that log lines of different binaries line up in a shared log directory.
const PrefixLen = 5

// maxLogSize is the size in bytes after which the log file is rolled.
const maxLogSize = 10 * 1024 * 1024

const configTemplate = `
<seelog type="adaptive" mininterval="2000000" maxinterval="100000000"
	critmsgcount="500" minlevel="%s">
	<outputs formatid="all">
		%s
		%s
	</outputs>
	<formats>
		<format id="all" format="%%UTCDate %%UTCTime [%s] [%%LEV] %%Msg%%n" />
	</formats>
</seelog>`

func init() {
	// disable logger by default
	logger = seelog.Disabled
}

// Init initializes the portal logging framework to the given logging level.
// If logDir is not empty logging is done to a rolling logfile in that
// directory. If logToConsole is true the console logging is activated.
// cmdPrefix must be exactly PrefixLen characters long.
// If the given level is invalid or the initialization fails, an error is
// returned.
func Init(logLevel, cmdPrefix, logDir string, logToConsole bool) error {
	if _, found := seelog.LogLevelFromString(logLevel); !found {
		return fmt.Errorf("log: level '%s' is invalid", logLevel)
	}
	if len(cmdPrefix) != PrefixLen {
		return fmt.Errorf("log: len(cmdPrefix) must be %d: \"%s\"", PrefixLen, cmdPrefix)
	}
	var console string
	if logToConsole {
		console = "<console />"
	}
	var file string
	if logDir != "" {
		logfile := path.Join(logDir, filepath.Base(os.Args[0])+".log")
		file = fmt.Sprintf("<rollingfile type=\"size\" filename=\"%s\" maxsize=\"%d\" maxrolls=\"3\" />",
			logfile, maxLogSize)
	}
	config := fmt.Sprintf(configTemplate, logLevel, console, file, cmdPrefix)
	newLogger, err := seelog.LoggerFromConfigAsString(config)
	if err != nil {
		return err
	}
	newLogger.SetAdditionalStackDepth(1)
	UseLogger(newLogger)
	Infof("%s started (built with %s %s for %s/%s)", os.Args[0],
		runtime.Compiler, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

// Flush flushes all the messages in the logger.
func Flush() {
	Infof("%s stopping", os.Args[0])
	logger.Flush()
}

// Critical formats message using the default formats for its operands and
// writes to default logger with log level = Critical.
// If the only operand is an error, it is logged and returned unchanged.
func Critical(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Critical(err)
			return err
		}
	}
	return logger.Critical(v...)
}

// Criticalf formats message according to format specifier and writes to
// default logger with log level = Critical.
func Criticalf(format string, params ...interface{}) error {
	return logger.Criticalf(format, params...)
}

// Error formats message using the default formats for its operands and writes
// to default logger with log level = Error.
// If the only operand is an error, it is logged and returned unchanged, which
// keeps sentinel errors comparable with errors.Is.
func Error(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Error(err)
			return err
		}
	}
	return logger.Error(v...)
}

// Errorf formats message according to format specifier and writes to default
// logger with log level = Error.
func Errorf(format string, params ...interface{}) error {
	return logger.Errorf(format, params...)
}

// Warn formats message using the default formats for its operands and writes
// to default logger with log level = Warn.
func Warn(v ...interface{}) error {
	if len(v) == 1 {
		if err, ok := v[0].(error); ok {
			logger.Warn(err)
			return err
		}
	}
	return logger.Warn(v...)
}

// Warnf formats message according to format specifier and writes to default
// logger with log level = Warn.
func Warnf(format string, params ...interface{}) error {
	return logger.Warnf(format, params...)
}

// Info writes to default logger with log level = Info.
func Info(v ...interface{}) {
	logger.Info(v...)
}

// Infof writes to default logger with log level = Info.
func Infof(format string, params ...interface{}) {
	logger.Infof(format, params...)
}

// Debug writes to default logger with log level = Debug.
func Debug(v ...interface{}) {
	logger.Debug(v...)
}

// Debugf writes to default logger with log level = Debug.
func Debugf(format string, params ...interface{}) {
	logger.Debugf(format, params...)
}

// Trace writes to default logger with log level = Trace.
func Trace(v ...interface{}) {
	logger.Trace(v...)
}

// Tracef writes to default logger with log level = Trace.
func Tracef(format string, params ...interface{}) {
	logger.Tracef(format, params...)
}

// UseLogger replaces the package logger with newLogger.
func UseLogger(newLogger seelog.LoggerInterface) {
	logger = newLogger
}

// SetLogWriter sends all log output (every level) to writer.
func SetLogWriter(writer io.Writer) error {
	if writer == nil {
		return errors.New("log: nil writer")
	}
	newLogger, err := seelog.LoggerFromWriterWithMinLevel(writer, seelog.TraceLvl)
	if err != nil {
		return err
	}
	UseLogger(newLogger)
	return nil
}
