package logflags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var gdbarch = false
var regcache = false
var gdbWire = false
var target = false
var session = false
var terminal = false

var logOut io.WriteCloser

func makeLogger(level logrus.Level, fields Fields) Logger {
	if lf := loggerFactory; lf != nil {
		return lf(level, fields, logOut)
	}
	logger := logrus.New().WithFields(logrus.Fields(fields))
	logger.Logger.Formatter = textFormatterInstance
	if logOut != nil {
		logger.Logger.Out = logOut
	}
	logger.Logger.Level = level
	return &logrusLogger{logger}
}

func makeFlaggableLogger(flag bool, fields Fields) Logger {
	if flag {
		return makeLogger(logrus.DebugLevel, fields)
	}
	return makeLogger(logrus.ErrorLevel, fields)
}

// Gdbarch returns true if the architecture registry should log the
// construction and selection of architectures.
func Gdbarch() bool {
	return gdbarch
}

// GdbarchLogger returns a logger for the gdbarch package.
func GdbarchLogger() Logger {
	return makeFlaggableLogger(gdbarch, Fields{"layer": "gdbarch"})
}

// Regcache returns true if register cache fetches, stores and invalidations
// should be logged.
func Regcache() bool {
	return regcache
}

// RegcacheLogger returns a logger for the regcache package.
func RegcacheLogger() Logger {
	return makeFlaggableLogger(regcache, Fields{"layer": "regcache"})
}

// GdbWire returns true if the gdbserial package should log all the packets
// exchanged with the stub.
func GdbWire() bool {
	return gdbWire
}

// GdbWireLogger returns a configured logger for the gdbserial wire protocol.
func GdbWireLogger() Logger {
	return makeFlaggableLogger(gdbWire, Fields{"layer": "gdbconn"})
}

// Target returns true if target backends should log.
func Target() bool {
	return target
}

// TargetLogger returns a logger for target backends.
func TargetLogger() Logger {
	return makeFlaggableLogger(target, Fields{"layer": "target"})
}

// Session returns true if the session package should log.
func Session() bool {
	return session
}

// SessionLogger returns a logger for the session package.
func SessionLogger() Logger {
	return makeFlaggableLogger(session, Fields{"layer": "session"})
}

// Terminal returns true if the terminal should log.
func Terminal() bool {
	return terminal
}

// TerminalLogger returns a logger for the terminal.
func TerminalLogger() Logger {
	return makeFlaggableLogger(terminal, Fields{"layer": "terminal"})
}

// WriteError writes an error message to the log, regardless of whether
// logging is enabled.
func WriteError(msg string) {
	if logOut != nil {
		fmt.Fprintln(logOut, msg)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets debugger flags based on the contents of logstr.
// If logDest is not empty logs will be redirected to the file descriptor or
// file path specified by logDest.
func Setup(logFlag bool, logstr, logDest string) error {
	if logDest != "" {
		n, err := strconv.Atoi(logDest)
		if err == nil {
			logOut = os.NewFile(uintptr(n), "dbgcore-logs")
		} else {
			fh, err := os.Create(logDest)
			if err != nil {
				return fmt.Errorf("could not create log file: %v", err)
			}
			logOut = fh
		}
	}
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "gdbarch"
	}
	v := strings.Split(logstr, ",")
	for _, logcmd := range v {
		// If adding another value, do make sure to
		// update "Help about logging flags" in commands.go.
		switch logcmd {
		case "gdbarch":
			gdbarch = true
		case "regcache":
			regcache = true
		case "gdbwire":
			gdbWire = true
		case "target":
			target = true
		case "session":
			session = true
		case "terminal":
			terminal = true
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown log output value %q, run 'dbgcore help log' for usage.\n", logcmd)
		}
	}
	return nil
}

// Close closes the logger output.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}

// textFormatter is a simplified version of logrus.TextFormatter that
// doesn't make logs unreadable when they are output to a text file or to a
// terminal that doesn't support colors.
type textFormatter struct {
}

var textFormatterInstance = &textFormatter{}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s %s ", entry.Time.Format("2006-01-02T15:04:05Z07:00"), strings.ToLower(entry.Level.String()))
	for k, v := range entry.Data {
		fmt.Fprintf(b, "%s=%v,", k, v)
	}
	if len(entry.Data) > 0 {
		b.Truncate(b.Len() - 1)
		b.WriteByte(' ')
	}
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}
