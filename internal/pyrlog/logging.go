// Package pyrlog centralises the logging backend setup every other
// package's `log = logging.MustGetLogger(...)` ends up writing through,
// adapted from the teacher's src/cli/logging.go trimmed down to the
// plain stderr/file backends a one-shot generator needs — no
// interactive console redraw, since pyrate never runs builds itself.
package pyrlog

import (
	"os"
	"path"

	"gopkg.in/op/go-logging.v1"
)

// Verbosity mirrors logging.Level so callers outside this package
// don't need to import op/go-logging directly just to set it.
type Verbosity logging.Level

const (
	Critical Verbosity = Verbosity(logging.CRITICAL)
	Error    Verbosity = Verbosity(logging.ERROR)
	Warning  Verbosity = Verbosity(logging.WARNING)
	Notice   Verbosity = Verbosity(logging.NOTICE)
	Info     Verbosity = Verbosity(logging.INFO)
	Debug    Verbosity = Verbosity(logging.DEBUG)
)

var fileBackend logging.Backend

// InitLogging initialises the stderr logging backend at the given
// verbosity; -v on the CLI maps one-for-one onto these levels.
func InitLogging(verbosity Verbosity) {
	setBackend(logging.NewLogBackend(os.Stderr, "", 0), logging.Level(verbosity))
}

// InitFileLogging additionally tees logging to logFile at its own
// verbosity, independent of the stderr level.
func InitFileLogging(logFile string, verbosity Verbosity) error {
	if err := os.MkdirAll(path.Dir(logFile), 0o775); err != nil {
		return err
	}
	file, err := os.Create(logFile)
	if err != nil {
		return err
	}
	fileBackend = logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), formatter())
	fileLeveled := logging.AddModuleLevel(fileBackend)
	fileLeveled.SetLevel(logging.Level(verbosity), "")
	logging.SetBackend(currentStderrLeveled, fileLeveled)
	return nil
}

var currentStderrLeveled logging.Backend

func setBackend(backend logging.Backend, level logging.Level) {
	formatted := logging.NewBackendFormatter(backend, formatter())
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	currentStderrLeveled = leveled
	if fileBackend != nil {
		logging.SetBackend(leveled, fileBackend)
	} else {
		logging.SetBackend(leveled)
	}
}

func formatter() logging.Formatter {
	return logging.MustStringFormatter("%{time:15:04:05.000} %{level:7s}: %{message}")
}
