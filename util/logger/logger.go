package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/op/go-logging"
)

const fileFormat = "[%{level}] %{message}"
const terminalFormat = "%{color}[%{level}]%{color:reset} %{message}"

/*
InitLogger creates and returns a logger suitable for logging
human-readable message. Also returns the path to the log file.

If logDir is empty, the logger writes to stderr and the returned
path is empty. Output to a terminal is colorized.
*/
func InitLogger(logDir string, logLevel logging.Level) (*logging.Logger, string, error) {
	processName := path.Base(os.Args[0])
	if logDir == "" {
		format := fileFormat
		if isatty.IsTerminal(os.Stderr.Fd()) {
			format = terminalFormat
		}
		return NewLogger(processName, os.Stderr, format, logLevel), "", nil
	}
	filename := filepath.Join(logDir, fmt.Sprintf("%s.log", processName))
	writer, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("Cannot open log file '%s': %v", filename, err)
	}
	return NewLogger(processName, writer, fileFormat, logLevel), filename, nil
}

// NewLogger returns a logger for module that writes to writer. The
// logger gets its own backend, so loggers for different modules (or
// different tests) don't step on each other.
func NewLogger(module string, writer io.Writer, format string, logLevel logging.Level) *logging.Logger {
	log := logging.MustGetLogger(module)
	logBackend := logging.NewLogBackend(writer, "", stdlog.LstdFlags|stdlog.LUTC)
	formatted := logging.NewBackendFormatter(logBackend, logging.MustStringFormatter(format))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logLevel, module)
	log.SetBackend(leveled)
	return log
}
