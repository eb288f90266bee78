// Package logger provides logging for songvault with dual backends:
// stderr at the configured level and a log file at DEBUG level.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"songvault/config"

	"github.com/op/go-logging"
)

const timeFormat = "2006/01/02 15:04:05"

var (
	logger  = logging.MustGetLogger(config.GetName())
	logFile *os.File
)

// InitLogger initializes the stderr and file logging backends.
// Stderr logging uses the specified level, file logging always uses DEBUG.
func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger(config.GetName())
	backends := make([]logging.Backend, 0, 2)

	stderrBackend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(stderrBackend, newFormatter(true))
	leveledBackend := logging.AddModuleLevel(formatted)
	leveledBackend.SetLevel(level, config.GetName())
	backends = append(backends, leveledBackend)

	if fileBackend := initFileBackend(); fileBackend != nil {
		leveledFileBackend := logging.AddModuleLevel(fileBackend)
		leveledFileBackend.SetLevel(logging.DEBUG, config.GetName())
		backends = append(backends, leveledFileBackend)
	}

	newLogger.SetBackend(logging.MultiLogger(backends...))
	logger = newLogger
}

// initFileBackend creates the file logging backend, creating the log
// directory if needed. Returns nil if the file cannot be opened.
func initFileBackend() logging.Backend {
	logPath := config.GetLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "file logging disabled: %v\n", err)
		return nil
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		fmt.Fprintf(os.Stderr, "file logging disabled: %v\n", err)
		return nil
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	backend := logging.NewLogBackend(file, "", 0)
	return logging.NewBackendFormatter(backend, newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// CloseLogger closes the log file. Should be called during shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warning(args ...any) {
	logger.Warning(args...)
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
