package util

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

var std = newStdLogger()

func newStdLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Logger returns the process-wide logger. Components keep it as a
// logrus.FieldLogger so tests can swap in a hooked logger.
func Logger() logrus.FieldLogger {
	return std
}

func SetLevel(level LogLevel) {
	std.SetLevel(level.logrusLevel())
}

// SetFormat switches between "text" and "json" output.
func SetFormat(format string) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Debug(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	std.Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	std.Fatalf(format, v...)
}
