package util

import (
	"fmt"
	"log"
	"os"
)

const debugEnvKey = "STYLEPIPE_DEBUG"

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
}

type colorLogger struct {
	label string
}

func NewColorLogger(label string) Logger {
	return &colorLogger{label: label}
}

// GetIsDebug reports whether debug lines should be printed.
func GetIsDebug() bool {
	return os.Getenv(debugEnvKey) == "true"
}

func (l *colorLogger) logf(level, format string, args ...interface{}) {
	colorCode := ""
	switch level {
	case "debug":
		colorCode = "\033[90m" // Gray
	case "info":
		colorCode = "\033[36m" // Light blue
	case "warning":
		colorCode = "\033[33m" // Yellow
	case "error", "panic":
		colorCode = "\033[31m" // Red
	}
	labelToUse := l.label
	if len(labelToUse) < 9 {
		labelToUse = fmt.Sprintf("%-9s", labelToUse)
	}
	log.Printf(" %s %s%s\033[0m\n", labelToUse, colorCode, fmt.Sprintf(format, args...))
}

func (l *colorLogger) Debugf(format string, args ...interface{}) {
	if !GetIsDebug() {
		return
	}
	l.logf("debug", format, args...)
}

func (l *colorLogger) Infof(format string, args ...interface{}) {
	l.logf("info", format, args...)
}

func (l *colorLogger) Warningf(format string, args ...interface{}) {
	l.logf("warning", format, args...)
}

func (l *colorLogger) Errorf(format string, args ...interface{}) {
	l.logf("error", format, args...)
}

func (l *colorLogger) Panicf(format string, args ...interface{}) {
	l.logf("panic", format, args...)
	panic(fmt.Sprintf(format, args...))
}

var Log Logger = NewColorLogger("stylepipe")
