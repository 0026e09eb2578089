package types

import (
	"bytes"
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the controller, satisfied by logrus
type Logger interface {
	Info(...interface{})
	Warn(...interface{})
	Debug(...interface{})
	Error(...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	WithField(key string, value interface{}) *log.Entry
	SetLevel(level log.Level)
	GetLevel() log.Level
	SetOutput(writer io.Writer)
	SetFormatter(formatter log.Formatter)
}

func NewLogger() Logger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// NewNullLogger discards everything, used in tests
func NewNullLogger() Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// NewBufferLogger stores all logs in b, used in tests
func NewBufferLogger(b *bytes.Buffer) Logger {
	logger := log.New()
	logger.SetOutput(b)
	logger.SetFormatter(&log.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return logger
}

func IsDebug(l Logger) bool {
	return l.GetLevel() >= log.DebugLevel
}
