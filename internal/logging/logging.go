// Package logging constructs the loggers used across the daemon.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger with the given bracketed prefix writing to stderr.
func New(prefix string) *log.Logger {
	return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags)
}

// NewWithFile returns a logger writing to both stderr and a rotating log
// file. Rotation keeps 5 backups of 10 MB each, compressed.
func NewWithFile(prefix, path string) *log.Logger {
	if path == "" {
		return New(prefix)
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	return log.New(io.MultiWriter(os.Stderr, rotator), "["+prefix+"] ", log.LstdFlags)
}
