// Package logging sets up the CLI's structured logger: JSON lines to stdout
// and a size-rotated log file, the way NebulaLink's agent logger does it.
package logging

import (
	"io"
	"os"

	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init builds and installs the default *slog.Logger, writing JSON lines to
// both stdout and logFilePath (rotated at 10MB; with MaxBackups and MaxAge
// at 0, lumberjack keeps every rotated file).
func Init(logFilePath string) *slog.Logger {
	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10,
		MaxBackups: 0,
		MaxAge:     0,
		Compress:   false,
	}
	writer := io.MultiWriter(os.Stdout, rotator)
	log := slog.New(slog.NewJSONHandler(writer, nil))
	slog.SetDefault(log)
	return log
}
