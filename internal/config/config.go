// Package config loads livestream-cat's runtime settings from the
// environment (optionally via a .env file), the way NebulaLink's agent
// config package does: godotenv.Load, then os.Getenv with fallbacks,
// exposed through getter methods so the loaded values can't be mutated
// from outside the package.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBufferSize  = 1 << 20 // 1 MiB
	defaultReadTimeout = 500 * time.Millisecond
	defaultLogFile     = "livestream-cat.log"
)

// Config holds livestream-cat's tunables. Fields are unexported to prevent
// modification after New returns.
type Config struct {
	bufferSize  uint64
	readTimeout time.Duration
	logFile     string
}

// New loads configuration from the environment, falling back to a .env
// file in the working directory if present, and then to built-in defaults.
func New() *Config {
	_ = godotenv.Load() // ignore error if .env not found

	bufferSize := defaultBufferSize
	if v, err := strconv.Atoi(os.Getenv("LIVESTREAM_BUFFER_SIZE")); err == nil && v > 0 {
		bufferSize = v
	}

	readTimeout := defaultReadTimeout
	if v, err := strconv.Atoi(os.Getenv("LIVESTREAM_READ_TIMEOUT_MS")); err == nil && v > 0 {
		readTimeout = time.Duration(v) * time.Millisecond
	}

	logFile := os.Getenv("LIVESTREAM_LOG_FILE")
	if logFile == "" {
		logFile = defaultLogFile
	}

	return &Config{
		bufferSize:  uint64(bufferSize),
		readTimeout: readTimeout,
		logFile:     logFile,
	}
}

func (c *Config) BufferSize() uint64 {
	return c.bufferSize
}

func (c *Config) ReadTimeout() time.Duration {
	return c.readTimeout
}

func (c *Config) LogFile() string {
	return c.logFile
}
