package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/spf13/viper"
)

// LogFile is the name of the log written while the TUI owns the terminal.
const LogFile = "kokoro.log"

// setupLog configures the logger for headless commands, which log to
// stderr.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.TimeOnly)
	log.SetLevel(log.InfoLevel)
	return func() error { return nil }, nil
}

// logToFile sends the log to the cache folder so it does not draw over
// the TUI.
func logToFile() (func() error, error) {
	path := filepath.Join(config.CacheDir(), LogFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log folder: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetTimeFormat(time.DateTime)
	if !viper.GetBool("debug") {
		log.SetLevel(log.InfoLevel)
	}
	log.Debug("Logging to file", "path", path)
	return f.Close, nil
}
