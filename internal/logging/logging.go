// Package logging builds the diagnostic logger from configuration.
// User-facing output does not go through it.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smileynet/addressbook/internal/config"
)

// Level returns the zap level for cfg. verbose forces debug.
func Level(cfg config.Log, verbose bool) (zapcore.Level, error) {
	if verbose {
		return zapcore.DebugLevel, nil
	}
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

// New builds a JSON logger writing to cfg.File, or to stderr when cfg.File is
// empty. The returned close func syncs the logger and closes the log file.
func New(cfg config.Log, verbose bool) (*zap.Logger, func() error, error) {
	lvl, err := Level(cfg, verbose)
	if err != nil {
		return nil, nil, err
	}

	if cfg.File == "" {
		logger := NewWriter(os.Stderr, lvl)
		// Sync on stderr fails on some terminals; there is nothing to flush.
		return logger, func() error { _ = logger.Sync(); return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: opening %s: %w", cfg.File, err)
	}
	logger := NewWriter(f, lvl)
	closeFn := func() error {
		_ = logger.Sync()
		if err := f.Close(); err != nil {
			return fmt.Errorf("logging: closing %s: %w", cfg.File, err)
		}
		return nil
	}
	return logger, closeFn, nil
}

// NewWriter builds a JSON logger at lvl writing to w.
func NewWriter(w io.Writer, lvl zapcore.Level) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core).Named("addressbook")
}
