package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/five82/ticklist/internal/config"
	"github.com/five82/ticklist/internal/prefs"
	"github.com/five82/ticklist/internal/ui"
)

// Options configure the ticklist application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/ticklist/prefs.toml
}

// Run boots the ticklist TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := OpenLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	backend, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if cfg.SyncInterval > 0 {
		StartPoller(ctx, backend.Store, cfg.SyncInterval, logger)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   backend.Session,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
	})
}

// LoadConfig reads .env from the working directory, then the config file.
func LoadConfig(path string) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// OpenLog appends to the log file at path, creating its directory. The TUI
// owns the terminal, so nothing may log to stderr while it runs.
func OpenLog(path string) (*log.Logger, func() error, error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(file, "ticklist ", log.LstdFlags), file.Close, nil
}
