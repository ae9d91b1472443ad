package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	app "github.com/rocketscienceinc/fifo-tictactoe/internal"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/config"
)

const (
	configEnv  = "TTT_CONFIG"
	configFile = "config.yml"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tictactoe: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	path, err := configPath()
	if err != nil {
		return err
	}

	conf := config.MustLoad(path)
	logger := newLogger(conf.LogLevel)
	logger.Info("config loaded", "path", path, "opponent", conf.Match.Opponent)

	if err = app.RunApp(logger, conf); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

// configPath prefers TTT_CONFIG, then config.yml in the working directory.
func configPath() (string, error) {
	if path := os.Getenv(configEnv); path != "" {
		return path, nil
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return filepath.Join(baseDir, configFile), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level

	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
