package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/mailterm/internal/app"
	"github.com/nhle/mailterm/internal/cache"
	"github.com/nhle/mailterm/internal/fetch"
	"github.com/nhle/mailterm/internal/model"
)

func main() {
	cfgPath := model.DefaultConfigPath()
	cacheDir := model.DefaultCacheDir()

	// The terminal belongs to the TUI; logs go to a file next to the cache.
	log := openLogger(cacheDir)

	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		// LoadConfig degrades to defaults on its own; this is belt and braces.
		cfg = &model.AppConfig{}
	}

	snapshots := cache.New(cacheDir, log)
	coord := fetch.NewCoordinator(snapshots, log)

	p := tea.NewProgram(
		app.New(cfg, cfgPath, coord, log),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mailterm: %v\n", err)
		os.Exit(1)
	}
}

func openLogger(dir string) zerolog.Logger {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop()
	}

	f, err := os.OpenFile(
		filepath.Join(dir, "mailterm.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o600,
	)
	if err != nil {
		return zerolog.Nop()
	}

	return zerolog.New(f).With().Timestamp().Logger()
}
