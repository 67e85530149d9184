package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/config"
	"github.com/sadopc/studydesk/internal/logger"
	"github.com/sadopc/studydesk/internal/store"
	"github.com/sadopc/studydesk/internal/tui"
)

const defaultStudentName = "Student"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.New(cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	svc := tui.NewServices(s, cfg.Export.Dir, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := svc.Students.GetOrCreate(ctx, defaultStudentName); err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	streak, err := svc.Students.CheckIn(ctx, svc.Now(), svc.Prefs)
	if err != nil {
		log.Warn("streak check-in failed", zap.Error(err))
	}
	log.Info("starting", zap.String("db", cfg.Database.Path), zap.Int("streak", streak))

	p := tea.NewProgram(tui.NewApp(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
