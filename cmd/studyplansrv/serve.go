package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/assistant"
	"github.com/benjamonnguyen/studyplan/auth"
	"github.com/benjamonnguyen/studyplan/httpapi"
	"github.com/benjamonnguyen/studyplan/planner"
	"github.com/benjamonnguyen/studyplan/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	// conf
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck

	// db
	db, err := sqlite.Open(cfg.Database.URL)
	if err != nil {
		logger.Error("failed database open", "url", cfg.Database.URL, "error", err)
		return err
	}
	defer db.Close() //nolint:errcheck
	if err := db.Migrate(); err != nil {
		logger.Error("failed migration", "error", err)
		return err
	}

	tx, dbGetter := db.Transactor()

	// repos
	userRepo := sqlite.NewUserRepo(dbGetter, logger)
	taskRepo := sqlite.NewTaskRepo(dbGetter, logger)
	courseRepo := sqlite.NewCourseRepo(dbGetter, logger)
	sessionRepo := sqlite.NewSessionRepo(dbGetter, logger)

	// auth
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret.Value(), cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher := auth.Hasher{Cost: cfg.Auth.BcryptCost}

	// assistant
	completer, err := newCompleter(cfg.Assistant, logger)
	if err != nil {
		return err
	}

	// svcs
	svcs := httpapi.Services{
		Accounts:  planner.NewAccountSvc(userRepo, hasher, issuer, logger),
		Tasks:     planner.NewTaskSvc(tx, taskRepo, courseRepo, logger),
		Courses:   planner.NewCourseSvc(tx, courseRepo, logger),
		Sessions:  planner.NewSessionSvc(tx, sessionRepo, taskRepo, logger),
		Stats:     planner.NewStatsSvc(tx, taskRepo, sessionRepo),
		Assistant: assistant.NewService(taskRepo, courseRepo, completer, cfg.Assistant.Timeout, logger),
	}

	srv, err := httpapi.NewServer(svcs, issuer, logger, &httpapi.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newCompleter(cfg studyplan.AssistantConfig, logger studyplan.Logger) (assistant.Completer, error) {
	if !cfg.APIKey.IsSet() {
		logger.Warn("assistant api key not set; /assistant will return 502")
		return assistant.Disabled{}, nil
	}
	return assistant.NewOpenAICompleter(assistant.LLMConfig{
		APIKey:    cfg.APIKey.Value(),
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	})
}
