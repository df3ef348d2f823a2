// Command emosic runs the EmoSic web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-emosic/internal/catalog"
	"github.com/justestif/go-emosic/internal/classifier"
	"github.com/justestif/go-emosic/internal/config"
	"github.com/justestif/go-emosic/internal/db"
	"github.com/justestif/go-emosic/internal/logging"
	"github.com/justestif/go-emosic/internal/sheets"
	"github.com/justestif/go-emosic/internal/web"
	webfs "github.com/justestif/go-emosic/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	logger.Info("catalog loaded", zap.Int("emotions", len(cat.Emotions())))

	// The classifier must be reachable before serving.
	model := classifier.NewHTTPProvider(cfg.Classifier)
	if _, err := model.Get(); err != nil {
		return fmt.Errorf("loading emotion model: %w", err)
	}
	logger.Info("emotion model ready", zap.String("url", cfg.Classifier.URL))

	if !cfg.FeedbackEnabled() {
		logger.Warn("no service account configured; feedback will not be logged")
	}
	feedbackSheet := sheets.NewProvider(cfg.Feedback)

	sessions, closeSessions, err := sessionStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:          cfg.Addr,
		Catalog:       cat,
		Classifier:    model,
		Feedback:      feedbackSheet,
		FeedbackSheet: cfg.Feedback.SpreadsheetName,
		Sessions:      sessions,
		Logger:        logger,
		TemplatesFS:   templates,
		StaticFS:      static,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// sessionStore picks PostgreSQL when DATABASE_URL is set and memory otherwise.
func sessionStore(cfg *config.Config, logger *zap.Logger) (web.SessionManager, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory sessions")
		return web.NewSessionStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	removed, err := database.Sessions().DeleteExpired(ctx)
	if err != nil {
		logger.Warn("pruning expired sessions", zap.Error(err))
	} else {
		logger.Info("using database sessions", zap.Int64("expired_removed", removed))
	}

	return web.NewDBSessionStore(database), database.Close, nil
}
