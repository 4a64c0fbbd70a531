package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"phenomap/config"
	"phenomap/db"
	qhttp "phenomap/http"
	"phenomap/inference"
	"phenomap/logger"
	"phenomap/ml"
	"phenomap/schema"
)

func main() {
	// Look for config in root even if run from cmd/
	configPath := config.Find("config.yaml")

	// 1. Load config
	cfg, err := config.Load(configPath)
	if os.IsNotExist(err) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(cfg.Log)
	defer zl.Sync()
	qhttp.SetLogger(zl)

	// 2. Open the assignment journal (optional)
	var journal *db.Journal
	if cfg.Journal.Path != "" {
		journal, err = db.Open(cfg.Journal.Path)
		if err != nil {
			zl.Fatal("failed to open journal", zap.String("path", cfg.Journal.Path), zap.Error(err))
		}
		defer journal.Close()
		qhttp.SetJournal(journal)
		zl.Info("journal opened", zap.String("path", cfg.Journal.Path))
	}

	// 3. Load models
	if err := initializeServices(cfg, zl, journal); err != nil {
		zl.Fatal("failed to initialize services", zap.Error(err))
	}

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	if err := server.Stop(); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("exiting")
}

// initializeServices loads each configured model once. A failed load
// disables only that form; the form reports the load error.
func initializeServices(cfg *config.Config, zl *zap.Logger, journal *db.Journal) error {
	store, err := ml.NewStore(len(cfg.Models), zl)
	if err != nil {
		return err
	}
	for name, path := range cfg.Models {
		s, err := schema.Lookup(name)
		if err != nil {
			return err
		}
		if path == "" {
			continue
		}
		model, err := store.Get(path, s)
		if err != nil {
			qhttp.SetModelError(name, err)
			continue
		}
		opts := []inference.Option{inference.WithLogger(zl)}
		if journal != nil {
			opts = append(opts, inference.WithJournal(journal))
		}
		qhttp.SetService(inference.NewService(s, model, opts...))
	}
	return nil
}
