package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wine-concierge-be/internal/bootstrap"
	"wine-concierge-be/internal/config"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/server"
	"wine-concierge-be/internal/tracer"
)

func main() {
	// 1. Configuration & logging
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	err := run(cfg, sysLogger)
	if err != nil {
		sysLogger.Error("MAIN", "fatal", map[string]interface{}{"error": err})
	}
	_ = sysLogger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every deferred cleanup so they finish before main decides the exit code.
func run(cfg *config.Config, sysLogger logger.ILogger) error {
	// 2. Tracing
	shutdownTracer := tracer.InitTracer(sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Dependencies
	container, err := bootstrap.NewContainer(cfg, sysLogger)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Index & catalog. A failed startup build leaves the service up
	// without an index; document questions answer with the no-documents notice.
	if err := container.DocumentService.SyncCatalog(ctx); err != nil {
		sysLogger.Warn("MAIN", "catalog sync failed", map[string]interface{}{"error": err.Error()})
	}
	if err := container.IndexService.Ensure(ctx); err != nil {
		sysLogger.Error("MAIN", "startup index build failed", map[string]interface{}{"error": err})
	}

	// 5. Background workers
	if err := container.ConsumerService.Consume(ctx); err != nil {
		sysLogger.Error("MAIN", "rebuild consumer failed to start", map[string]interface{}{"error": err})
	}
	if container.Watcher != nil {
		go func() {
			if err := container.Watcher.Run(ctx); err != nil {
				sysLogger.Error("MAIN", "docs watcher stopped", map[string]interface{}{"error": err})
			}
		}()
	}

	// 6. HTTP
	srv := server.New(cfg, container)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		sysLogger.Info("MAIN", "shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
