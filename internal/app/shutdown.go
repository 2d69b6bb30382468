package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rd-card-scraper/internal/observability"
)

// GracefulShutdown отменяет context по SIGINT/SIGTERM или по истечении runTimeout.
// Нулевой runTimeout означает прогон без ограничения по времени.
func GracefulShutdown(logger *observability.Logger, runTimeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if runTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), runTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Канал для сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
