package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/battlesnake-replay/internal/config"
	"github.com/DoyleJ11/battlesnake-replay/internal/grid"
	"github.com/DoyleJ11/battlesnake-replay/internal/httpapi"
	"github.com/DoyleJ11/battlesnake-replay/internal/hub"
	"github.com/DoyleJ11/battlesnake-replay/internal/logging"
	"github.com/DoyleJ11/battlesnake-replay/internal/replay"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <states-file>\n", os.Args[0])
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(statesFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.DevLogging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := replay.LoadFile(statesFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", statesFile, err)
	}
	projector, err := grid.New(store)
	if err != nil {
		return fmt.Errorf("load %s: %w", statesFile, err)
	}
	logger.Info("loaded states file",
		zap.String("path", statesFile),
		zap.Int("turns", store.Count()),
		zap.Strings("snakes", projector.Identities().IDs()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, cfg.PlaybackInterval, logger)
	if h.Create(ctx, cfg.DefaultMatch, projector) == nil {
		return errors.New("failed to register default match")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
