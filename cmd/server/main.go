package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dealerops/funnel-etl-go/internal/config"
	"github.com/dealerops/funnel-etl-go/internal/httpx"
	"github.com/dealerops/funnel-etl-go/internal/ingest"
	"github.com/dealerops/funnel-etl-go/internal/observability"
	"github.com/dealerops/funnel-etl-go/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := observability.NewLogger(cfg.LogLevel)

	client := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewSnapshotStore()
	loader := ingest.NewLoader(client, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(log, cfg, st, loader, client),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", slog.String("err", err.Error()))
	}
	log.Info("stopped")
}
