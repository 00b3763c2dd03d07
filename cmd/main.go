package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/brightnest/reliability/internal/adapters/events"
	"github.com/brightnest/reliability/internal/adapters/http/api"
	app "github.com/brightnest/reliability/internal/app"
	"github.com/brightnest/reliability/internal/config"
	"github.com/brightnest/reliability/internal/domain/scoring"
	"github.com/brightnest/reliability/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// The custom registry in pkg/metrics carries the service metrics; the
	// default Go collectors would only duplicate scrapes.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Err(err))
		_ = logger.SetLevelString("info")
	}

	engine := scoring.NewEngine(
		scoring.WithWeights(scoring.WeightsFromConfig(cfg.Weights)),
		scoring.WithGraceWindow(time.Duration(cfg.GraceWindowMinutes)*time.Minute),
		scoring.WithLateCancelWindow(time.Duration(cfg.LateCancelHours)*time.Hour),
		scoring.WithMinPhotos(cfg.MinPhotos),
		scoring.WithMinHistory(cfg.MinHistory),
	)

	emitter := events.NewDedupeEmitter(
		events.NewLogEmitter(log),
		events.WithMaxSize(cfg.EventDedupeSize),
	)

	svc := app.New(
		app.WithLogger(log),
		app.WithEngine(engine),
		app.WithEmitter(emitter),
		app.WithWorkerCount(cfg.BatchWorkers),
		app.WithBatchSchedule(cfg.BatchSchedule),
		app.WithBatchEnabled(cfg.BatchEnabled),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Err(err))
	}

	log.Info(ctx, "server stopped")
}
