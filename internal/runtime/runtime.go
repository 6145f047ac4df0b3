package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/purrlabs/purr-server/internal/audio"
	"github.com/purrlabs/purr-server/internal/config"
	"github.com/purrlabs/purr-server/internal/engine"
	"github.com/purrlabs/purr-server/internal/history"
	"github.com/purrlabs/purr-server/internal/notify"
	"github.com/purrlabs/purr-server/internal/pipeline"
	"github.com/purrlabs/purr-server/internal/server"
	"github.com/purrlabs/purr-server/internal/voices"
)

// Runtime assembles the service from config and runs it until the context
// is cancelled.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	store, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	notifier, err := notify.Connect(ctx, r.cfg.Notify, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect notifier: %w", err)
	}
	defer notifier.Close()

	eng, err := newEngine(r.cfg.Engine)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	encoder, err := audio.NewEncoder(r.cfg.Encoder.MP3Command)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	registry := voices.NewRegistry(r.cfg.Voices)

	pipe, err := pipeline.New(r.cfg.Pipeline, eng, registry, encoder, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	api := server.New(pipe, registry, store, notifier, r.cfg.Engine.DefaultVoice, r.logger)

	mux := http.NewServeMux()
	api.Register(mux)
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("engine", r.cfg.Engine.Mode))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func newEngine(cfg config.EngineConfig) (engine.Engine, error) {
	switch cfg.Mode {
	case "exec":
		return engine.NewExecEngine(cfg.Command, cfg.SampleRate)
	default:
		return engine.NewMockEngine(cfg.SampleRate), nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
