package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"newsrelay/internal/sweeper"
	"newsrelay/pkg/config"
	"newsrelay/pkg/content"
	"newsrelay/pkg/dedup"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/pipeline"
	"newsrelay/pkg/transport"
)

// App encapsulates the relay components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	store *dedup.Store
	pipe  *pipeline.Pipeline
	feeds map[string]struct{}

	srv *http.Server
}

// New initializes resources that do not require a running context: the
// dedup store, the sink sender and the pipeline wiring. Startup
// connectivity failures are returned to the caller; recovering from
// those is the process supervisor's job, not ours.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	cfg := eff.Config
	logger.InitWithLevel(cfg.Logging.Level)

	store, err := dedup.Open(eff.DBPath, cfg.Dedup.TTL.Duration(), cfg.Dedup.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}
	if err := store.EnsureIndexes(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("dedup store indexes: %w", err)
	}

	sender := transport.NewWebhookSender(
		cfg.Publish.WebhookURL,
		cfg.Publish.SendTimeout.Duration(),
		cfg.Publish.DefaultRetry.Duration(),
	)
	classifier := content.KindClassifier{
		Cleaner:       content.Cleaner{MinLen: cfg.Content.MinTextLen, MaxLen: cfg.Content.MaxTextLen},
		Formatter:     content.Formatter{Signature: cfg.Content.Signature},
		MaxMediaBytes: cfg.Content.MaxMediaBytes.Int64(),
	}

	feeds := make(map[string]struct{}, len(cfg.Sources.Feeds))
	for _, f := range cfg.Sources.Feeds {
		feeds[f] = struct{}{}
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		store:     store,
		pipe:      pipeline.New(cfg, store, sender, classifier),
		feeds:     feeds,
	}
	return a, nil
}

// Run starts the pipeline, the TTL sweeper and the ops HTTP server, and
// blocks until ctx is cancelled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	logger.Info("starting_newsrelay",
		"version", a.version,
		"addr", a.eff.Addr,
		"db", a.eff.DBPath,
		"config_source", a.eff.Source,
		"feeds", len(a.feeds),
	)

	a.pipe.Start(ctx)

	sweepCancel, err := sweeper.Start(ctx, a.store, a.eff.Config.Dedup.SweepCron)
	if err != nil {
		return err
	}
	defer sweepCancel()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	// cooperative shutdown: stop new ingests, drain loops, then close
	// the store; inserted dedup records stay durable
	a.pipe.Stop()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.srv != nil {
		_ = a.srv.Shutdown(shutCtx)
	}
	if err := a.store.Close(); err != nil {
		logger.Error("dedup_store_close_failed", "error", err)
	}
	logger.Info("newsrelay_stopped")
	return nil
}
