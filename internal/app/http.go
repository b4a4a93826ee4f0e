package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsrelay/pkg/auth"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
	"newsrelay/pkg/pipeline"
	"newsrelay/pkg/utils"
)

func (a *App) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReadyz).Methods(http.MethodGet)
	r.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(a.pipe.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.Handle("/ingest", auth.RequireAPIKey(a.eff.Config.Server.APIKey, http.HandlerFunc(a.handleIngest))).Methods(http.MethodPost)
	return r
}

func (a *App) startHTTP() <-chan error {
	a.srv = &http.Server{
		Addr:         a.eff.Addr,
		Handler:      a.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", a.eff.Addr)
		errCh <- a.srv.ListenAndServe()
	}()
	return errCh
}

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": a.version,
		"commit":  a.commit,
		"built":   a.buildDate,
	})
}

func (a *App) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !a.store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, a.pipe.Snapshot())
}

// handleIngest accepts one raw item per request. Items from sources not
// in the configured feed list are demoted to discovery kind so they are
// logged but never published.
func (a *App) handleIngest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var item models.RawItem
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&item); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid item payload")
		return
	}
	if item.SourceID == "" {
		utils.JSONError(w, http.StatusBadRequest, "source_id required")
		return
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.TS == 0 {
		item.TS = time.Now().Unix()
	}
	if _, known := a.feeds[item.SourceID]; !known {
		item.Kind = models.KindDiscovery
	} else if item.Kind == "" {
		item.Kind = models.KindText
	}

	switch err := a.pipe.Ingest(item); {
	case err == nil:
		_ = utils.JSONWrite(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": item.ID})
	case errors.Is(err, pipeline.ErrStopped):
		utils.JSONError(w, http.StatusServiceUnavailable, "shutting down")
	case errors.Is(err, pipeline.ErrQueueFull):
		utils.JSONError(w, http.StatusTooManyRequests, "ingest queue full")
	default:
		utils.JSONError(w, http.StatusInternalServerError, "ingest failed")
	}
}
