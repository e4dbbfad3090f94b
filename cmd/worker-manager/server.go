// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concierge-workers/internal/assistant/gaps"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"
)

const readyTimeout = 3 * time.Second

// GapSummarizer reports gap totals for a scheme.
type GapSummarizer interface {
	Summary(ctx context.Context, schemeID string) (*gaps.Summary, error)
}

type routerDeps struct {
	// checks are run by /ready; every one must pass.
	checks map[string]func(context.Context) error
	gaps   GapSummarizer
	logger logger.Logger
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Get("/ready", deps.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/schemes/{schemeID}/gaps", deps.handleGapSummary)

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (d routerDeps) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(d.checks))
	for name := range d.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := d.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			d.logger.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (d routerDeps) handleGapSummary(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "schemeID")

	summary, err := d.gaps.Summary(r.Context(), schemeID)
	if err != nil {
		stdErr := errors.Normalize(err)
		d.logger.Error("gap summary failed", map[string]interface{}{
			"schemeId":  schemeID,
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"errorCode": string(stdErr.Code),
			"message":   stdErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
