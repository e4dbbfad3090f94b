package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"concierge-workers/internal/assistant/gaps"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGaps struct {
	summary *gaps.Summary
	err     error
	asked   string
}

func (f *fakeGaps) Summary(_ context.Context, schemeID string) (*gaps.Summary, error) {
	f.asked = schemeID
	return f.summary, f.err
}

func ok(context.Context) error { return nil }

func serve(t *testing.T, deps routerDeps, path string) *httptest.ResponseRecorder {
	t.Helper()
	if deps.logger == nil {
		deps.logger = logger.NewTestLogger(t)
	}
	rec := httptest.NewRecorder()
	newRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(t, routerDeps{}, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestRouter_Ready(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		rec := serve(t, routerDeps{checks: map[string]func(context.Context) error{
			"postgres": ok,
			"redis":    ok,
		}}, "/ready")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)
	})

	t.Run("one check fails", func(t *testing.T) {
		rec := serve(t, routerDeps{checks: map[string]func(context.Context) error{
			"postgres": ok,
			"zeebe":    func(context.Context) error { return fmt.Errorf("gateway unavailable") },
		}}, "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"zeebe":"gateway unavailable"`)
		assert.Contains(t, rec.Body.String(), `"status":"not_ready"`)
	})
}

func TestRouter_Metrics(t *testing.T) {
	rec := serve(t, routerDeps{}, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_GapSummary(t *testing.T) {
	store := &fakeGaps{summary: &gaps.Summary{
		SchemeID: "elm-grove",
		Last24h:  2,
		Last7d:   5,
		Last30d:  9,
		ByReason: map[gaps.Reason]int{gaps.ReasonNoDocumentsFound: 9},
		ByIntent: map[string]int{"parking": 9},
	}}

	rec := serve(t, routerDeps{gaps: store}, "/schemes/elm-grove/gaps")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "elm-grove", store.asked)

	var got gaps.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 9, got.Last30d)
	assert.Equal(t, 9, got.ByReason[gaps.ReasonNoDocumentsFound])
}

func TestRouter_GapSummaryError(t *testing.T) {
	store := &fakeGaps{err: errors.NewQueryTimeoutError("gap_summary")}

	rec := serve(t, routerDeps{gaps: store}, "/schemes/elm-grove/gaps")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errorCode":"QUERY_TIMEOUT"`)
}
