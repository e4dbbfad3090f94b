package recordassistantgap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"concierge-workers/internal/assistant/gaps"
	"concierge-workers/internal/common/errors"
	"concierge-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeRecorder struct {
	entries []gaps.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e gaps.Entry) (*gaps.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, e)
	reason := gaps.ParseReason(string(e.Reason))
	e.Reason = reason
	return &gaps.Record{
		ID:        fmt.Sprintf("gap-%d", len(f.entries)),
		Entry:     e,
		Fix:       gaps.SuggestFix(reason, e.Intent),
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, nil
}

func createTestHandler(t *testing.T, recorder Recorder) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, recorder, nil, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := createTestHandler(t, recorder)

	output, err := handler.Execute(context.Background(), &Input{
		SchemeID:         "elm-grove",
		UserQuestion:     "When is bin day?",
		Intent:           "bin_collection",
		GapReason:        "no_documents_found",
		AttemptedSources: []string{"documents", "scheme_profile"},
		PlaybookUsed:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, "gap-1", output.GapLogID)
	assert.Equal(t, "no_documents_found", output.GapReason)
	assert.Equal(t, "Upload homeowner documents covering bin collection", output.SuggestedFix)
	assert.Equal(t, "high", output.FixPriority)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, []string{"documents", "scheme_profile"}, recorder.entries[0].AttemptedSources)
	assert.True(t, recorder.entries[0].PlaybookUsed)
}

func TestHandler_Execute_UnlistedReason(t *testing.T) {
	handler := createTestHandler(t, &fakeRecorder{})

	output, err := handler.Execute(context.Background(), &Input{
		SchemeID:     "elm-grove",
		UserQuestion: "Who painted the mural?",
		GapReason:    "model_refused",
	})
	require.NoError(t, err)

	assert.Equal(t, "unknown", output.GapReason)
	assert.Equal(t, "Review recent questions about this topic", output.SuggestedFix)
	assert.Equal(t, "low", output.FixPriority)
}

func TestHandler_Execute_RecorderError(t *testing.T) {
	handler := createTestHandler(t, &fakeRecorder{err: errors.NewGapLogFailedError(fmt.Errorf("disk full"))})

	_, err := handler.Execute(context.Background(), &Input{
		SchemeID:     "elm-grove",
		UserQuestion: "q",
		GapReason:    "playbook_fallback",
	})
	require.Error(t, err)

	std := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeGapLogFailed, std.Code)
	assert.True(t, std.Retryable)
}

func TestHandler_Execute_WithPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO assistant_gap_logs").
		WithArgs(
			sqlmock.AnyArg(), "elm-grove", "Where do I park visitors?", "parking",
			"missing_scheme_data", `[]`, "", false,
			"Complete the parking fields in the scheme profile", "high", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	handler := createTestHandler(t, gaps.NewStore(db))

	output, err := handler.Execute(context.Background(), &Input{
		SchemeID:     "elm-grove",
		UserQuestion: "Where do I park visitors?",
		Intent:       "parking",
		GapReason:    "missing_scheme_data",
	})
	require.NoError(t, err)

	assert.Len(t, output.GapLogID, 36)
	assert.Equal(t, "high", output.FixPriority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Input Handling Tests
// ==========================

func TestHandler_Run_Validation(t *testing.T) {
	handler := createTestHandler(t, &fakeRecorder{})

	tests := []struct {
		name      string
		variables string
	}{
		{"missing scheme", `{"userQuestion": "q", "gapReason": "unknown"}`},
		{"missing question", `{"schemeId": "s", "gapReason": "unknown"}`},
		{"empty reason", `{"schemeId": "s", "userQuestion": "q", "gapReason": ""}`},
		{"sources not strings", `{"schemeId": "s", "userQuestion": "q", "gapReason": "unknown", "attemptedSources": [1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.run(context.Background(), tt.variables)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.Normalize(err).Code)
		})
	}
}

func TestHandler_Run_Success(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := createTestHandler(t, recorder)

	output, err := handler.run(context.Background(), `{
		"schemeId": "elm-grove",
		"userQuestion": "Who is my OMC?",
		"intent": "management",
		"gapReason": "defer_to_omc",
		"finalSource": "escalation"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "low", output.FixPriority)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "escalation", recorder.entries[0].FinalSource)
}
