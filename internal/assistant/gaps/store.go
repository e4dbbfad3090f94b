package gaps

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"concierge-workers/internal/common/errors"

	"github.com/google/uuid"
)

// Entry is one unanswered or weakly answered question.
type Entry struct {
	SchemeID         string   `json:"schemeId"`
	UserQuestion     string   `json:"userQuestion"`
	Intent           string   `json:"intent,omitempty"`
	Reason           Reason   `json:"gapReason"`
	AttemptedSources []string `json:"attemptedSources,omitempty"`
	FinalSource      string   `json:"finalSource,omitempty"`
	PlaybookUsed     bool     `json:"playbookUsed"`
}

// Record is a stored Entry with its suggested fix.
type Record struct {
	ID        string    `json:"id"`
	Entry
	Fix       Fix       `json:"suggestedFix"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary counts a scheme's gaps over the last 30 days.
type Summary struct {
	SchemeID string         `json:"schemeId"`
	Last24h  int            `json:"last24h"`
	Last7d   int            `json:"last7d"`
	Last30d  int            `json:"last30d"`
	ByReason map[Reason]int `json:"byReason"`
	ByIntent map[string]int `json:"byIntent"`
}

type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

const insertGapSQL = `INSERT INTO assistant_gap_logs
	(id, scheme_id, user_question, intent, gap_reason, attempted_sources, final_source, playbook_used, suggested_action, suggested_priority, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Record stores e with the fix SuggestFix computes for it. Unlisted reasons
// are stored as unknown.
func (s *Store) Record(ctx context.Context, e Entry) (*Record, error) {
	e.Reason = ParseReason(string(e.Reason))
	if e.AttemptedSources == nil {
		e.AttemptedSources = []string{}
	}

	sources, err := json.Marshal(e.AttemptedSources)
	if err != nil {
		return nil, errors.NewGapLogFailedError(err)
	}

	rec := &Record{
		ID:        s.newID(),
		Entry:     e,
		Fix:       SuggestFix(e.Reason, e.Intent),
		CreatedAt: s.now(),
	}

	_, err = s.db.ExecContext(ctx, insertGapSQL,
		rec.ID, e.SchemeID, e.UserQuestion, e.Intent, string(e.Reason), string(sources),
		e.FinalSource, e.PlaybookUsed, rec.Fix.Action, string(rec.Fix.Priority), rec.CreatedAt,
	)
	if err != nil {
		return nil, dbError("insert_gap_log", err, errors.NewGapLogFailedError)
	}
	return rec, nil
}

const (
	windowCountsSQL = `SELECT
	COUNT(*) FILTER (WHERE created_at >= $2),
	COUNT(*) FILTER (WHERE created_at >= $3),
	COUNT(*)
	FROM assistant_gap_logs WHERE scheme_id = $1 AND created_at >= $4`

	reasonCountsSQL = `SELECT gap_reason, COUNT(*) FROM assistant_gap_logs
	WHERE scheme_id = $1 AND created_at >= $2 GROUP BY gap_reason`

	intentCountsSQL = `SELECT intent, COUNT(*) FROM assistant_gap_logs
	WHERE scheme_id = $1 AND created_at >= $2 GROUP BY intent`
)

func (s *Store) Summary(ctx context.Context, schemeID string) (*Summary, error) {
	now := s.now()
	since30d := now.Add(-30 * 24 * time.Hour)

	sum := &Summary{
		SchemeID: schemeID,
		ByReason: map[Reason]int{},
		ByIntent: map[string]int{},
	}

	err := s.db.QueryRowContext(ctx, windowCountsSQL,
		schemeID, now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), since30d,
	).Scan(&sum.Last24h, &sum.Last7d, &sum.Last30d)
	if err != nil {
		return nil, dbError("gap_window_counts", err, errors.NewDatabaseConnectionFailedError)
	}

	err = s.groupCounts(ctx, reasonCountsSQL, schemeID, since30d, func(key string, n int) {
		sum.ByReason[ParseReason(key)] += n
	})
	if err != nil {
		return nil, dbError("gap_reason_counts", err, errors.NewDatabaseConnectionFailedError)
	}

	err = s.groupCounts(ctx, intentCountsSQL, schemeID, since30d, func(key string, n int) {
		if key == "" {
			key = "unknown"
		}
		sum.ByIntent[key] += n
	})
	if err != nil {
		return nil, dbError("gap_intent_counts", err, errors.NewDatabaseConnectionFailedError)
	}

	return sum, nil
}

func (s *Store) groupCounts(ctx context.Context, query, schemeID string, since time.Time, add func(string, int)) error {
	rows, err := s.db.QueryContext(ctx, query, schemeID, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}

func dbError(queryType string, err error, wrap func(error) *errors.StandardError) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	return wrap(err)
}
