package postgres

import (
	"context"
	"fmt"
	"time"

	"quiz-player/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultArchive persists finished-session summaries to Postgres so past
// results survive the process and can be listed later.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

// ArchivedResult is one stored summary row.
type ArchivedResult struct {
	SessionID      string
	QuizID         string
	Points         int
	Correct        int
	Wrong          int
	ElapsedSeconds int
	Confirmed      bool
	FinishedAt     time.Time
}

func (a *ResultArchive) Record(ctx context.Context, sessionID, quizID string, summary domain.ResultSummary) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO session_results (session_id, quiz_id, points, correct, wrong, elapsed_seconds, confirmed, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (session_id) DO UPDATE
		 SET points=EXCLUDED.points, correct=EXCLUDED.correct, wrong=EXCLUDED.wrong,
		     elapsed_seconds=EXCLUDED.elapsed_seconds, confirmed=EXCLUDED.confirmed, finished_at=EXCLUDED.finished_at`,
		sessionID, quizID, summary.Points, summary.Correct, summary.Wrong, summary.ElapsedSeconds, summary.Confirmed)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns the newest stored results, most recent first.
func (a *ResultArchive) Recent(ctx context.Context, limit int) ([]ArchivedResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := a.pool.Query(ctx,
		`SELECT session_id, quiz_id, points, correct, wrong, elapsed_seconds, confirmed, finished_at
		 FROM session_results ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []ArchivedResult
	for rows.Next() {
		var r ArchivedResult
		if err := rows.Scan(&r.SessionID, &r.QuizID, &r.Points, &r.Correct, &r.Wrong, &r.ElapsedSeconds, &r.Confirmed, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
