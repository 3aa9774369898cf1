// Package stats maintains per-(channel,user) trivia counters and leaderboard
// queries. Every attempt is applied as one transaction: an audit row plus a
// single upsert-and-increment on the counters, so concurrent submissions from
// different channels never read-modify-write the same row in two round trips.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) *Engine { return &Engine{db: db} }

// UserChannelStats mirrors one channel_users row.
type UserChannelStats struct {
	TotalQuestions int
	CorrectAnswers int
	CurrentStreak  int
	BestStreak     int
	FirstSeen      time.Time
	LastSeen       time.Time
}

// Accuracy returns the correct/total ratio, 0 when no questions were answered.
func (s *UserChannelStats) Accuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions)
}

// RecordAttempt applies one answer attempt atomically: it inserts the audit
// row and upserts the counters in a single transaction. A correct answer
// increments total, correct, and streak, and raises best_streak when exceeded;
// a wrong answer increments total and resets the streak. last_seen always
// advances. Returns the updated row.
func (e *Engine) RecordAttempt(ctx context.Context, channelID, userID int64, questionPrompt, userAnswer string, correct bool) (*UserChannelStats, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attempts (channel_id, user_id, question_prompt, user_answer, is_correct)
		VALUES ($1, $2, $3, $4, $5)`,
		channelID, userID, questionPrompt, userAnswer, correct); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	var out UserChannelStats
	err = tx.QueryRowContext(ctx, `
		INSERT INTO channel_users (channel_id, user_id, total_questions, correct_answers, current_streak, best_streak)
		VALUES ($1, $2, 1,
			CASE WHEN $3 THEN 1 ELSE 0 END,
			CASE WHEN $3 THEN 1 ELSE 0 END,
			CASE WHEN $3 THEN 1 ELSE 0 END)
		ON CONFLICT (channel_id, user_id) DO UPDATE SET
			total_questions = channel_users.total_questions + 1,
			correct_answers = channel_users.correct_answers + CASE WHEN $3 THEN 1 ELSE 0 END,
			current_streak = CASE WHEN $3 THEN channel_users.current_streak + 1 ELSE 0 END,
			best_streak = GREATEST(channel_users.best_streak,
				CASE WHEN $3 THEN channel_users.current_streak + 1 ELSE 0 END),
			last_seen = NOW()
		RETURNING total_questions, correct_answers, current_streak, best_streak, first_seen, last_seen`,
		channelID, userID, correct).Scan(
		&out.TotalQuestions, &out.CorrectAnswers, &out.CurrentStreak, &out.BestStreak,
		&out.FirstSeen, &out.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("upsert channel user stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attempt tx: %w", err)
	}
	return &out, nil
}

// Rank returns the user's 1-based leaderboard position in the channel, or
// ok=false for users with no recorded attempts. The ordering is
// (correct_answers DESC, accuracy DESC, first_seen ASC); first_seen is the
// deterministic tertiary tie-break.
func (e *Engine) Rank(ctx context.Context, channelID, userID int64) (int, bool, error) {
	var rank int
	err := e.db.QueryRowContext(ctx, `
		WITH ranked AS (
			SELECT user_id, ROW_NUMBER() OVER (
				ORDER BY correct_answers DESC,
					correct_answers::float / NULLIF(total_questions, 0)::float DESC,
					first_seen ASC) AS rank
			FROM channel_users
			WHERE channel_id = $1 AND total_questions > 0
		)
		SELECT rank FROM ranked WHERE user_id = $2`, channelID, userID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("compute rank: %w", err)
	}
	return rank, true, nil
}

// UserStats fetches a user's row in a channel; ok=false when it doesn't exist.
func (e *Engine) UserStats(ctx context.Context, channelID, userID int64) (*UserChannelStats, bool, error) {
	var out UserChannelStats
	err := e.db.QueryRowContext(ctx, `
		SELECT total_questions, correct_answers, current_streak, best_streak, first_seen, last_seen
		FROM channel_users
		WHERE channel_id = $1 AND user_id = $2`, channelID, userID).Scan(
		&out.TotalQuestions, &out.CorrectAnswers, &out.CurrentStreak, &out.BestStreak,
		&out.FirstSeen, &out.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch user stats: %w", err)
	}
	return &out, true, nil
}
