package stats

import (
	"context"
	"fmt"
)

// BoardRow is one leaderboard entry.
type BoardRow struct {
	Username       string
	CorrectAnswers int
	TotalQuestions int
	AccuracyPct    float64
	CurrentStreak  int
	BestStreak     int
}

// Leaderboard returns the channel's top users ordered by
// (correct_answers DESC, accuracy DESC, first_seen ASC); only users with
// recorded attempts appear.
func (e *Engine) Leaderboard(ctx context.Context, channelID int64, limit int) ([]BoardRow, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT u.twitch_username, cu.correct_answers, cu.total_questions,
			ROUND(CAST(cu.correct_answers::float / cu.total_questions::float * 100 AS numeric), 1),
			cu.current_streak, cu.best_streak
		FROM channel_users cu
		JOIN users u ON cu.user_id = u.id
		WHERE cu.channel_id = $1 AND cu.total_questions > 0
		ORDER BY cu.correct_answers DESC,
			cu.correct_answers::float / cu.total_questions::float DESC,
			cu.first_seen ASC
		LIMIT $2`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var out []BoardRow
	for rows.Next() {
		var r BoardRow
		if err := rows.Scan(&r.Username, &r.CorrectAnswers, &r.TotalQuestions, &r.AccuracyPct, &r.CurrentStreak, &r.BestStreak); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopStreaks returns the channel's best streak holders.
func (e *Engine) TopStreaks(ctx context.Context, channelID int64, limit int) ([]BoardRow, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT u.twitch_username, cu.correct_answers, cu.total_questions,
			ROUND(CAST(cu.correct_answers::float / NULLIF(cu.total_questions, 0)::float * 100 AS numeric), 1),
			cu.current_streak, cu.best_streak
		FROM channel_users cu
		JOIN users u ON cu.user_id = u.id
		WHERE cu.channel_id = $1 AND cu.best_streak > 0
		ORDER BY cu.best_streak DESC, cu.correct_answers DESC, cu.first_seen ASC
		LIMIT $2`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top streaks: %w", err)
	}
	defer rows.Close()

	var out []BoardRow
	for rows.Next() {
		var r BoardRow
		if err := rows.Scan(&r.Username, &r.CorrectAnswers, &r.TotalQuestions, &r.AccuracyPct, &r.CurrentStreak, &r.BestStreak); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChannelSummary aggregates a channel's trivia activity.
type ChannelSummary struct {
	TotalUsers    int
	TotalAnswered int
	TotalCorrect  int
	HighestStreak int
	AvgAccuracy   float64
}

// Summary computes channel-wide totals over users with recorded attempts.
func (e *Engine) Summary(ctx context.Context, channelID int64) (*ChannelSummary, error) {
	var s ChannelSummary
	err := e.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_questions), 0),
			COALESCE(SUM(correct_answers), 0),
			COALESCE(MAX(best_streak), 0),
			COALESCE(AVG(correct_answers::float / total_questions::float), 0)
		FROM channel_users
		WHERE channel_id = $1 AND total_questions > 0`, channelID).Scan(
		&s.TotalUsers, &s.TotalAnswered, &s.TotalCorrect, &s.HighestStreak, &s.AvgAccuracy)
	if err != nil {
		return nil, fmt.Errorf("fetch channel summary: %w", err)
	}
	return &s, nil
}
