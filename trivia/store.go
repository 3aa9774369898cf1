package trivia

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SmiteCategory is the reserved category for Smite god/ability questions; the
// general handler excludes it so the two pools never overlap.
const SmiteCategory = "Smite"

// Store reads questions from the Postgres question bank. Category metadata is
// cached briefly since it only changes when banks are imported.
type Store struct {
	db    *sql.DB
	cache *gocache.Cache
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, cache: gocache.New(5*time.Minute, 10*time.Minute)}
}

// RandomByCategory returns one random question from the given category.
func (s *Store) RandomByCategory(ctx context.Context, category string) (*Question, error) {
	return s.random(ctx, `WHERE q.category = $1`, category)
}

// RandomExcludingCategory returns one random question from any other category.
func (s *Store) RandomExcludingCategory(ctx context.Context, category string) (*Question, error) {
	return s.random(ctx, `WHERE q.category IS DISTINCT FROM $1`, category)
}

func (s *Store) random(ctx context.Context, where string, arg any) (*Question, error) {
	q := fmt.Sprintf(`
		SELECT q.prompt, q.answer, q.options, q.kind, COALESCE(q.category, ''), COALESCE(qb.name, '')
		FROM questions q
		LEFT JOIN question_banks qb ON q.bank_id = qb.id
		%s
		ORDER BY RANDOM()
		LIMIT 1`, where)
	row := s.db.QueryRowContext(ctx, q, arg)

	var (
		out     Question
		kind    string
		rawOpts []byte
	)
	if err := row.Scan(&out.Prompt, &out.Answer, &rawOpts, &kind, &out.Category, &out.Source); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoQuestion
		}
		return nil, fmt.Errorf("fetch random question: %w", err)
	}
	out.Kind = AnswerKind(kind)
	if len(rawOpts) > 0 {
		if err := json.Unmarshal(rawOpts, &out.Options); err != nil {
			return nil, fmt.Errorf("decode question options: %w", err)
		}
	}
	return &out, nil
}

// Categories lists distinct question categories. Cached for a few minutes;
// used by the status endpoint and help text.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	if v, ok := s.cache.Get("categories"); ok {
		return v.([]string), nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM questions WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cache.Set("categories", cats, gocache.DefaultExpiration)
	return cats, nil
}

// Count returns the number of questions in the bank. Cached alongside categories.
func (s *Store) Count(ctx context.Context) (int, error) {
	if v, ok := s.cache.Get("count"); ok {
		return v.(int), nil
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	s.cache.Set("count", n, gocache.DefaultExpiration)
	return n, nil
}
