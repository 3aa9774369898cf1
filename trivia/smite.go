package trivia

import (
	"context"
	"fmt"

	"github.com/agnivade/levenshtein"
)

// SmiteHandler asks god/ability questions answered by free text. Answers are
// compared case-insensitively after trimming; near-misses within fuzzyMax edit
// distance are accepted before rejecting.
type SmiteHandler struct {
	round
	next     func(ctx context.Context) (*Question, error)
	fuzzyMax int
}

func NewSmiteHandler(store *Store, fuzzyMax int) *SmiteHandler {
	return &SmiteHandler{
		next: func(ctx context.Context) (*Question, error) {
			return store.RandomByCategory(ctx, SmiteCategory)
		},
		fuzzyMax: fuzzyMax,
	}
}

func (h *SmiteHandler) Start(ctx context.Context, force bool) (string, error) {
	if h.active && !force {
		return h.alreadyActiveMessage(), nil
	}
	q, err := h.next(ctx)
	if err != nil {
		return "", fmt.Errorf("load smite question: %w", err)
	}
	h.question = q
	h.active = true
	return fmt.Sprintf("🎯 SMITE TRIVIA! %s Type !answer GodName to answer!", FormatPrompt(q)), nil
}

func (h *SmiteHandler) CheckAnswer(_ context.Context, answer, username string) (bool, string, error) {
	if !h.active || h.question == nil {
		return false, noActiveTrivia, nil
	}
	correct := matches(h.question, answer)
	if !correct && h.fuzzyMax > 0 && normalize(answer) != "" {
		correct = levenshtein.ComputeDistance(normalize(answer), normalize(h.question.Answer)) <= h.fuzzyMax
	}
	ok, msg := h.resolve(correct, username)
	return ok, msg, nil
}

func (h *SmiteHandler) End() string { return h.end() }

func (h *SmiteHandler) Help() string {
	return "🎯 SMITE TRIVIA: !trivia smite starts a round, !answer GodName answers it, !giveup reveals the answer."
}
