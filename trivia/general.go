package trivia

import (
	"context"
	"fmt"
)

// GeneralHandler asks questions from every non-Smite category in the bank:
// multiple choice (with a..z letter shortcuts), true/false, and open-ended.
type GeneralHandler struct {
	round
	next func(ctx context.Context) (*Question, error)
}

func NewGeneralHandler(store *Store) *GeneralHandler {
	return &GeneralHandler{
		next: func(ctx context.Context) (*Question, error) {
			return store.RandomExcludingCategory(ctx, SmiteCategory)
		},
	}
}

func (h *GeneralHandler) Start(ctx context.Context, force bool) (string, error) {
	if h.active && !force {
		return h.alreadyActiveMessage(), nil
	}
	q, err := h.next(ctx)
	if err != nil {
		return "", fmt.Errorf("load general question: %w", err)
	}
	h.question = q
	h.active = true
	return "📚 " + FormatPrompt(q), nil
}

func (h *GeneralHandler) CheckAnswer(_ context.Context, answer, username string) (bool, string, error) {
	if !h.active || h.question == nil {
		return false, noActiveTrivia, nil
	}
	ok, msg := h.resolve(matches(h.question, answer), username)
	return ok, msg, nil
}

func (h *GeneralHandler) End() string { return h.end() }

func (h *GeneralHandler) Help() string {
	return "🎲 GENERAL TRIVIA: !trivia starts a round, !answer <text> answers it (a/b/c/d work for multiple choice), !giveup reveals the answer."
}
