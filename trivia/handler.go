// Package trivia implements the trivia round state machine: pluggable question
// sources, the per-channel session manager, and the auto-mode orchestrator.
package trivia

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoQuestion is returned by question sources when no question is available.
var ErrNoQuestion = errors.New("no question available")

// AnswerKind matches the question kind values stored in the questions table.
type AnswerKind string

const (
	KindOpenEnded      AnswerKind = "open_ended"
	KindMultipleChoice AnswerKind = "multiple_choice"
	KindBoolean        AnswerKind = "true_false"
)

// Question is immutable once issued; it is owned by the active session.
type Question struct {
	Prompt   string
	Kind     AnswerKind
	Answer   string
	Options  []string
	Category string
	Source   string
}

// Handler is the capability set a question source must provide. Implementations
// are not safe for concurrent use; all calls for a channel happen on that
// channel's event loop.
type Handler interface {
	// Start begins a round. With force=false while a round is active it returns
	// the current prompt without mutating state; with force=true it replaces the
	// active question unconditionally.
	Start(ctx context.Context, force bool) (string, error)
	// CheckAnswer reports whether the answer resolved the question, plus the
	// chat response. A correct answer deactivates the round.
	CheckAnswer(ctx context.Context, answer, username string) (bool, string, error)
	// End force-terminates the round and reveals the answer.
	End() string
	Question() *Question
	Active() bool
	Help() string
}

// FormatPrompt renders a question for chat: lettered options for multiple
// choice, a True/False hint for booleans.
func FormatPrompt(q *Question) string {
	switch q.Kind {
	case KindMultipleChoice:
		var b strings.Builder
		b.WriteString(q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, " %c) %s", 'A'+i, opt)
		}
		return b.String()
	case KindBoolean:
		return q.Prompt + " (True/False)"
	default:
		return q.Prompt
	}
}

// normalize trims and lowercases an answer for comparison.
func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// expandLetterShortcut maps a single-letter MCQ answer (a..z) to the option at
// that position. Out-of-range letters and multi-word answers pass through
// unchanged so they fall back to literal comparison.
func expandLetterShortcut(q *Question, answer string) string {
	if q.Kind != KindMultipleChoice {
		return answer
	}
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) != 1 {
		return answer
	}
	c := trimmed[0]
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return answer
	}
	idx := int(c - 'a')
	if idx >= len(q.Options) {
		return answer
	}
	return q.Options[idx]
}

// matches reports whether answer satisfies the question, applying the
// letter shortcut for multiple choice and canonical true/false for booleans.
func matches(q *Question, answer string) bool {
	switch q.Kind {
	case KindMultipleChoice:
		return normalize(expandLetterShortcut(q, answer)) == normalize(q.Answer)
	case KindBoolean:
		got := normalize(answer)
		if got != "true" && got != "false" {
			return false
		}
		return got == normalize(q.Answer)
	default:
		return normalize(answer) == normalize(q.Answer)
	}
}
