package trivia

import (
	"context"
)

// Manager owns the single live round for one channel. States are Idle (no
// active handler) and Active; the transition methods below are the only
// mutators, so at most one question is ever live per channel.
//
// Not safe for concurrent use: all calls happen on the channel's event loop.
type Manager struct {
	handler     Handler
	lastCorrect bool
}

func NewManager() *Manager { return &Manager{} }

// StartWith activates a round on the given handler. A non-forced start while a
// round is already live returns the current prompt without touching state. A
// handler error leaves the session exactly as it was (no partial transition).
func (m *Manager) StartWith(ctx context.Context, h Handler, force bool) (string, error) {
	if m.Active() && !force {
		prompt := "unknown question"
		if q := m.Question(); q != nil {
			prompt = FormatPrompt(q)
		}
		return "⚠️ Trivia already active: " + prompt, nil
	}
	msg, err := h.Start(ctx, force)
	if err != nil {
		return "", err
	}
	m.handler = h
	m.lastCorrect = false
	return msg, nil
}

// SubmitAnswer checks an answer against the live round. The first correct
// submission deactivates the round; anything after that sees Idle and gets the
// no-active-trivia response. A handler error leaves the session unchanged.
func (m *Manager) SubmitAnswer(ctx context.Context, answer, username string) (bool, string, error) {
	if !m.Active() {
		return false, "❌ No active trivia to answer.", nil
	}
	correct, msg, err := m.handler.CheckAnswer(ctx, answer, username)
	if err != nil {
		return false, "", err
	}
	if correct {
		m.lastCorrect = true
	}
	return correct, msg, nil
}

// End force-terminates the live round, revealing the answer.
func (m *Manager) End() string {
	if !m.Active() {
		return "❌ No active trivia session to end."
	}
	msg := m.handler.End()
	m.handler = nil
	m.lastCorrect = false
	return msg
}

// Active reports whether a round is live.
func (m *Manager) Active() bool {
	return m.handler != nil && m.handler.Active()
}

// Question returns the live question, or nil when Idle.
func (m *Manager) Question() *Question {
	if m.handler == nil {
		return nil
	}
	return m.handler.Question()
}

// ShouldAskNext reports whether the last round resolved with a correct answer
// and no new round has started yet. Consumed by the orchestrator's auto mode.
func (m *Manager) ShouldAskNext() bool {
	return m.lastCorrect && !m.Active()
}

// Status describes the session for chat.
func (m *Manager) Status() string {
	if m.Active() {
		return "📢 Trivia Active: " + FormatPrompt(m.Question())
	}
	return "📭 No trivia currently running."
}

// Help returns the active handler's help text, or a hint when Idle.
func (m *Manager) Help() string {
	if m.handler != nil {
		return m.handler.Help()
	}
	return "No active trivia. Start one with !trivia, !trivia smite, or !trivia auto."
}
