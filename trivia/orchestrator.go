package trivia

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/trivia-tender/telemetry"
)

// Kind selects a question source variant at session-start time.
type Kind string

const (
	KindGeneral Kind = "general"
	KindSmite   Kind = "smite"
)

// pendingLoad is the single-slot in-flight request token: at most one question
// load may be outstanding per channel.
type pendingLoad struct {
	kind Kind
	auto bool
}

// Orchestrator decouples command acknowledgment from question loading and
// drives auto-mode progression. Commands enqueue a pending-load token and
// return immediately; the channel's event loop resolves the token on its next
// iteration via ResolvePending, then chains auto questions via AutoProgress.
//
// Not safe for concurrent use: all calls happen on the channel's event loop.
type Orchestrator struct {
	handlers map[Kind]Handler
	delay    time.Duration
	sleep    func(time.Duration)

	auto     bool
	autoKind Kind
	pending  *pendingLoad
}

func NewOrchestrator(delay time.Duration) *Orchestrator {
	return &Orchestrator{
		handlers: make(map[Kind]Handler),
		delay:    delay,
		sleep:    time.Sleep,
	}
}

// SetHandler registers the question source for a kind. A kind with no handler
// reports "not available" on start commands.
func (o *Orchestrator) SetHandler(k Kind, h Handler) { o.handlers[k] = h }

// StartSingle acknowledges a one-shot trivia command and enqueues the load.
// A one-shot start drops out of auto mode: the chain stops and only the
// requested question is asked.
func (o *Orchestrator) StartSingle(k Kind) string {
	if msg, ok := o.admit(k); !ok {
		return msg
	}
	o.setAuto(false, "")
	o.pending = &pendingLoad{kind: k}
	if k == KindSmite {
		return "🎯 Loading Smite trivia question..."
	}
	return "📚 Loading trivia question..."
}

// StartAuto enables auto mode for the kind and enqueues the first load.
func (o *Orchestrator) StartAuto(k Kind) string {
	if msg, ok := o.admit(k); !ok {
		return msg
	}
	o.setAuto(true, k)
	o.pending = &pendingLoad{kind: k, auto: true}
	if k == KindSmite {
		return "🎯 Starting auto Smite trivia mode..."
	}
	return "📚 Starting auto trivia mode..."
}

// admit validates a start command: the kind must have a handler and no load
// may already be in flight.
func (o *Orchestrator) admit(k Kind) (string, bool) {
	if o.handlers[k] == nil {
		if k == KindSmite {
			return "❌ Smite trivia not available: database not initialized.", false
		}
		return "❌ Trivia not available: database not initialized.", false
	}
	if o.pending != nil {
		return "⏳ Already loading a question, hang tight!", false
	}
	return "", true
}

// EndAll clears auto mode, drops any pending load, and force-ends the live
// round, revealing its answer.
func (o *Orchestrator) EndAll(m *Manager) string {
	o.setAuto(false, "")
	o.pending = nil
	if m.Active() {
		return "🛑 Auto trivia ended! " + m.End()
	}
	return "🛑 Auto trivia ended!"
}

// HandleGiveUp ends the current round; in auto mode the next question is
// queued so the chain continues.
func (o *Orchestrator) HandleGiveUp(m *Manager) string {
	msg := m.End()
	if o.auto && o.pending == nil {
		o.pending = &pendingLoad{kind: o.autoKind, auto: true}
	}
	return msg
}

// ResolvePending loads the question for an enqueued token and sends the
// formatted prompt as a follow-up message. Provider errors become a one-line
// chat message; the session stays in its prior state.
func (o *Orchestrator) ResolvePending(ctx context.Context, m *Manager, send func(string) error) {
	if o.pending == nil {
		return
	}
	token := *o.pending
	o.pending = nil

	h := o.handlers[token.kind]
	if h == nil {
		return
	}
	o.startAndSend(ctx, m, h, token.auto, send)
}

// AutoProgress re-issues a question after a correct resolution in auto mode,
// waiting a short delay so the success message lands first.
func (o *Orchestrator) AutoProgress(ctx context.Context, m *Manager, send func(string) error) {
	if !o.auto || !m.ShouldAskNext() {
		return
	}
	h := o.handlers[o.autoKind]
	if h == nil {
		return
	}
	o.sleep(o.delay)
	o.startAndSend(ctx, m, h, true, send)
}

func (o *Orchestrator) startAndSend(ctx context.Context, m *Manager, h Handler, force bool, send func(string) error) {
	var (
		msg string
		err error
	)
	telemetry.TimeFunc(telemetry.QuestionLoadDuration, func() {
		msg, err = m.StartWith(ctx, h, force)
	})
	if err != nil {
		telemetry.Inc(telemetry.QuestionLoadFailures)
		slog.Error("failed to load trivia question", slog.Any("err", err))
		if sendErr := send("❌ Failed to load trivia question. Please try again."); sendErr != nil {
			slog.Warn("failed to send load error", slog.Any("err", sendErr))
		}
		return
	}
	telemetry.Inc(telemetry.QuestionsAsked)
	if err := send(msg); err != nil {
		slog.Warn("failed to send question", slog.Any("err", err))
	}
}

func (o *Orchestrator) setAuto(on bool, k Kind) {
	if on && !o.auto {
		telemetry.AddGauge(telemetry.AutoModeGauge, 1)
	}
	if !on && o.auto {
		telemetry.AddGauge(telemetry.AutoModeGauge, -1)
	}
	o.auto = on
	o.autoKind = k
}

// AutoActive reports whether auto mode is on, and for which kind.
func (o *Orchestrator) AutoActive() (bool, Kind) { return o.auto, o.autoKind }

// PendingLoad reports whether a question load is in flight.
func (o *Orchestrator) PendingLoad() bool { return o.pending != nil }
