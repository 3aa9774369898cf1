// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesReceived     prometheus.Counter
	MessagesSent         prometheus.Counter
	CommandsDispatched   prometheus.Counter
	QuestionsAsked       prometheus.Counter
	AnswersSubmitted     prometheus.Counter
	AnswersCorrect       prometheus.Counter
	QuestionLoadFailures prometheus.Counter
	Reconnects           prometheus.Counter

	// Histograms (seconds)
	QuestionLoadDuration prometheus.Observer
	RateLimitWait        prometheus.Observer

	// Gauges
	ActiveSessionsGauge prometheus.Gauge
	AutoModeGauge       prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_chat_messages_received_total", Help: "Inbound chat messages processed"})
		MessagesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_chat_messages_sent_total", Help: "Outbound chat messages sent"})
		CommandsDispatched = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_commands_dispatched_total", Help: "Chat messages that matched a registered command"})
		QuestionsAsked = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_questions_asked_total", Help: "Questions issued to chat"})
		AnswersSubmitted = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_answers_submitted_total", Help: "Answer attempts submitted"})
		AnswersCorrect = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_answers_correct_total", Help: "Answer attempts that resolved a question"})
		QuestionLoadFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_question_load_failures_total", Help: "Question source errors during load"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "trivia_chat_reconnects_total", Help: "Chat transport reconnect attempts"})
		QuestionLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "trivia_question_load_duration_seconds", Help: "Question load duration seconds", Buckets: prometheus.DefBuckets})
		RateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{Name: "trivia_rate_limit_wait_seconds", Help: "Time spent waiting on the outbound rate limiter", Buckets: prometheus.DefBuckets})
		ActiveSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "trivia_active_sessions", Help: "Channels with an active question"})
		AutoModeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "trivia_auto_mode_channels", Help: "Channels currently in auto trivia mode"})
	})
}

// Inc increments a counter if metrics are initialized.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// Observe records a value if metrics are initialized.
func Observe(o prometheus.Observer, v float64) {
	if o != nil {
		o.Observe(v)
	}
}

// AddGauge adjusts a gauge if metrics are initialized.
func AddGauge(g prometheus.Gauge, v float64) {
	if g != nil {
		g.Add(v)
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
