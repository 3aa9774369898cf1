package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsInitialized(t *testing.T) {
	Init()

	if MessagesReceived == nil || MessagesSent == nil || CommandsDispatched == nil || Reconnects == nil {
		t.Error("message counters not initialized")
	}
	if QuestionsAsked == nil || AnswersSubmitted == nil || AnswersCorrect == nil || QuestionLoadFailures == nil {
		t.Error("trivia counters not initialized")
	}
	if QuestionLoadDuration == nil || RateLimitWait == nil {
		t.Error("histograms not initialized")
	}
	if ActiveSessionsGauge == nil || AutoModeGauge == nil {
		t.Error("gauges not initialized")
	}
}

func TestNilGuardedHelpers(t *testing.T) {
	// Helpers must tolerate nil metrics so packages can be tested without
	// calling Init.
	Inc(nil)
	Observe(nil, 1.5)
	AddGauge(nil, 1)
	if d := TimeFunc(nil, func() {}); d < 0 {
		t.Errorf("TimeFunc duration = %v", d)
	}
}

func TestTimeFuncRecordsObservation(t *testing.T) {
	testHistogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_duration_seconds",
		Help:    "Test duration",
		Buckets: prometheus.DefBuckets,
	})
	prometheus.MustRegister(testHistogram)
	defer prometheus.Unregister(testHistogram)

	executed := false
	duration := TimeFunc(testHistogram, func() {
		time.Sleep(10 * time.Millisecond)
		executed = true
	})
	if !executed {
		t.Error("TimeFunc did not execute provided function")
	}
	if duration < 10*time.Millisecond {
		t.Errorf("TimeFunc duration = %v, want >= 10ms", duration)
	}

	metric := &dto.Metric{}
	if err := testHistogram.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Histogram == nil || *metric.Histogram.SampleCount == 0 {
		t.Error("TimeFunc did not record observation in histogram")
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation on empty ctx = %q", got)
	}
	ctx = WithCorrelation(ctx, "corr-abc")
	if got := GetCorrelation(ctx); got != "corr-abc" {
		t.Errorf("GetCorrelation = %q, want corr-abc", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
