// Package bot wires the chat transport, command routing, trivia state, and
// stats recording into per-channel event loops behind a shared outbound rate
// limiter.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/onnwee/trivia-tender/telemetry"
)

// RateLimiter is a sliding-window throttle for outbound chat messages: at most
// burst sends per window. Reserve blocks until a send is permitted; Record must
// be called only after a successful transport write so a failed send is never
// charged against the window. The limiter never fails, it only delays.
//
// Shared by all channel loops on one connection; safe for concurrent use.
type RateLimiter struct {
	burst  int
	window time.Duration
	maxLen int

	mu   sync.Mutex
	sent []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(burst int, window time.Duration, maxLen int) *RateLimiter {
	return &RateLimiter{
		burst:  burst,
		window: window,
		maxLen: maxLen,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reserve blocks until a send is permitted under the window, or until ctx is
// cancelled.
func (rl *RateLimiter) Reserve(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := rl.now()
		rl.prune(now)
		if len(rl.sent) < rl.burst {
			rl.mu.Unlock()
			return nil
		}
		wait := rl.sent[0].Add(rl.window).Sub(now)
		rl.mu.Unlock()
		if wait <= 0 {
			continue
		}
		telemetry.Observe(telemetry.RateLimitWait, wait.Seconds())
		if err := rl.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Record charges one send against the window. Call after the transport write
// succeeds.
func (rl *RateLimiter) Record(t time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.sent = append(rl.sent, t)
}

// prune drops timestamps that have aged out of the window. A stamp exactly
// window old no longer counts, so a Reserve that slept until the cutoff always
// finds a free slot. Caller holds the lock.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.sent) && !rl.sent[i].After(cutoff) {
		i++
	}
	rl.sent = rl.sent[i:]
}

// InWindow returns the number of sends currently charged against the window.
func (rl *RateLimiter) InWindow() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.now())
	return len(rl.sent)
}

// Clamp bounds a message to the transport's maximum length, marking truncation
// with an ellipsis. Rune-safe so multi-byte characters are never split.
func (rl *RateLimiter) Clamp(msg string) string {
	runes := []rune(msg)
	if len(runes) <= rl.maxLen {
		return msg
	}
	if rl.maxLen <= 0 {
		return ""
	}
	if rl.maxLen <= 3 {
		// No room for the ellipsis, hard cut.
		return string(runes[:rl.maxLen])
	}
	return string(runes[:rl.maxLen-3]) + "..."
}
