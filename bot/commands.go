package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onnwee/trivia-tender/db"
	"github.com/onnwee/trivia-tender/stats"
	"github.com/onnwee/trivia-tender/telemetry"
	"github.com/onnwee/trivia-tender/trivia"
)

const (
	statsUnavailable = "❌ Stats not available: database not initialized."
	leaderboardSize  = 5
)

// registerCommands wires the channel's full command table. Exact commands are
// registered first; prefix commands go in longest-first order so "!trivia auto
// smite" never falls through to "!trivia".
func (b *Bot) registerCommands(cs *channelState) {
	r := cs.router

	r.RegisterExact("!trivia-help", func(ctx context.Context, _, _ string) string {
		return cs.manager.Help()
	})
	r.RegisterExact("!trivia-status", func(ctx context.Context, _, _ string) string {
		return cs.manager.Status()
	})
	r.RegisterExact("!giveup", func(ctx context.Context, _, _ string) string {
		if !cs.manager.Active() {
			return "❌ No active trivia to end."
		}
		return cs.orch.HandleGiveUp(cs.manager)
	})
	r.RegisterExact("!end trivia", func(ctx context.Context, _, _ string) string {
		return cs.orch.EndAll(cs.manager)
	})
	r.RegisterExact("!trivia auto smite", func(ctx context.Context, _, _ string) string {
		return cs.orch.StartAuto(trivia.KindSmite)
	})
	r.RegisterExact("!trivia auto", func(ctx context.Context, _, _ string) string {
		return cs.orch.StartAuto(trivia.KindGeneral)
	})
	r.RegisterExact("!trivia smite", func(ctx context.Context, _, _ string) string {
		return cs.orch.StartSingle(trivia.KindSmite)
	})
	r.RegisterExact("!trivia", func(ctx context.Context, _, _ string) string {
		return cs.orch.StartSingle(trivia.KindGeneral)
	})
	r.RegisterExact("!leaderboard", func(ctx context.Context, _, _ string) string {
		return b.cmdLeaderboard(ctx, cs)
	})
	r.RegisterExact("!top", func(ctx context.Context, _, _ string) string {
		return b.cmdLeaderboard(ctx, cs)
	})
	r.RegisterExact("!streaks", func(ctx context.Context, _, _ string) string {
		return b.cmdStreaks(ctx, cs)
	})
	r.RegisterExact("!summary", func(ctx context.Context, _, _ string) string {
		return b.cmdSummary(ctx, cs)
	})

	r.RegisterPrefix("!answer", func(ctx context.Context, message, username string) string {
		return b.cmdAnswer(ctx, cs, message, username)
	})
	r.RegisterPrefix("!stats", func(ctx context.Context, message, username string) string {
		return b.cmdStats(ctx, cs, message, username)
	})
	r.RegisterPrefix("!rank", func(ctx context.Context, message, username string) string {
		return b.cmdRank(ctx, cs, message, username)
	})
}

// cmdAnswer submits an answer to the live round and records the attempt. Stats
// recording is best-effort: a database failure is logged and never blocks the
// chat response.
func (b *Bot) cmdAnswer(ctx context.Context, cs *channelState, message, username string) string {
	raw := strings.TrimSpace(message[len("!answer"):])
	if raw == "" {
		return "❌ Usage: !answer <your answer>"
	}

	q := cs.manager.Question()
	correct, msg, err := cs.manager.SubmitAnswer(ctx, raw, username)
	if err != nil {
		slog.Error("answer check failed", slog.String("channel", cs.name), slog.Any("err", err))
		return "❌ Could not check that answer. Try again!"
	}
	telemetry.Inc(telemetry.AnswersSubmitted)
	if correct {
		telemetry.Inc(telemetry.AnswersCorrect)
	}

	// Only graded submissions count toward stats.
	if q != nil && b.engine != nil && cs.id != 0 {
		if userID, uerr := db.EnsureUser(ctx, b.database, username); uerr != nil {
			slog.Warn("failed to register user", slog.String("user", username), slog.Any("err", uerr))
		} else if _, serr := b.engine.RecordAttempt(ctx, cs.id, userID, q.Prompt, raw, correct); serr != nil {
			slog.Warn("failed to record attempt", slog.String("user", username), slog.Any("err", serr))
		}
	}
	return msg
}

// cmdStats reports a user's channel record. "!stats" on its own reports the
// sender; "!stats someone" looks up that name.
func (b *Bot) cmdStats(ctx context.Context, cs *channelState, message, username string) string {
	if b.engine == nil || cs.id == 0 {
		return statsUnavailable
	}
	target := targetUser(message, "!stats", username)

	userID, err := db.EnsureUser(ctx, b.database, target)
	if err != nil {
		slog.Error("stats lookup failed", slog.String("user", target), slog.Any("err", err))
		return statsUnavailable
	}
	s, found, err := b.engine.UserStats(ctx, cs.id, userID)
	if err != nil {
		slog.Error("stats lookup failed", slog.String("user", target), slog.Any("err", err))
		return statsUnavailable
	}
	if !found || s.TotalQuestions == 0 {
		return fmt.Sprintf("📭 No trivia stats yet for %s in #%s. Answer a question to get started!", target, cs.name)
	}
	return fmt.Sprintf("📊 %s in #%s: %d/%d correct (%.1f%%) | Current streak: %d | Best streak: %d",
		target, cs.name, s.CorrectAnswers, s.TotalQuestions, s.Accuracy()*100, s.CurrentStreak, s.BestStreak)
}

// cmdRank reports a user's leaderboard position.
func (b *Bot) cmdRank(ctx context.Context, cs *channelState, message, username string) string {
	if b.engine == nil || cs.id == 0 {
		return statsUnavailable
	}
	target := targetUser(message, "!rank", username)

	userID, err := db.EnsureUser(ctx, b.database, target)
	if err != nil {
		slog.Error("rank lookup failed", slog.String("user", target), slog.Any("err", err))
		return statsUnavailable
	}
	rank, found, err := b.engine.Rank(ctx, cs.id, userID)
	if err != nil {
		slog.Error("rank lookup failed", slog.String("user", target), slog.Any("err", err))
		return statsUnavailable
	}
	if !found {
		return fmt.Sprintf("🔍 %s is not ranked in #%s yet. Answer a question to join the board!", target, cs.name)
	}
	return fmt.Sprintf("🏆 %s is %s in #%s!", target, ordinal(rank), cs.name)
}

func (b *Bot) cmdLeaderboard(ctx context.Context, cs *channelState) string {
	if b.engine == nil || cs.id == 0 {
		return statsUnavailable
	}
	rows, err := b.engine.Leaderboard(ctx, cs.id, leaderboardSize)
	if err != nil {
		slog.Error("leaderboard failed", slog.String("channel", cs.name), slog.Any("err", err))
		return statsUnavailable
	}
	if len(rows) == 0 {
		return fmt.Sprintf("📭 No trivia data yet for #%s. Be the first to answer!", cs.name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 TOP %d - #%s |", len(rows), cs.name)
	for i, r := range rows {
		fmt.Fprintf(&sb, " %d. %s: %d/%d (%.1f%%)", i+1, r.Username, r.CorrectAnswers, r.TotalQuestions, r.AccuracyPct)
		if i < len(rows)-1 {
			sb.WriteString(" |")
		}
	}
	return sb.String()
}

func (b *Bot) cmdStreaks(ctx context.Context, cs *channelState) string {
	if b.engine == nil || cs.id == 0 {
		return statsUnavailable
	}
	rows, err := b.engine.TopStreaks(ctx, cs.id, leaderboardSize)
	if err != nil {
		slog.Error("streaks failed", slog.String("channel", cs.name), slog.Any("err", err))
		return statsUnavailable
	}
	if len(rows) == 0 {
		return fmt.Sprintf("🔥 No streaks recorded yet in #%s.", cs.name)
	}
	return formatStreaks(rows, cs.name)
}

// formatStreaks renders the top-streaks board. A live streak is shown next to
// the best so chat can see who is on a run right now.
func formatStreaks(rows []stats.BoardRow, channel string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 TOP STREAKS - #%s |", channel)
	for i, r := range rows {
		fmt.Fprintf(&sb, " %d. %s: %d", i+1, r.Username, r.BestStreak)
		if r.CurrentStreak > 0 {
			fmt.Fprintf(&sb, " (current: %d)", r.CurrentStreak)
		}
		if i < len(rows)-1 {
			sb.WriteString(" |")
		}
	}
	return sb.String()
}

func (b *Bot) cmdSummary(ctx context.Context, cs *channelState) string {
	if b.engine == nil || cs.id == 0 {
		return statsUnavailable
	}
	s, err := b.engine.Summary(ctx, cs.id)
	if err != nil {
		slog.Error("summary failed", slog.String("channel", cs.name), slog.Any("err", err))
		return statsUnavailable
	}
	if s.TotalAnswered == 0 {
		return fmt.Sprintf("📈 No trivia activity yet in #%s.", cs.name)
	}
	pct := float64(s.TotalCorrect) / float64(s.TotalAnswered) * 100
	return fmt.Sprintf("📈 #%s: %d users | %d/%d correct (%.1f%%) | Best streak: %d",
		cs.name, s.TotalUsers, s.TotalCorrect, s.TotalAnswered, pct, s.HighestStreak)
}

// targetUser extracts the optional username argument from a prefix command,
// defaulting to the sender. A leading @ is stripped.
func targetUser(message, prefix, sender string) string {
	arg := strings.TrimSpace(message[len(prefix):])
	if arg == "" {
		return strings.ToLower(sender)
	}
	return strings.ToLower(strings.TrimPrefix(strings.Fields(arg)[0], "@"))
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st 🥇"
	case 2:
		return "2nd 🥈"
	case 3:
		return "3rd 🥉"
	}
	suffix := "th"
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
