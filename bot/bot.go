package bot

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/trivia-tender/config"
	"github.com/onnwee/trivia-tender/db"
	"github.com/onnwee/trivia-tender/stats"
	"github.com/onnwee/trivia-tender/telemetry"
	"github.com/onnwee/trivia-tender/trivia"
)

// ChatEvent is one inbound chat message, created per message and discarded
// after dispatch.
type ChatEvent struct {
	Channel    string
	Username   string
	Text       string
	ReceivedAt time.Time
}

// Transport abstracts the IRC connection. The production implementation wraps
// gempir/go-twitch-irc, which answers protocol PINGs internally so keep-alives
// never pass through the rate limiter.
type Transport interface {
	// Connect blocks until the connection closes; returns the disconnect cause.
	Connect() error
	Disconnect() error
	Join(channel string)
	Say(channel, text string)
	OnMessage(fn func(ChatEvent))
}

// channelSnapshot is the session state published for the status endpoint.
type channelSnapshot struct {
	Active      bool
	Auto        bool
	AutoKind    string
	PendingLoad bool
}

// channelState is everything owned by one channel's event loop. Sessions and
// stats are fully independent across channels; only the rate limiter and the
// database pool are shared. manager and orch are touched exclusively by the
// loop; other goroutines read the mutex-guarded snapshot instead.
type channelState struct {
	name    string
	id      int64 // channels.id row, 0 when the database is unavailable
	manager *trivia.Manager
	orch    *trivia.Orchestrator
	router  *Router
	events  chan ChatEvent

	mu   sync.Mutex
	snap channelSnapshot
}

// publishSnapshot refreshes the status snapshot from the loop-owned state.
// Called only from the channel's event loop.
func (cs *channelState) publishSnapshot() {
	auto, kind := cs.orch.AutoActive()
	snap := channelSnapshot{
		Active:      cs.manager.Active(),
		Auto:        auto,
		AutoKind:    string(kind),
		PendingLoad: cs.orch.PendingLoad(),
	}
	cs.mu.Lock()
	cs.snap = snap
	cs.mu.Unlock()
}

func (cs *channelState) snapshot() channelSnapshot {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.snap
}

// Bot runs one chat connection serving one or more channels. Each channel gets
// its own goroutine that consumes events strictly in arrival order, which is
// what makes first-correct-answer-wins well defined.
type Bot struct {
	cfg       *config.Config
	database  *sql.DB
	engine    *stats.Engine
	store     *trivia.Store
	transport Transport
	limiter   *RateLimiter
	channels  map[string]*channelState
}

// New assembles a Bot. database may be nil: trivia falls back to the OpenTDB
// source and stats commands report the database as unavailable. All channel
// state is built here, so the channels map is read-only for the bot's
// lifetime and safe to reach from other goroutines.
func New(ctx context.Context, cfg *config.Config, database *sql.DB, transport Transport) *Bot {
	telemetry.Init()
	b := &Bot{
		cfg:       cfg,
		database:  database,
		transport: transport,
		limiter:   NewRateLimiter(cfg.RateBurst, cfg.RateWindow, cfg.MaxMessageLen),
		channels:  make(map[string]*channelState),
	}
	if database != nil {
		b.engine = stats.NewEngine(database)
		b.store = trivia.NewStore(database)
	}
	for _, name := range cfg.TwitchChannels {
		b.channels[name] = b.setupChannel(ctx, name)
	}
	return b
}

// Run connects to chat and serves events until ctx is cancelled, reconnecting
// with exponential backoff on transport errors. Cancelling ctx drops any
// pending question loads; in-memory session state does not survive the process.
func (b *Bot) Run(ctx context.Context) error {
	for name, cs := range b.channels {
		go b.runChannel(ctx, cs)
		b.transport.Join(name)
	}
	b.transport.OnMessage(b.enqueue)

	go func() {
		<-ctx.Done()
		if err := b.transport.Disconnect(); err != nil {
			slog.Debug("transport disconnect", slog.Any("err", err))
		}
	}()

	backoff := time.Second
	for {
		err := b.transport.Connect()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		telemetry.Inc(telemetry.Reconnects)
		slog.Warn("chat connection lost; reconnecting", slog.Any("err", err), slog.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

// setupChannel builds the per-channel session, orchestrator, and command
// table, and registers the channel row when the database is available.
func (b *Bot) setupChannel(ctx context.Context, name string) *channelState {
	cs := &channelState{
		name:    name,
		manager: trivia.NewManager(),
		orch:    trivia.NewOrchestrator(b.cfg.AutoAdvanceDelay),
		router:  NewRouter(),
		events:  make(chan ChatEvent, 64),
	}

	if b.database != nil {
		id, err := db.EnsureChannel(ctx, b.database, name)
		if err != nil {
			slog.Error("failed to register channel", slog.String("channel", name), slog.Any("err", err))
		} else {
			cs.id = id
		}
		cs.orch.SetHandler(trivia.KindSmite, trivia.NewSmiteHandler(b.store, b.cfg.FuzzyMaxDistance))
		cs.orch.SetHandler(trivia.KindGeneral, trivia.NewGeneralHandler(b.store))
	} else {
		// No question bank; serve general trivia from the legacy API source.
		cs.orch.SetHandler(trivia.KindGeneral, trivia.NewOpenTDBHandler(&trivia.OpenTDBClient{BaseURL: b.cfg.OpenTDBURL}))
		slog.Warn("database unavailable; smite trivia and stats disabled", slog.String("channel", name))
	}

	b.registerCommands(cs)
	return cs
}

// enqueue routes an inbound transport message to its channel's loop. The
// transport reader must never block on a slow channel, so a full queue drops
// the event.
func (b *Bot) enqueue(ev ChatEvent) {
	name := strings.ToLower(strings.TrimPrefix(ev.Channel, "#"))
	cs, ok := b.channels[name]
	if !ok {
		return
	}
	select {
	case cs.events <- ev:
	default:
		slog.Warn("channel event queue full; dropping message", slog.String("channel", name), slog.String("user", ev.Username))
	}
}

func (b *Bot) runChannel(ctx context.Context, cs *channelState) {
	slog.Info("channel loop started", slog.String("channel", cs.name))
	for {
		select {
		case <-ctx.Done():
			slog.Info("channel loop stopped", slog.String("channel", cs.name))
			return
		case ev := <-cs.events:
			b.handleEvent(ctx, cs, ev)
		}
	}
}

// handleEvent processes exactly one inbound event: dispatch, respond, then let
// the orchestrator resolve pending loads and auto progression. Everything runs
// on the channel's single loop, so no two events for a channel ever interleave.
func (b *Bot) handleEvent(ctx context.Context, cs *channelState, ev ChatEvent) {
	telemetry.Inc(telemetry.MessagesReceived)
	wasActive := cs.manager.Active()

	resp, matched := cs.router.Dispatch(ctx, ev.Text, ev.Username)
	if matched {
		telemetry.Inc(telemetry.CommandsDispatched)
	}
	if resp != "" {
		b.send(ctx, cs.name, resp)
	}

	send := func(msg string) error { return b.send(ctx, cs.name, msg) }
	cs.orch.ResolvePending(ctx, cs.manager, send)
	cs.orch.AutoProgress(ctx, cs.manager, send)

	if nowActive := cs.manager.Active(); nowActive != wasActive {
		if nowActive {
			telemetry.AddGauge(telemetry.ActiveSessionsGauge, 1)
		} else {
			telemetry.AddGauge(telemetry.ActiveSessionsGauge, -1)
		}
	}
	cs.publishSnapshot()
}

// send pushes one message through the rate limiter and transport. The send is
// recorded against the window only after the transport write.
func (b *Bot) send(ctx context.Context, channel, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := b.limiter.Reserve(ctx); err != nil {
		return err
	}
	b.transport.Say(channel, b.limiter.Clamp(text))
	b.limiter.Record(time.Now())
	telemetry.Inc(telemetry.MessagesSent)
	return nil
}

// Status summarizes session and rate limiter state for the status endpoint.
// Reads only the per-channel snapshots, never the loop-owned session state,
// so it is safe to call from the HTTP handler goroutine.
func (b *Bot) Status() map[string]any {
	chans := make(map[string]any, len(b.channels))
	for name, cs := range b.channels {
		snap := cs.snapshot()
		chans[name] = map[string]any{
			"active":       snap.Active,
			"auto":         snap.Auto,
			"auto_kind":    snap.AutoKind,
			"pending_load": snap.PendingLoad,
		}
	}
	return map[string]any{
		"channels":           chans,
		"messages_in_window": b.limiter.InWindow(),
	}
}
