// Command trivia-tender is the main entrypoint for the chat trivia bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Joins the configured Twitch channels and serves trivia commands,
//     reconnecting with backoff when the connection drops.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/onnwee/trivia-tender/bot"
	"github.com/onnwee/trivia-tender/config"
	"github.com/onnwee/trivia-tender/db"
	"github.com/onnwee/trivia-tender/server"
	"github.com/onnwee/trivia-tender/telemetry"
	"github.com/onnwee/trivia-tender/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("chat config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("trivia-tender", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB is optional: without it the bot still serves general trivia from the
	// remote API, but Smite trivia and stats are disabled.
	database := openDatabase(cfg.DBDsn)
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best-effort Helix lookup so channel rows carry their Twitch user ID.
	if database != nil && cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "" {
		resolveChannelIDs(ctx, cfg, database)
	}

	transport := bot.NewTwitchTransport(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	b := bot.New(ctx, cfg, database, transport)

	go func() {
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("bot stopped", slog.Any("err", err))
			stop()
		}
	}()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("http server starting", slog.String("addr", addr))
	if err := server.Start(ctx, database, b, addr); err != nil {
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

// openDatabase connects and migrates, returning nil when the database cannot
// be reached. Versioned migrations run first; the embedded schema is the
// fallback for deployments without the migrations directory on disk.
func openDatabase(dsn string) *sql.DB {
	database, err := db.Connect(dsn)
	if err != nil {
		slog.Warn("database unavailable; continuing without question bank", slog.Any("err", err))
		return nil
	}
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting embedded SQL fallback", slog.Any("err", err))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			_ = database.Close()
			return nil
		}
	}
	return database
}

func resolveChannelIDs(ctx context.Context, cfg *config.Config, database *sql.DB) {
	hc := &twitchapi.HelixClient{
		ClientID:       cfg.TwitchClientID,
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
	}
	for _, name := range cfg.TwitchChannels {
		lookupCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
		id, err := hc.GetUserID(lookupCtx, name)
		cancel()
		if err != nil {
			slog.Warn("helix user lookup failed", slog.String("channel", name), slog.Any("err", err))
			continue
		}
		if err := db.SetChannelTwitchID(ctx, database, name, id); err != nil {
			slog.Warn("failed to store channel twitch id", slog.String("channel", name), slog.Any("err", err))
		}
	}
}
