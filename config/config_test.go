package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TWITCH_CHANNELS", "")
	t.Setenv("TWITCH_CHANNEL", "")
	t.Setenv("CHAT_RATE_BURST", "")
	t.Setenv("CHAT_RATE_WINDOW", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RateBurst != 18 {
		t.Errorf("RateBurst = %d, want 18", cfg.RateBurst)
	}
	if cfg.RateWindow != 30*time.Second {
		t.Errorf("RateWindow = %v, want 30s", cfg.RateWindow)
	}
	if cfg.MaxMessageLen != 450 {
		t.Errorf("MaxMessageLen = %d, want 450", cfg.MaxMessageLen)
	}
	if cfg.DBDsn == "" {
		t.Errorf("expected default DB DSN, got empty")
	}
}

func TestLoadChannelList(t *testing.T) {
	t.Setenv("TWITCH_CHANNELS", "Alpha, beta ,,GAMMA")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(cfg.TwitchChannels) != len(want) {
		t.Fatalf("TwitchChannels = %v, want %v", cfg.TwitchChannels, want)
	}
	for i, ch := range want {
		if cfg.TwitchChannels[i] != ch {
			t.Errorf("TwitchChannels[%d] = %q, want %q", i, cfg.TwitchChannels[i], ch)
		}
	}
}

func TestLoadSingleChannelFallback(t *testing.T) {
	t.Setenv("TWITCH_CHANNELS", "")
	t.Setenv("TWITCH_CHANNEL", "SoloChan")
	cfg, _ := Load()
	if len(cfg.TwitchChannels) != 1 || cfg.TwitchChannels[0] != "solochan" {
		t.Errorf("TwitchChannels = %v, want [solochan]", cfg.TwitchChannels)
	}
}

func TestLoadInvalidOverridesIgnored(t *testing.T) {
	t.Setenv("CHAT_RATE_BURST", "not-a-number")
	t.Setenv("CHAT_RATE_WINDOW", "-5s")
	t.Setenv("TRIVIA_AUTO_DELAY", "bogus")
	cfg, _ := Load()
	if cfg.RateBurst != 18 {
		t.Errorf("RateBurst = %d, want default 18", cfg.RateBurst)
	}
	if cfg.RateWindow != 30*time.Second {
		t.Errorf("RateWindow = %v, want default 30s", cfg.RateWindow)
	}
	if cfg.AutoAdvanceDelay != time.Second {
		t.Errorf("AutoAdvanceDelay = %v, want default 1s", cfg.AutoAdvanceDelay)
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNELS", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNELS"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNELS: %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNEL"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNEL: %v", err)
	}
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
