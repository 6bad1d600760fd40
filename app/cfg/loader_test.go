package cfg

import (
	"errors"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL_ID", "@newsroom")

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.CheckInterval != 15*time.Minute {
		t.Errorf("Expected check interval 15m, got: %s", cfg.CheckInterval)
	}
	if cfg.MaxArticlesPerFeed != 3 {
		t.Errorf("Expected 3 articles per feed, got: %d", cfg.MaxArticlesPerFeed)
	}
	if cfg.MaxSummaryLength != 300 {
		t.Errorf("Expected summary length 300, got: %d", cfg.MaxSummaryLength)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("Expected fetch timeout 15s, got: %s", cfg.FetchTimeout)
	}
	if cfg.SendDelay != 1500*time.Millisecond {
		t.Errorf("Expected send delay 1.5s, got: %s", cfg.SendDelay)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("Expected retention 30 days, got: %d", cfg.RetentionDays)
	}
	if cfg.StoreDriver != StoreDriverSQLite {
		t.Errorf("Expected sqlite store, got: %s", cfg.StoreDriver)
	}
	if cfg.PurgeMode != PurgeModeDaily {
		t.Errorf("Expected daily purge, got: %s", cfg.PurgeMode)
	}
	if cfg.DedupReadPolicy != ReadPolicyFailOpen {
		t.Errorf("Expected fail-open policy, got: %s", cfg.DedupReadPolicy)
	}
	if cfg.TimezoneLabel != "WIB" {
		t.Errorf("Expected timezone label WIB, got: %s", cfg.TimezoneLabel)
	}
	if cfg.Location == nil {
		t.Error("Expected location to be resolved")
	}
}

func TestLoadArgsFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")
	t.Setenv("MAX_ARTICLES_PER_FEED", "5")

	cfg, err := LoadArgs([]string{"--max-articles-per-feed", "7", "--store", "redis", "--check-interval", "5"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.MaxArticlesPerFeed != 7 {
		t.Errorf("Expected 7 articles per feed, got: %d", cfg.MaxArticlesPerFeed)
	}
	if cfg.StoreDriver != StoreDriverRedis {
		t.Errorf("Expected redis store, got: %s", cfg.StoreDriver)
	}
	if cfg.CheckInterval != 5*time.Minute {
		t.Errorf("Expected check interval 5m, got: %s", cfg.CheckInterval)
	}
}

func TestLoadArgsOnceForcesEveryCyclePurge(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL_ID", "@newsroom")

	cfg, err := LoadArgs([]string{"--once"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.PurgeMode != PurgeModeEveryCycle {
		t.Errorf("Expected every-cycle purge in once mode, got: %s", cfg.PurgeMode)
	}
}

func TestLoadArgsMissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		channel string
	}{
		{"missing token", "", "@newsroom"},
		{"missing channel", "123:abc", ""},
		{"missing both", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TELEGRAM_BOT_TOKEN", tt.token)
			t.Setenv("TELEGRAM_CHANNEL_ID", tt.channel)

			_, err := LoadArgs([]string{})
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("Expected ErrMissingCredentials, got: %v", err)
			}
		})
	}
}

func TestValidateRanges(t *testing.T) {
	valid := func() *Cfg {
		return &Cfg{
			TelegramToken:      "123:abc",
			TelegramChannel:    "@newsroom",
			CheckInterval:      15 * time.Minute,
			MaxArticlesPerFeed: 3,
			MaxSummaryLength:   300,
			FetchTimeout:       15 * time.Second,
			FetchWorkers:       4,
			SendDelay:          1500 * time.Millisecond,
			StoreDriver:        StoreDriverSQLite,
			RetentionDays:      30,
			PurgeMode:          PurgeModeDaily,
			DedupReadPolicy:    ReadPolicyFailOpen,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Cfg)
	}{
		{"zero retention", func(c *Cfg) { c.RetentionDays = 0 }},
		{"zero articles", func(c *Cfg) { c.MaxArticlesPerFeed = 0 }},
		{"negative delay", func(c *Cfg) { c.SendDelay = -time.Second }},
		{"zero timeout", func(c *Cfg) { c.FetchTimeout = 0 }},
		{"unknown driver", func(c *Cfg) { c.StoreDriver = "postgres" }},
		{"unknown purge mode", func(c *Cfg) { c.PurgeMode = "weekly" }},
		{"unknown read policy", func(c *Cfg) { c.DedupReadPolicy = "maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
