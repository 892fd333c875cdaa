package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()

	var cfg Config
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(env),
	})
	return cfg, err
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":          "123:abc",
		"TELEGRAM_PRIVATE_CHANNEL_ID": "-1001234567890",
		"TELEGRAM_ADMIN_IDS":          "111,222",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Approval.DefaultDays != 30 {
		t.Errorf("DefaultDays = %d, want 30", cfg.Approval.DefaultDays)
	}
	if cfg.Approval.Guard != GuardMemory {
		t.Errorf("Guard = %q, want %q", cfg.Approval.Guard, GuardMemory)
	}
	if cfg.Telegram.PrivateChannelID != -1001234567890 {
		t.Errorf("PrivateChannelID = %d", cfg.Telegram.PrivateChannelID)
	}
	if len(cfg.Telegram.AdminIDs) != 2 || cfg.Telegram.AdminIDs[0] != 111 || cfg.Telegram.AdminIDs[1] != 222 {
		t.Errorf("AdminIDs = %v, want [111 222]", cfg.Telegram.AdminIDs)
	}
	if cfg.Webhook.WebhookURL() != "" {
		t.Errorf("WebhookURL() = %q, want empty in polling mode", cfg.Webhook.WebhookURL())
	}
}

func TestConfigRequiresToken(t *testing.T) {
	_, err := load(t, map[string]string{
		"TELEGRAM_PRIVATE_CHANNEL_ID": "-100",
	})
	if err == nil {
		t.Fatal("expected error for missing TELEGRAM_BOT_TOKEN")
	}
}

func TestWebhookURL(t *testing.T) {
	tests := []struct {
		name   string
		public string
		want   string
	}{
		{name: "empty", public: "", want: ""},
		{name: "plain", public: "https://bot.example.com", want: "https://bot.example.com/webhook"},
		{name: "trailing slash", public: "https://bot.example.com/", want: "https://bot.example.com/webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WebhookConfig{PublicURL: tt.public}
			if got := w.WebhookURL(); got != tt.want {
				t.Errorf("WebhookURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Telegram: TelegramConfig{BotToken: "t", PrivateChannelID: -100},
			Approval: ApprovalConfig{DefaultDays: 30, MaxDays: 365, Guard: GuardOff},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no channel", mutate: func(c *Config) { c.Telegram.PrivateChannelID = 0 }, wantErr: true},
		{name: "zero days", mutate: func(c *Config) { c.Approval.DefaultDays = 0 }, wantErr: true},
		{name: "max below default", mutate: func(c *Config) { c.Approval.MaxDays = 7 }, wantErr: true},
		{name: "unknown guard", mutate: func(c *Config) { c.Approval.Guard = "etcd" }, wantErr: true},
		{name: "memory guard with ttl", mutate: func(c *Config) {
			c.Approval.Guard = GuardMemory
			c.Approval.GuardTTL = time.Hour
		}},
		{name: "memory guard zero ttl", mutate: func(c *Config) { c.Approval.Guard = GuardMemory }, wantErr: true},
		{name: "redis guard negative ttl", mutate: func(c *Config) {
			c.Approval.Guard = GuardRedis
			c.Approval.GuardTTL = -time.Minute
		}, wantErr: true},
		{name: "revocation schedule", mutate: func(c *Config) {
			c.Revocation = RevocationConfig{Enabled: true, Schedule: "10 0 * * *"}
		}},
		{name: "bad revocation schedule", mutate: func(c *Config) {
			c.Revocation = RevocationConfig{Enabled: true, Schedule: "every tuesday"}
		}, wantErr: true},
		{name: "schedule ignored when disabled", mutate: func(c *Config) {
			c.Revocation = RevocationConfig{Schedule: "every tuesday"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
