package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Webhook          WebhookConfig           `env:",prefix=WEBHOOK_"`
	Approval         ApprovalConfig          `env:",prefix=APPROVAL_"`
	Redis            RedisConfig             `env:",prefix=REDIS_"`
	Revocation       RevocationConfig        `env:",prefix=REVOCATION_"`
}

type TelegramConfig struct {
	BotToken         string  `env:"BOT_TOKEN,required"`
	PrivateChannelID int64   `env:"PRIVATE_CHANNEL_ID,required"`
	AdminIDs         []int64 `env:"ADMIN_IDS"`
	DefaultLanguage  string  `env:"DEFAULT_LANGUAGE,default=en"`
	RateLimit        struct {
		Burst int     `env:"BURST,default=1"`
		RPS   float64 `env:"RPS,default=30"`
	} `env:",prefix=RATE_LIMIT_"`
}

// WebhookConfig описывает входящий HTTP endpoint для Telegram.
// Пустой PublicURL означает режим long polling.
type WebhookConfig struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            uint16        `env:"PORT,default=5000"`
	PublicURL       string        `env:"PUBLIC_URL"`
	SecretToken     string        `env:"SECRET_TOKEN"`
	AutoRegister    bool          `env:"AUTO_REGISTER,default=false"`
	DeliveryLogSize int           `env:"DELIVERY_LOG_SIZE,default=50"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=60s"`
}

func (w WebhookConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

type ApprovalConfig struct {
	DefaultDays int           `env:"DEFAULT_DAYS,default=30"`
	MaxDays     int           `env:"MAX_DAYS,default=3650"`
	Guard       string        `env:"GUARD,default=memory"`
	GuardTTL    time.Duration `env:"GUARD_TTL,default=2160h"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR,default=127.0.0.1:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB,default=0"`
}

type RevocationConfig struct {
	Enabled  bool   `env:"ENABLED,default=false"`
	Schedule string `env:"SCHEDULE,default=10 0 * * *"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string        `env:"PATH,default=./data/subscriptions.db"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS,default=1"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS,default=1"`
	MaxLifetime  time.Duration `env:"MAX_LIFETIME,default=5m"`
}
