package environment

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"paywall-bot/internal/config"
	"paywall-bot/internal/infra/sqlite3"
	"paywall-bot/internal/storage"
	"paywall-bot/internal/stories/subs"
)

// Store is the subscription store alone, for operator tooling that must not
// require Telegram settings.
type Store struct {
	Config        config.SQLiteConfig
	Approval      config.ApprovalConfig
	DB            *sqlite3.DB
	Subscriptions *subs.Service
}

// OpenStore reads DB_* and APPROVAL_* settings from the environment.
// A non-empty path overrides DB_PATH.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	_ = godotenv.Load()

	var cfg config.SQLiteConfig
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("DB_", envconfig.OsLookuper()),
	})
	if err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}

	var approvalCfg config.ApprovalConfig
	err = envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &approvalCfg,
		Lookuper: envconfig.PrefixLookuper("APPROVAL_", envconfig.OsLookuper()),
	})
	if err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}
	if approvalCfg.DefaultDays <= 0 || approvalCfg.MaxDays < approvalCfg.DefaultDays {
		return nil, fmt.Errorf("invalid APPROVAL_DEFAULT_DAYS %d / APPROVAL_MAX_DAYS %d",
			approvalCfg.DefaultDays, approvalCfg.MaxDays)
	}

	if path != "" {
		cfg.Path = path
	}

	db, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	return &Store{
		Config:        cfg,
		Approval:      approvalCfg,
		DB:            db,
		Subscriptions: subs.NewService(storage.New(db.DB), time.Now),
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
