package subs

import (
	"context"
	"time"
)

type Storage interface {
	GrantSubscription(ctx context.Context, userID int64, days int) (*Subscription, error)
	RevokeSubscription(ctx context.Context, userID int64) error
	RevokeExpiredSubscription(ctx context.Context, userID int64, asOf time.Time) (bool, error)
	ListExpiredSubscriptions(ctx context.Context, asOf time.Time) ([]*Subscription, error)
	GetSubscription(ctx context.Context, criteria GetCriteria) (*Subscription, error)
	ListSubscriptions(ctx context.Context, criteria ListCriteria) ([]*Subscription, error)
}
