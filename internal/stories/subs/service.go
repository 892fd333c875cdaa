package subs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Service struct {
	storage Storage
	now     func() time.Time
}

func NewService(storage Storage, now func() time.Time) *Service {
	return &Service{
		storage: storage,
		now:     now,
	}
}

// Grant writes or overwrites the subscription of userID with an expiry
// days from now. Last writer wins.
func (s *Service) Grant(ctx context.Context, userID int64, days int) (*Subscription, error) {
	if userID == 0 {
		return nil, errors.New("user id is required")
	}
	if days <= 0 {
		return nil, errors.Errorf("days must be positive, got %d", days)
	}

	sub, err := s.storage.GrantSubscription(ctx, userID, days)
	if err != nil {
		return nil, errors.Wrap(err, "grant subscription")
	}
	return sub, nil
}

// Revoke deletes the subscription of userID. Missing records are not an error.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	if err := s.storage.RevokeSubscription(ctx, userID); err != nil {
		return errors.Wrap(err, "revoke subscription")
	}
	return nil
}

// RevokeExpired deletes the subscription of userID only if it is still expired
// as of asOf. A grant made after the scan survives and false is returned.
func (s *Service) RevokeExpired(ctx context.Context, userID int64, asOf time.Time) (bool, error) {
	deleted, err := s.storage.RevokeExpiredSubscription(ctx, userID, asOf)
	if err != nil {
		return false, errors.Wrap(err, "revoke expired subscription")
	}
	return deleted, nil
}

// ListExpired returns the ids of users whose expiry is at or before asOf.
// This is the Expiry Scanner surface; it never mutates state.
func (s *Service) ListExpired(ctx context.Context, asOf time.Time) ([]int64, error) {
	expired, err := s.ListExpiredSubscriptions(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return lo.Map(expired, func(sub *Subscription, _ int) int64 { return sub.UserID }), nil
}

func (s *Service) ListExpiredSubscriptions(ctx context.Context, asOf time.Time) ([]*Subscription, error) {
	expired, err := s.storage.ListExpiredSubscriptions(ctx, asOf)
	if err != nil {
		return nil, errors.Wrap(err, "list expired subscriptions")
	}
	return expired, nil
}

func (s *Service) GetSubscription(ctx context.Context, userID int64) (*Subscription, error) {
	return s.storage.GetSubscription(ctx, GetCriteria{UserIDs: []int64{userID}})
}

func (s *Service) ListSubscriptions(ctx context.Context, criteria ListCriteria) ([]*Subscription, error) {
	return s.storage.ListSubscriptions(ctx, criteria)
}

func (s *Service) Now() time.Time {
	return s.now()
}
