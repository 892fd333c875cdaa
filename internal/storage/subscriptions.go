package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paywall-bot/internal/stories/subs"

	sq "github.com/Masterminds/squirrel"
)

const (
	subscriptionsTable = "subscriptions"
	secondsPerDay      = 86400
)

var subscriptionRowFields = fields(subscriptionRow{})

type subscriptionRow struct {
	UserID     int64 `db:"user_id"`
	ExpiryDate int64 `db:"expiry_date"`
}

func (s subscriptionRow) ToModel() *subs.Subscription {
	return &subs.Subscription{
		UserID:    s.UserID,
		ExpiresAt: time.Unix(s.ExpiryDate, 0).UTC(),
	}
}

// GrantSubscription upserts the record of userID with expiry now+days.
// The row is committed before the call returns.
func (s *storageImpl) GrantSubscription(ctx context.Context, userID int64, days int) (*subs.Subscription, error) {
	row := subscriptionRow{
		UserID:     userID,
		ExpiryDate: s.now().Unix() + int64(days)*secondsPerDay,
	}

	q, args, err := s.stmpBuilder().
		Replace(subscriptionsTable).
		Columns("user_id", "expiry_date").
		Values(row.UserID, row.ExpiryDate).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return row.ToModel(), nil
}

// RevokeSubscription deletes the record of userID; deleting a missing record is a no-op.
func (s *storageImpl) RevokeSubscription(ctx context.Context, userID int64) error {
	q, args, err := s.stmpBuilder().
		Delete(subscriptionsTable).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		return nil
	})
}

// RevokeExpiredSubscription deletes the record of userID only while it is still
// expired as of asOf. It reports false when the record is gone or was renewed.
func (s *storageImpl) RevokeExpiredSubscription(ctx context.Context, userID int64, asOf time.Time) (bool, error) {
	q, args, err := s.stmpBuilder().
		Delete(subscriptionsTable).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"expiry_date": asOf.Unix()}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build sql query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted bool
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("res.RowsAffected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// ListExpiredSubscriptions returns records with expiry_date <= asOf, ordered by user id.
func (s *storageImpl) ListExpiredSubscriptions(ctx context.Context, asOf time.Time) ([]*subs.Subscription, error) {
	return s.ListSubscriptions(ctx, subs.ListCriteria{ExpiredAsOf: &asOf})
}

func (s *storageImpl) GetSubscription(ctx context.Context, criteria subs.GetCriteria) (*subs.Subscription, error) {
	query := s.stmpBuilder().
		Select(subscriptionRowFields).
		From(subscriptionsTable).
		Limit(1)

	if len(criteria.UserIDs) > 0 {
		query = query.Where(sq.Eq{"user_id": criteria.UserIDs})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sub subscriptionRow
	err = s.db.GetContext(ctx, &sub, q, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return sub.ToModel(), nil
}

func (s *storageImpl) ListSubscriptions(ctx context.Context, criteria subs.ListCriteria) ([]*subs.Subscription, error) {
	query := s.stmpBuilder().
		Select(subscriptionRowFields).
		From(subscriptionsTable)

	if len(criteria.UserIDs) > 0 {
		query = query.Where(sq.Eq{"user_id": criteria.UserIDs})
	}
	if criteria.ExpiredAsOf != nil {
		query = query.Where(sq.LtOrEq{"expiry_date": criteria.ExpiredAsOf.Unix()})
	}
	if criteria.ActiveAsOf != nil {
		query = query.Where(sq.Gt{"expiry_date": criteria.ActiveAsOf.Unix()})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("user_id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []subscriptionRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	subscriptions := make([]*subs.Subscription, 0, len(rows))
	for _, row := range rows {
		subscriptions = append(subscriptions, row.ToModel())
	}

	return subscriptions, nil
}
