package subs

import "time"

// Subscription is the single access record of a chat user.
// There is at most one per UserID; a new grant replaces the previous one.
type Subscription struct {
	UserID    int64
	ExpiresAt time.Time
}

// IsExpired reports whether access has lapsed at the given moment.
// A subscription expiring exactly at asOf counts as expired.
func (s *Subscription) IsExpired(asOf time.Time) bool {
	return !s.ExpiresAt.After(asOf)
}

// Критерии для получения подписки
type GetCriteria struct {
	UserIDs []int64
}

// Критерии для списка подписок
type ListCriteria struct {
	UserIDs     []int64
	ExpiredAsOf *time.Time
	ActiveAsOf  *time.Time
	Limit       int
	Offset      int
}
