package storage

import (
	"reflect"
	"sync"
	"time"

	"paywall-bot/internal/infra/sqlite3"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// storageImpl is the Subscription Store. mu serializes every operation on
// the subscriptions table; it is held only for the database round trip.
type storageImpl struct {
	db   *sqlx.DB
	inTx sqlite3.TxManager
	now  func() time.Time
	mu   sync.Mutex
}

func New(db *sqlx.DB) *storageImpl {
	return NewWithClock(db, func() time.Time { return time.Now().UTC() })
}

func NewWithClock(db *sqlx.DB, now func() time.Time) *storageImpl {
	return &storageImpl{
		db:   db,
		inTx: sqlite3.WithTx(db.DB, nil),
		now:  now,
	}
}

func (s *storageImpl) stmpBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Fields возвращает список всех полей структуры, которые есть в БД.
func fields(data any) string {
	var s string
	r := reflect.TypeOf(data)
	for i := 0; i < r.NumField(); i++ {
		tag := r.Field(i).Tag.Get("db")
		if tag != "" {
			s += tag + ","
		}
	}
	return s[:len(s)-1]
}
