// Package orm is a thin chainable layer over gorm used by the repositories
// for filtered, paginated and cached reads.
package orm

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"gorm.io/gorm"
)

// Meta describes one page of a paginated list.
type Meta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
}

// Query wraps a gorm statement. Ordering is held back until rows are
// loaded so that Paginate's count stays valid on every dialect.
type Query struct {
	db    *gorm.DB
	order []interface{}
}

// New starts a query on db bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v), order: q.order}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...), order: q.order}
}

// WhereIf applies the condition only when cond is true.
func (q *Query) WhereIf(cond bool, query interface{}, args ...interface{}) *Query {
	if !cond {
		return q
	}
	return q.Where(query, args...)
}

func (q *Query) Preload(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(query, args...), order: q.order}
}

func (q *Query) Order(value interface{}) *Query {
	order := append(append([]interface{}(nil), q.order...), value)
	return &Query{db: q.db, order: order}
}

// ordered returns the statement with the held-back ordering applied.
func (q *Query) ordered(db *gorm.DB) *gorm.DB {
	for _, o := range q.order {
		db = db.Order(o)
	}
	return db
}

func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n), order: q.order}
}

// DB exposes the underlying statement for clauses the wrapper lacks.
func (q *Query) DB() *gorm.DB { return q.ordered(q.db) }

func (q *Query) Get(dest interface{}) error {
	return q.ordered(q.db).Find(dest).Error
}

// First loads one row; found is false (with a nil error) when nothing matched.
func (q *Query) First(dest interface{}) (found bool, err error) {
	err = q.ordered(q.db).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Paginate counts the matching rows, then loads page (1-based) of perPage
// rows into dest with preloads applied. Model must be set for the count.
func (q *Query) Paginate(page, perPage int, dest interface{}, preloads ...string) (Meta, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	meta := Meta{Page: page, PerPage: perPage}

	if err := q.db.Session(&gorm.Session{}).Count(&meta.Total).Error; err != nil {
		return meta, err
	}
	find := q.ordered(q.db.Session(&gorm.Session{}))
	for _, p := range preloads {
		find = find.Preload(p)
	}
	err := find.Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error
	return meta, err
}

// Cache serves dest from store when present, otherwise loads and caches it.
func (q *Query) Cache(ctx context.Context, store *cache.Store, key string, ttl time.Duration, dest interface{}) error {
	return store.Remember(ctx, key, ttl, dest, func() error {
		return q.ordered(q.db).Find(dest).Error
	})
}
