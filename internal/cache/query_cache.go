package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Queries is the process-wide query cache, installed by main.
var Queries *QueryCache

// QueryCache caches read results for a fixed set of tables in Redis and
// drops every cached entry of a table after any write to it.
type QueryCache struct {
	store   *Store
	tables  map[string]bool
	links   map[string][]string
	ttl     time.Duration
	enabled bool
}

func NewQueryCache(store *Store, ttl time.Duration, enabled bool, tables ...string) *QueryCache {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return &QueryCache{
		store:   store,
		tables:  set,
		links:   map[string][]string{},
		ttl:     ttl,
		enabled: enabled && store != nil,
	}
}

// Link makes writes to table also drop the cached entries of dependents,
// for results that join table in.
func (q *QueryCache) Link(table string, dependents ...string) *QueryCache {
	q.links[table] = append(q.links[table], dependents...)
	return q
}

func (q *QueryCache) Name() string {
	return "nitpickr:query_cache"
}

// Initialize registers the write-side invalidation callbacks.
func (q *QueryCache) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().After("gorm:create").Register("query_cache:after_create", q.invalidate); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("query_cache:after_update", q.invalidate); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("query_cache:after_delete", q.invalidate)
}

func tableKey(table, suffix string) string {
	return fmt.Sprintf("db:%s:%s", table, suffix)
}

func (q *QueryCache) invalidate(db *gorm.DB) {
	if q == nil || !q.enabled || db.Error != nil || db.Statement == nil {
		return
	}
	table := db.Statement.Table
	targets := q.links[table]
	if q.tables[table] {
		targets = append([]string{table}, targets...)
	}
	if len(targets) == 0 {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	for _, t := range targets {
		if _, err := q.store.DelPattern(ctx, tableKey(t, "*")); err != nil {
			log.Warn("Cache invalidation failed", "table", t, "error", err)
		}
	}
}

// Remember fills dest from the cache entry table/suffix, or runs load and
// caches what it produced. Any Redis failure falls through to load.
// dest round-trips through JSON, so fields tagged `json:"-"` do not survive
// a cache hit; callers that need them must query the database directly.
func (q *QueryCache) Remember(ctx context.Context, table, suffix string, dest interface{}, load func() error) error {
	if q == nil || !q.enabled || !q.tables[table] {
		return load()
	}

	key := tableKey(table, suffix)
	err := q.store.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Warn("Cache read error", "key", key, "error", err)
	}

	if err := load(); err != nil {
		return err
	}
	if err := q.store.Set(ctx, key, dest, q.ttl); err != nil {
		log.Warn("Cache write error", "key", key, "error", err)
	}
	return nil
}
