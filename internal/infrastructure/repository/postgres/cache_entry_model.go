package postgres

import "time"

const scoreCacheTable = "score_cache_entries"

type cacheEntryTableModel struct {
	CacheKey  string    `db:"cache_key"`
	Payload   []byte    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type cacheEntryUpsertModel struct {
	CacheKey  string    `db:"cache_key"`
	Payload   []byte    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
}
