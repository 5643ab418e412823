package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache keys, one value per user namespace.
const (
	CacheKeyEntries         = "entries"
	CacheKeyProfile         = "profile"
	CacheKeyRecommendations = "recommendations"
)

// Cache is the local key-value fallback store. Values are JSON documents
// namespaced by user id, so one user's cache never leaks into another's.
type Cache struct {
	db *sql.DB
}

func NewCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	_, err = db.Exec(`
    CREATE TABLE IF NOT EXISTS local_cache (
        namespace TEXT NOT NULL,
        key TEXT NOT NULL,
        value TEXT NOT NULL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (namespace, key)
    );
    `)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get decodes the cached value into dst. It reports false when nothing is
// cached under the key.
func (c *Cache) Get(userID, key string, dst any) (bool, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM local_cache WHERE namespace = ? AND key = ?", userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read cache %s/%s: %w", userID, key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("failed to decode cache %s/%s: %w", userID, key, err)
	}
	return true, nil
}

func (c *Cache) Put(userID, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache %s/%s: %w", userID, key, err)
	}
	_, err = c.db.Exec(`
    INSERT INTO local_cache (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
    ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `, userID, key, string(b), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache %s/%s: %w", userID, key, err)
	}
	return nil
}

func (c *Cache) Delete(userID, key string) error {
	if _, err := c.db.Exec("DELETE FROM local_cache WHERE namespace = ? AND key = ?", userID, key); err != nil {
		return fmt.Errorf("failed to delete cache %s/%s: %w", userID, key, err)
	}
	return nil
}
