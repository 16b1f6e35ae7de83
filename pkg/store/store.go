// Package store persists vocabulary entries, rule sets and configuration
// blobs in sqlite. The surface is deliberately small: get/set-by-key blobs
// with an in-process watch subscription, plus typed helpers for entries and
// rule sets. No multi-key transactionality is assumed by callers.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leafbridge/wordvine/pkg/mapping"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS blobs (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	word TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_word ON entries(word);
CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category)
`

// Store wraps the sqlite connection and the watch registry.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	watchers map[string][]func([]byte)
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if path == ":memory:" {
		// A second pooled connection would see a different empty database.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, watchers: make(map[string][]func([]byte))}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	for _, stmt := range strings.Split(migrationsSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Get returns the blob stored under key and whether it exists.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set upserts the blob under key and notifies watchers of that key.
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	s.notify(key, value)
	return nil
}

// Delete removes the blob under key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	return err
}

// Watch registers fn for changes to key and returns a cancel func. The
// callback runs synchronously inside Set, with the new value.
func (s *Store) Watch(key string, fn func(value []byte)) (cancel func()) {
	s.mu.Lock()
	s.watchers[key] = append(s.watchers[key], fn)
	idx := len(s.watchers[key]) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if list, ok := s.watchers[key]; ok && idx < len(list) {
			list[idx] = nil
		}
	}
}

func (s *Store) notify(key string, value []byte) {
	s.mu.Lock()
	list := append(([]func([]byte))(nil), s.watchers[key]...)
	s.mu.Unlock()
	for _, fn := range list {
		if fn != nil {
			fn(value)
		}
	}
}

// SaveEntries upserts the entries in one transaction.
func (s *Store) SaveEntries(entries []*vocab.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %q: %w", e.Text, err)
		}
		_, err = tx.Exec(`INSERT INTO entries (id, word, category, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET word = excluded.word,
				category = excluded.category, payload = excluded.payload`,
			e.ID, e.Text, string(e.Category), string(payload), time.Now())
		if err != nil {
			return fmt.Errorf("persist entry %q: %w", e.Text, err)
		}
	}
	return tx.Commit()
}

// ListEntries returns every stored entry, ordered by insertion.
func (s *Store) ListEntries() ([]*vocab.Entry, error) {
	rows, err := s.db.Query(`SELECT payload FROM entries ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*vocab.Entry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e vocab.Entry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SetCategory reassigns one entry's category, the only mutation a stored
// entry supports.
func (s *Store) SetCategory(id string, cat vocab.Category) error {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM entries WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return fmt.Errorf("entry %q not found", id)
	}
	if err != nil {
		return err
	}
	var e vocab.Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return fmt.Errorf("decode entry %q: %w", id, err)
	}
	e.Category = cat
	updated, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE entries SET category = ?, payload = ? WHERE id = ?`,
		string(cat), string(updated), id)
	return err
}

const ruleSetKeyPrefix = "ruleset:"

// SaveRuleSet persists the rule set under its source URL template.
func (s *Store) SaveRuleSet(rs *mapping.RuleSet) error {
	raw, err := json.Marshal(rs)
	if err != nil {
		return err
	}
	return s.Set(ruleSetKeyPrefix+rs.SourceURLTemplate, raw)
}

// LoadRuleSet loads the rule set for a source URL template; ok is false
// when none was saved.
func (s *Store) LoadRuleSet(template string) (*mapping.RuleSet, bool, error) {
	raw, ok, err := s.Get(ruleSetKeyPrefix + template)
	if err != nil || !ok {
		return nil, false, err
	}
	var rs mapping.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, false, fmt.Errorf("decode rule set: %w", err)
	}
	return &rs, true, nil
}
