// Package search keeps a full-text index of tasks, messages and documents.
//
// The index lives in its own SQLite database because the state repository
// replaces every row on save, which would rebuild the FTS5 index on every
// write. The index is instead updated incrementally by checksum.
package search

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Kind labels what an indexed entry refers to.
type Kind string

const (
	KindTask     Kind = "task"
	KindMessage  Kind = "message"
	KindDocument Kind = "document"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindTask || k == KindMessage || k == KindDocument
}

// Entry is one indexed record.
type Entry struct {
	Kind    Kind
	RefID   string // task, message or document id
	TaskID  string // owning task, if any
	Title   string
	Content string
}

// Key is the stable index key, e.g. "task:abc".
func (e Entry) Key() string {
	return string(e.Kind) + ":" + e.RefID
}

// Result is one search hit.
type Result struct {
	Kind    Kind    `json:"kind"`
	RefID   string  `json:"ref_id"`
	TaskID  string  `json:"task_id,omitempty"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries USING fts5(
	key UNINDEXED,
	kind UNINDEXED,
	ref_id UNINDEXED,
	task_id UNINDEXED,
	title,
	content,
	tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS entry_meta (
	key TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	indexed_at TEXT NOT NULL
);
`

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("search: store closed")

// Store wraps the FTS5 database.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (or creates) the index database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create search db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open search db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init search schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Index inserts or replaces e.
func (s *Store) Index(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	key := e.Key()
	if _, err := tx.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete old entry: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO entries (key, kind, ref_id, task_id, title, content) VALUES (?, ?, ?, ?, ?, ?)`,
		key, string(e.Kind), e.RefID, e.TaskID, e.Title, e.Content,
	); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO entry_meta (key, checksum, indexed_at) VALUES (?, ?, ?)`,
		key, checksum(e), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("upsert entry_meta: %w", err)
	}
	return tx.Commit()
}

// IndexIfChanged indexes e only when its title, content or task changed.
// Reports whether it was (re)indexed.
func (s *Store) IndexIfChanged(e Entry) (bool, error) {
	sum := checksum(e)

	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return false, ErrClosed
	}
	var existing string
	err := s.db.QueryRow(`SELECT checksum FROM entry_meta WHERE key = ?`, e.Key()).Scan(&existing)
	s.mu.RUnlock()

	if err == nil && existing == sum {
		return false, nil
	}
	if err := s.Index(e); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the entry with key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete from fts: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entry_meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete from meta: %w", err)
	}
	return tx.Commit()
}

// Keys returns every indexed key.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(`SELECT key FROM entry_meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Query runs a full-text search. kind narrows to one Kind when non-empty.
// Returns up to limit results (default 10), best match first.
func (s *Store) Query(query string, kind Kind, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	ftsQuery := sanitizeQuery(query)
	if ftsQuery == "" {
		return []Result{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	const base = `
		SELECT kind, ref_id, task_id, title, snippet(entries, 5, '>>>', '<<<', '...', 24), rank
		FROM entries
		WHERE entries MATCH ?`
	var (
		rows *sql.Rows
		err  error
	)
	if kind != "" {
		rows, err = s.db.Query(base+` AND kind = ? ORDER BY rank LIMIT ?`, ftsQuery, string(kind), limit)
	} else {
		rows, err = s.db.Query(base+` ORDER BY rank LIMIT ?`, ftsQuery, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		var k string
		if err := rows.Scan(&k, &r.RefID, &r.TaskID, &r.Title, &r.Snippet, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Kind = Kind(k)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// sanitizeQuery turns free text into a safe FTS5 query: tokens joined with implicit AND.
func sanitizeQuery(q string) string {
	replacer := strings.NewReplacer(
		"\"", " ",
		"'", " ",
		"(", " ",
		")", " ",
		"*", " ",
		":", " ",
		"^", " ",
		"{", " ",
		"}", " ",
		"@", " ",
		"-", " ",
	)
	var tokens []string
	for _, w := range strings.Fields(replacer.Replace(q)) {
		switch w {
		case "AND", "OR", "NOT", "NEAR":
			continue
		}
		tokens = append(tokens, w)
	}
	return strings.Join(tokens, " ")
}

func checksum(e Entry) string {
	h := sha256.New()
	for _, part := range []string{e.TaskID, e.Title, e.Content} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
