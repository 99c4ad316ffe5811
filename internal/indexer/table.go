package indexer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA auto_vacuum=INCREMENTAL",
}

const schema = `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_key ON items(key);
	CREATE INDEX IF NOT EXISTS idx_items_path ON items(file_path);
`

// Table persists msgpack-encoded items in SQLite. Every item belongs to the
// file it was derived from, so a changed file replaces exactly its items.
type Table[T any] struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// OpenTable opens or creates the table database at dbPath
func OpenTable[T any](dbPath string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	// _txlock=immediate takes the write lock on BEGIN and avoids SQLITE_BUSY
	// on upgrade
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return &Table[T]{db: db, dbPath: dbPath}, nil
}

// Replace swaps the items of every given file for the new ones in a single
// transaction. A file mapped to no items is cleared.
func (t *Table[T]) Replace(files map[string]map[string][]T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.inTx(func(tx *sql.Tx) error {
		insert, err := tx.Prepare("INSERT INTO items (file_path, key, value) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = insert.Close() }()

		for path, keyed := range files {
			if _, err := tx.Exec("DELETE FROM items WHERE file_path = ?", path); err != nil {
				return fmt.Errorf("failed to delete items of %s: %w", path, err)
			}
			for key, items := range keyed {
				for _, item := range items {
					data, err := msgpack.Marshal(item)
					if err != nil {
						return fmt.Errorf("failed to marshal item: %w", err)
					}
					if _, err := insert.Exec(path, key, data); err != nil {
						return fmt.Errorf("failed to save item: %w", err)
					}
				}
			}
		}
		return nil
	})
}

// Put adds a single item
func (t *Table[T]) Put(path, key string, item T) error {
	return t.Append(map[string]map[string][]T{path: {key: {item}}})
}

// Append adds items without touching what files already hold
func (t *Table[T]) Append(files map[string]map[string][]T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.inTx(func(tx *sql.Tx) error {
		for path, keyed := range files {
			for key, items := range keyed {
				for _, item := range items {
					data, err := msgpack.Marshal(item)
					if err != nil {
						return fmt.Errorf("failed to marshal item: %w", err)
					}
					if _, err := tx.Exec("INSERT INTO items (file_path, key, value) VALUES (?, ?, ?)", path, key, data); err != nil {
						return fmt.Errorf("failed to save item: %w", err)
					}
				}
			}
		}
		return nil
	})
}

// Values returns the items stored under key, oldest first
func (t *Table[T]) Values(key string) ([]T, error) {
	return t.query("SELECT value FROM items WHERE key = ? ORDER BY id", key)
}

// All returns every item, oldest first
func (t *Table[T]) All() ([]T, error) {
	return t.query("SELECT value FROM items ORDER BY id")
}

// ValuesByPath returns the items derived from a file
func (t *Table[T]) ValuesByPath(path string) ([]T, error) {
	return t.query("SELECT value FROM items WHERE file_path = ? ORDER BY id", path)
}

// Keys returns the distinct keys, sorted
func (t *Table[T]) Keys() ([]string, error) {
	return t.strings("SELECT DISTINCT key FROM items ORDER BY key")
}

// KeysByPath returns the distinct keys a file contributes, sorted
func (t *Table[T]) KeysByPath(path string) ([]string, error) {
	return t.strings("SELECT DISTINCT key FROM items WHERE file_path = ? ORDER BY key", path)
}

// Paths returns the files holding items, sorted
func (t *Table[T]) Paths() ([]string, error) {
	return t.strings("SELECT DISTINCT file_path FROM items ORDER BY file_path")
}

// DeleteFiles drops the items of the given files
func (t *Table[T]) DeleteFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.inTx(func(tx *sql.Tx) error {
		for _, path := range paths {
			if _, err := tx.Exec("DELETE FROM items WHERE file_path = ?", path); err != nil {
				return fmt.Errorf("failed to delete items of %s: %w", path, err)
			}
		}
		return nil
	})
}

// Clear drops every item
func (t *Table[T]) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.db.Exec("DELETE FROM items"); err != nil {
		return err
	}
	_, err := t.db.Exec("PRAGMA incremental_vacuum")
	return err
}

// Close checkpoints the write-ahead log and closes the database
func (t *Table[T]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = t.db.Exec("PRAGMA optimize")
	_, _ = t.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return t.db.Close()
}

func (t *Table[T]) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *Table[T]) query(q string, args ...any) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows, err := t.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(data) == 0 {
			continue
		}
		var item T
		if err := msgpack.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *Table[T]) strings(q string, args ...any) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows, err := t.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
