// Package kvstore - локальное персистентное key-value хранилище поверх SQLite.
// Значения хранятся как JSON-документы.
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound возвращается, если ключа нет.
var ErrNotFound = errors.New("kvstore: key not found")

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store - key-value хранилище.
type Store struct {
	db *sqlx.DB
}

// Open открывает (или создает) базу по пути path. ":memory:" - база в памяти.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	// SQLite пишет из одного соединения; для ":memory:" это еще и одна база.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error { return s.db.Close() }

// Get читает значение key в v.
func (s *Store) Get(ctx context.Context, key string, v any) error {
	return get(ctx, s.db, key, v)
}

// Put сохраняет v под ключом key.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	return put(ctx, s.db, key, v)
}

// Delete удаляет ключ. Отсутствующий ключ не ошибка.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys возвращает ключи с префиксом prefix в лексикографическом порядке.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var err error
	if prefix == "" {
		err = s.db.SelectContext(ctx, &keys, `SELECT key FROM kv ORDER BY key`)
	} else {
		err = s.db.SelectContext(ctx, &keys,
			`SELECT key FROM kv WHERE key >= ? AND key < ? ORDER BY key`, prefix, prefixEnd(prefix))
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys %q: %w", prefix, err)
	}
	return keys, nil
}

// Update выполняет fn в транзакции: все чтения и записи через tx
// применяются атомарно, ошибка fn откатывает их.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: begin: %w", err)
	}
	if err := fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("kvstore: commit: %w", err)
	}
	return nil
}

// Tx - транзакция Update.
type Tx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (t *Tx) Get(key string, v any) error { return get(t.ctx, t.tx, key, v) }
func (t *Tx) Put(key string, v any) error { return put(t.ctx, t.tx, key, v) }

func (t *Tx) Exists(key string) (bool, error) {
	var n int
	if err := t.tx.GetContext(t.ctx, &n, `SELECT COUNT(*) FROM kv WHERE key = ?`, key); err != nil {
		return false, err
	}
	return n > 0, nil
}

type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q queryer, key string, v any) error {
	var raw []byte
	err := q.GetContext(ctx, &raw, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return nil
}

func put(ctx context.Context, q queryer, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, raw, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("kvstore: put %q: %w", key, err)
	}
	return nil
}

// prefixEnd возвращает первую строку, большую всех строк с префиксом.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return strings.Repeat("\xff", len(prefix)+1)
}
