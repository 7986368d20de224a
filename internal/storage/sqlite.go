package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores record bytes and metadata documents in a SQLite
// database. Metadata upserts run in immediate transactions, which gives
// the per-key atomic upsert the metadata contract requires.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// sqliteDSN builds the connection string. Pragmas ride on the DSN so every
// pooled connection gets them, not just the one that would run a PRAGMA
// statement; _txlock=immediate makes write transactions take the write
// lock up front instead of failing with SQLITE_BUSY on upgrade.
func sqliteDSN(path string) string {
	return path + "?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
}

// NewSQLiteBackend opens or creates the database and applies migrations.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite backend path must be set")
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	backend := &SQLiteBackend{db: db, path: path}
	if err := backend.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key Key, data []byte) error {
	_, err := b.db.ExecContext(
		ctx,
		`INSERT INTO record_blobs (experiment, name, member, data, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (experiment, name, member) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key.Experiment,
		key.Name,
		key.Member,
		data,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put record %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key Key) ([]byte, error) {
	row := b.db.QueryRowContext(
		ctx,
		`SELECT data FROM record_blobs WHERE experiment = ? AND name = ? AND member = ?`,
		key.Experiment, key.Name, key.Member,
	)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: record %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}
	return data, nil
}

func (b *SQLiteBackend) URL(ctx context.Context, key Key) (string, error) {
	row := b.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM record_blobs WHERE experiment = ? AND name = ? AND member = ?`,
		key.Experiment, key.Name, key.Member,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return "", fmt.Errorf("resolve record %s: %w", key, err)
	}
	if count == 0 {
		return "", fmt.Errorf("%w: record %s", ErrNotFound, key)
	}
	return fmt.Sprintf("sqlite://%s#%s", b.path, key.objectPath()), nil
}

func (b *SQLiteBackend) PutMetadata(ctx context.Context, key MetaKey, meta Metadata) error {
	return b.UpdateMetadata(ctx, key, func(Metadata) Metadata { return meta })
}

func (b *SQLiteBackend) GetMetadata(ctx context.Context, key MetaKey) (Metadata, error) {
	row := b.db.QueryRowContext(
		ctx,
		`SELECT doc FROM record_meta WHERE experiment = ? AND name = ?`,
		key.Experiment, key.Name,
	)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Metadata{}, fmt.Errorf("%w: metadata %s", ErrNotFound, key)
		}
		return Metadata{}, fmt.Errorf("get metadata %s: %w", key, err)
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(doc), &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return meta, nil
}

func (b *SQLiteBackend) UpdateMetadata(ctx context.Context, key MetaKey, update func(Metadata) Metadata) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metadata tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current Metadata
	row := tx.QueryRowContext(
		ctx,
		`SELECT doc FROM record_meta WHERE experiment = ? AND name = ?`,
		key.Experiment, key.Name,
	)
	var doc string
	switch err := row.Scan(&doc); {
	case err == nil:
		if err := json.Unmarshal([]byte(doc), &current); err != nil {
			return fmt.Errorf("decode metadata %s: %w", key, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// First write for this key.
	default:
		return fmt.Errorf("read metadata %s: %w", key, err)
	}

	next, err := json.Marshal(update(current))
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", key, err)
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO record_meta (experiment, name, doc, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (experiment, name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		key.Experiment,
		key.Name,
		string(next),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert metadata %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit metadata %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) ListMeta(ctx context.Context, experiment string) ([]MetaKey, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if experiment == "" {
		rows, err = b.db.QueryContext(ctx, `SELECT experiment, name FROM record_meta ORDER BY experiment, name`)
	} else {
		rows, err = b.db.QueryContext(ctx, `SELECT experiment, name FROM record_meta WHERE experiment = ? ORDER BY name`, experiment)
	}
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var keys []MetaKey
	for rows.Next() {
		var key MetaKey
		if err := rows.Scan(&key.Experiment, &key.Name); err != nil {
			return nil, fmt.Errorf("scan metadata key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (b *SQLiteBackend) Delete(ctx context.Context, experiment string) error {
	if strings.TrimSpace(experiment) == "" {
		return errors.New("delete requires an experiment prefix")
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_blobs WHERE experiment = ?`, experiment); err != nil {
		return fmt.Errorf("delete record blobs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_meta WHERE experiment = ?`, experiment); err != nil {
		return fmt.Errorf("delete record metadata: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
