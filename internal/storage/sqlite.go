package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// The artifact is renamed into place as one file, so no WAL sidecars
	if _, err := db.Exec("PRAGMA journal_mode=DELETE"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage opens (creating if needed) an artifact database and
// brings its schema up to date
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// OpenSQLiteStorage opens an existing artifact database for reading.
// It never creates files or migrates the schema.
func OpenSQLiteStorage(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := CheckCompatible(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Meta operations

func (s *SQLiteStorage) writeMetaWithQuerier(ctx context.Context, q querier, meta *Meta) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO cache_meta (id, fingerprint, source, provider, model, dimension, count, created_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			source = excluded.source,
			provider = excluded.provider,
			model = excluded.model,
			dimension = excluded.dimension,
			count = excluded.count,
			created_at = excluded.created_at
	`
	_, err := q.ExecContext(ctx, query,
		meta.Fingerprint, meta.Source, meta.Provider, meta.Model,
		meta.Dimension, meta.Count, meta.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) WriteMeta(ctx context.Context, meta *Meta) error {
	return s.writeMetaWithQuerier(ctx, s.db, meta)
}

func (s *SQLiteStorage) readMetaWithQuerier(ctx context.Context, q querier) (*Meta, error) {
	query := `
		SELECT fingerprint, source, provider, model, dimension, count, created_at
		FROM cache_meta WHERE id = 1
	`
	var meta Meta
	var createdAt string
	err := q.QueryRowContext(ctx, query).Scan(
		&meta.Fingerprint, &meta.Source, &meta.Provider, &meta.Model,
		&meta.Dimension, &meta.Count, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache meta: %w", err)
	}

	meta.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at %q", ErrCorrupt, createdAt)
	}
	return &meta, nil
}

func (s *SQLiteStorage) ReadMeta(ctx context.Context) (*Meta, error) {
	return s.readMetaWithQuerier(ctx, s.db)
}

// Vector operations

func (s *SQLiteStorage) putVectorsWithQuerier(ctx context.Context, q querier, vectors [][]float32) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return fmt.Errorf("failed to clear vectors: %w", err)
	}
	for i, v := range vectors {
		if _, err := q.ExecContext(ctx, "INSERT INTO vectors (position, vector) VALUES (?, ?)", i, serializeVector(v)); err != nil {
			return fmt.Errorf("failed to store vector %d: %w", i, err)
		}
	}
	return nil
}

// PutVectors stores all vectors in a single transaction
func (s *SQLiteStorage) PutVectors(ctx context.Context, vectors [][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.putVectorsWithQuerier(ctx, tx, vectors); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) vectorsWithQuerier(ctx context.Context, q querier) ([][]float32, error) {
	rows, err := q.QueryContext(ctx, "SELECT position, vector FROM vectors ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to read vectors: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	vectors := make([][]float32, 0)
	for rows.Next() {
		var position int
		var blob []byte
		if err := rows.Scan(&position, &blob); err != nil {
			return nil, err
		}
		if position != len(vectors) {
			return nil, fmt.Errorf("%w: vector positions not contiguous at %d", ErrCorrupt, position)
		}
		v, err := deserializeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", position, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

func (s *SQLiteStorage) Vectors(ctx context.Context) ([][]float32, error) {
	return s.vectorsWithQuerier(ctx, s.db)
}

func (s *SQLiteStorage) countVectorsWithQuerier(ctx context.Context, q querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) CountVectors(ctx context.Context) (int, error) {
	return s.countVectorsWithQuerier(ctx, s.db)
}

// Transaction implementations

func (t *sqliteTx) WriteMeta(ctx context.Context, meta *Meta) error {
	return t.storage.writeMetaWithQuerier(ctx, t.tx, meta)
}

func (t *sqliteTx) ReadMeta(ctx context.Context) (*Meta, error) {
	return t.storage.readMetaWithQuerier(ctx, t.tx)
}

func (t *sqliteTx) PutVectors(ctx context.Context, vectors [][]float32) error {
	return t.storage.putVectorsWithQuerier(ctx, t.tx, vectors)
}

func (t *sqliteTx) Vectors(ctx context.Context) ([][]float32, error) {
	return t.storage.vectorsWithQuerier(ctx, t.tx)
}

func (t *sqliteTx) CountVectors(ctx context.Context) (int, error) {
	return t.storage.countVectorsWithQuerier(ctx, t.tx)
}

func (t *sqliteTx) Close() error {
	return fmt.Errorf("cannot close storage from within transaction")
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}
