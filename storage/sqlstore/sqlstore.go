// Package sqlstore persists the session record in a SQL table through bun.
// Open targets SQLite; New accepts any bun.DB.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RecordModel is the Bun model for a persisted record entry.
type RecordModel struct {
	bun.BaseModel `bun:"table:auth_records"`

	Name      string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Store implements the session storage using Bun.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

// New creates a store on top of an existing connection. The schema is not
// created, call CreateSchema or run your own migration.
func New(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens a SQLite database at dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	s := New(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := s.CreateSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchema creates the records table if missing
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*RecordModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create auth_records: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var model RecordModel
	err := s.db.NewSelect().
		Model(&model).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select record %q: %w", key, err)
	}
	return model.Value, true, nil
}

// Set upserts value under key
func (s *Store) Set(ctx context.Context, key, value string) error {
	model := &RecordModel{
		Name:      key,
		Value:     value,
		UpdatedAt: s.now(),
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert record %q: %w", key, err)
	}
	return nil
}

// Delete removes key, missing keys are ignored
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*RecordModel)(nil)).
		Where("name = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
