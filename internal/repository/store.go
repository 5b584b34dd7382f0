package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories that share one database handle.
type Store struct {
	db            *sql.DB
	Organizations *OrganizationRepository
	Users         *UserRepository
	Clients       *ClientRepository
	Couriers      *CourierRepository
	Tasks         *TaskRepository
	TaskEvents    *TaskEventRepository
	TaskPhotos    *TaskPhotoRepository
}

func NewStore(db *sql.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q DBTX) *Store {
	return &Store{
		Organizations: NewOrganizationRepository(q),
		Users:         NewUserRepository(q),
		Clients:       NewClientRepository(q),
		Couriers:      NewCourierRepository(q),
		Tasks:         NewTaskRepository(q),
		TaskEvents:    NewTaskEventRepository(q),
		TaskPhotos:    NewTaskPhotoRepository(q),
	}
}

// WithTx runs fn against repositories bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(newStore(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// expectRow reports sql.ErrNoRows when a write touched nothing.
func expectRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}
