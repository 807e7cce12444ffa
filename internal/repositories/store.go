package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/project-tracker/backend/internal/apperrors"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db       DBTX
	Users    *UserRepo
	Projects *ProjectRepo
	Notes    *NoteRepo
	Shares   *ShareRepo
	Activity *ActivityRepo
}

func NewStore(db DBTX) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepo(db),
		Projects: NewProjectRepo(db),
		Notes:    NewNoteRepo(db),
		Shares:   NewShareRepo(db),
		Activity: NewActivityRepo(db),
	}
}

// WithinTx runs fn against a transaction-bound Store. Nested calls become
// savepoints.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return apperrors.Store(err)
}

func requireAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
