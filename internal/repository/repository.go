package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/taskforce/taskmanager/internal/db"
)

// Repositories bundles every repository bound to one database handle,
// either the pool or a single transaction.
type Repositories struct {
	Users  UserRepository
	Tokens TokenRepository
	Tasks  TaskRepository
}

func New(conn sqlx.ExtContext) *Repositories {
	return &Repositories{
		Users:  NewUserRepository(conn),
		Tokens: NewTokenRepository(conn),
		Tasks:  NewTaskRepository(conn),
	}
}

// Transactor runs fn with repositories that share one transaction.
// The transaction commits only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type sqlTransactor struct {
	database *sqlx.DB
}

func NewTransactor(database *sqlx.DB) Transactor {
	return &sqlTransactor{database: database}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return db.WithTx(ctx, t.database, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, New(tx))
	})
}
