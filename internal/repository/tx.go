// Package repository implements persistence for users, stores and ratings on gorm.
// Repositories read the active transaction from the context, so a service can
// compose several repository calls inside one WithTransaction block.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"store_rating/internal/domain"
)

type contextKey string

const txKey contextKey = "tx"

// Transactor runs functions inside a database transaction.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor.
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithTransaction runs fn with a context carrying the transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Nested
// calls join the outer transaction.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// conn returns the transaction stored in ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// translate maps gorm errors onto the domain taxonomy.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflict(resource + " already exists")
	}
	return err
}
