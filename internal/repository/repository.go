package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bankcards/card-service/internal/models"
	"github.com/bankcards/card-service/internal/service"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db *sql.DB
	q  querier
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// InTx runs fn against a repository bound to one database transaction.
// Nested calls reuse the already-open transaction.
func (r *Repository) InTx(ctx context.Context, fn func(service.Store) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&Repository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// orderClause builds an ORDER BY fragment from a normalized page request,
// resolving the sort alias against a whitelist so request input never
// reaches the SQL text.
func orderClause(page models.PageRequest, columns map[string]string, defaultColumn string) string {
	column, ok := columns[page.Sort]
	if !ok {
		column = defaultColumn
	}
	direction := "ASC"
	if page.Direction == "desc" {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}
