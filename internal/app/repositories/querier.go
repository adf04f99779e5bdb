package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repository
// methods can run standalone or inside a caller-managed transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertOutcome is the tagged result of an insert-if-absent operation.
// A unique-constraint hit on concurrent creation is a normal return value,
// not an error.
type InsertOutcome int

const (
	InsertOutcomeCreated InsertOutcome = iota
	InsertOutcomeAlreadyExists
)
