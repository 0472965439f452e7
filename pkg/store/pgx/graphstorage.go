package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn is the subset of pgx connection behavior the storage layer needs.
// Both *pgx.Conn and *pgxpool.Pool satisfy it.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on PostgreSQL with
// pgvector for vector similarity search.
type GraphDBStorage struct {
	conn Conn
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage using an
// existing database connection or pool. The connection must have pgvector
// types registered.
func NewGraphDBStorageWithConnection(conn Conn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}
