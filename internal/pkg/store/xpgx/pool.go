package xpgx

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier runs squirrel queries. Rows are collected with Select, Get and
// GetScalar.
type Querier interface {
	Execx(ctx context.Context, query squirrel.Sqlizer) (pgconn.CommandTag, error)
	Queryx(ctx context.Context, query squirrel.Sqlizer) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type Pool interface {
	Querier
	// InTx runs fn in a transaction that is committed when fn returns nil.
	InTx(ctx context.Context, fn func(q Querier) error) error
	Close()
}

type conn interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type querier struct {
	conn conn
}

type pool struct {
	querier
	pgxPool *pgxpool.Pool
}

func NewPool(ctx context.Context, dsn string) (Pool, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("pgxpool.Ping: %w", err)
	}

	return &pool{querier: querier{conn: p}, pgxPool: p}, nil
}

func (p *pool) InTx(ctx context.Context, fn func(q Querier) error) error {
	return pgx.BeginFunc(ctx, p.pgxPool, func(tx pgx.Tx) error {
		return fn(&querier{conn: tx})
	})
}

func (p *pool) Close() {
	p.pgxPool.Close()
}

func (q *querier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return q.conn.Exec(ctx, sql, args...)
}

func (q *querier) Execx(ctx context.Context, query squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("ToSql: %w", err)
	}
	return q.conn.Exec(ctx, sql, args...)
}

func (q *querier) Queryx(ctx context.Context, query squirrel.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ToSql: %w", err)
	}
	return q.conn.Query(ctx, sql, args...)
}

// Select collects every row into a T by matching columns to db tags.
func Select[T any](ctx context.Context, q Querier, query squirrel.Sqlizer) ([]T, error) {
	rows, err := q.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// Get collects exactly one row and returns pgx.ErrNoRows when there is none.
func Get[T any](ctx context.Context, q Querier, query squirrel.Sqlizer) (T, error) {
	rows, err := q.Queryx(ctx, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}

// GetScalar is Get for single column results like RETURNING id.
func GetScalar[T any](ctx context.Context, q Querier, query squirrel.Sqlizer) (T, error) {
	rows, err := q.Queryx(ctx, query)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowTo[T])
}
