package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/okian/catalog/pkg/metrics"
)

// pqUniqueViolation is the SQLSTATE PostgreSQL reports for unique_violation.
const pqUniqueViolation = "23505"

// OpenPostgres opens a connection pool capped at poolSize open connections
// and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string, poolSize int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// PostgresStore implements Store for one table using PostgreSQL.
type PostgresStore[T any] struct {
	db    *sql.DB
	sb    sq.StatementBuilderType
	table Table[T]
}

// NewPostgresStore creates a store for table on db. The pool limits of db
// bound how many store calls run at once.
func NewPostgresStore[T any](db *sql.DB, table Table[T]) *PostgresStore[T] {
	return &PostgresStore[T]{
		db:    db,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		table: table,
	}
}

// Ping checks database connectivity.
func (s *PostgresStore[T]) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns all rows projected to the list columns.
func (s *PostgresStore[T]) List(ctx context.Context) (out []T, err error) {
	defer s.observe("list", time.Now(), &err)

	query := s.sb.
		Select(s.table.Projection...).
		From(s.table.Name).
		OrderBy("created_at ASC", "id ASC")

	return s.query(ctx, query, s.table.Projection, "listing")
}

// FindByName returns the rows whose name equals name.
func (s *PostgresStore[T]) FindByName(ctx context.Context, name string) (out []T, err error) {
	defer s.observe("find_by_name", time.Now(), &err)

	query := s.sb.
		Select(s.table.Columns...).
		From(s.table.Name).
		Where(sq.Eq{"name": name})

	return s.query(ctx, query, s.table.Columns, "finding by name in")
}

// Create inserts record and returns the stored row.
func (s *PostgresStore[T]) Create(ctx context.Context, record T) (out T, err error) {
	defer s.observe("create", time.Now(), &err)

	query := s.sb.
		Insert(s.table.Name).
		Columns(s.table.InsertColumns...).
		Values(s.table.Values(record)...).
		Suffix("RETURNING " + strings.Join(s.table.Columns, ", "))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return out, fmt.Errorf("building %s insert query: %w", s.table.Kind, err)
	}

	dest, err := s.table.dest(&out, s.table.Columns)
	if err != nil {
		return out, err
	}
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(dest...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return out, fmt.Errorf("inserting %s %q: %w: %w", s.table.Kind, s.table.NameOf(record), ErrUniqueViolation, err)
		}
		return out, fmt.Errorf("inserting %s: %w", s.table.Kind, err)
	}
	return out, nil
}

// Delete removes the row with id. Ids that are not UUIDs cannot match the
// id column and affect zero rows without a round trip.
func (s *PostgresStore[T]) Delete(ctx context.Context, id string) (affected int64, err error) {
	defer s.observe("delete", time.Now(), &err)

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return 0, nil
	}

	sqlStr, args, err := s.sb.
		Delete(s.table.Name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building %s delete query: %w", s.table.Kind, err)
	}

	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting %s %q: %w", s.table.Kind, id, err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading %s delete result: %w", s.table.Kind, err)
	}
	return affected, nil
}

func (s *PostgresStore[T]) query(ctx context.Context, query sq.SelectBuilder, columns []string, verb string) ([]T, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", s.table.Kind, err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, s.table.Kind, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var item T
		dest, err := s.table.dest(&item, columns)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.table.Kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", s.table.Kind, err)
	}
	return items, nil
}

func (s *PostgresStore[T]) observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(s.table.Kind.String(), op, float64(time.Since(start).Microseconds())/1000, *err)
}
