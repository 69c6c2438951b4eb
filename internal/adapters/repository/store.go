// Package repository persists catalog records.
package repository

import "context"

// Store provides create/find/delete access to one resource kind.
type Store[T any] interface {
	// List returns every record projected to its public list columns.
	// An empty table yields an empty, non-nil slice.
	List(ctx context.Context) ([]T, error)

	// FindByName returns all records whose name equals name exactly.
	FindByName(ctx context.Context, name string) ([]T, error)

	// Create persists record. The store assigns the id and creation time and
	// returns the stored record.
	Create(ctx context.Context, record T) (T, error)

	// Delete removes the record with the given id and returns the number of
	// rows affected. Unknown or malformed ids affect zero rows.
	Delete(ctx context.Context, id string) (int64, error)

	// Ping checks backend connectivity for readiness probes.
	Ping(ctx context.Context) error
}
