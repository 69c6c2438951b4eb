// Package service orchestrates catalog operations: it validates input,
// checks for duplicate names and calls the resource store.
package service

import (
	"context"
	"fmt"

	"github.com/okian/catalog/internal/adapters/repository"
	"github.com/okian/catalog/internal/domain/model"
	"github.com/okian/catalog/internal/domain/validate"
	"github.com/okian/catalog/pkg/logger"
	"github.com/okian/catalog/pkg/metrics"
)

// Builder turns a validated payload into a record ready to persist.
type Builder[T any] func(validate.Result) T

// Resource implements List, Create and Delete for one resource kind.
type Resource[T any] struct {
	kind   model.Kind
	schema validate.Schema
	build  Builder[T]
	store  repository.Store[T]
	nameOf func(T) string
	logger logger.Logger
}

// Option applies a configuration option to a Resource.
type Option[T any] func(*Resource[T])

// WithLogger sets a custom logger for the resource.
func WithLogger[T any](l logger.Logger) Option[T] {
	return func(r *Resource[T]) {
		if l != nil {
			r.logger = l
		}
	}
}

// New constructs a Resource. nameOf extracts the unique name of a built
// record for the duplicate check.
func New[T any](kind model.Kind, schema validate.Schema, build Builder[T], nameOf func(T) string, store repository.Store[T], opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		kind:   kind,
		schema: schema,
		build:  build,
		store:  store,
		nameOf: nameOf,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	r.logger = r.logger.Named(kind.String())
	return r
}

// Kind returns the resource kind served.
func (r *Resource[T]) Kind() model.Kind { return r.kind }

// Ping reports whether the underlying store is reachable.
func (r *Resource[T]) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// List returns every record projected to its public fields. Zero records
// yield an empty slice.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	items, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.kind, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Create validates payload, rejects names already in use and persists the
// new record. The returned record carries the store-assigned id and
// creation time.
func (r *Resource[T]) Create(ctx context.Context, payload validate.Payload) (T, error) {
	var zero T

	res := r.schema.Validate(payload)
	if !res.Valid() {
		for _, f := range res.Errors() {
			metrics.RecordValidationRejected(r.kind.String(), f.Field)
		}
		return zero, fmt.Errorf("%w: %w", ErrValidation, res.Err())
	}

	record := r.build(res)
	name := r.nameOf(record)

	existing, err := r.store.FindByName(ctx, name)
	if err != nil {
		return zero, fmt.Errorf("checking %s name: %w", r.kind, err)
	}
	if len(existing) > 0 {
		metrics.RecordDuplicateRejected(r.kind.String())
		r.logger.Debug(ctx, "duplicate name rejected", logger.String("name", name))
		return zero, fmt.Errorf("%s %q: %w", r.kind, name, ErrDuplicate)
	}

	created, err := r.store.Create(ctx, record)
	if err != nil {
		return zero, fmt.Errorf("creating %s: %w", r.kind, err)
	}
	metrics.RecordResourceCreated(r.kind.String())
	r.logger.Info(ctx, "created", logger.String("name", name))
	return created, nil
}

// Delete removes the record with id. A blank id and an id matching no
// record both yield ErrInvalidID.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if validate.IsInvalidNonEmptyString(id) {
		return ErrInvalidID
	}

	affected, err := r.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", r.kind, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %q: %w", r.kind, id, ErrInvalidID)
	}
	metrics.RecordResourceDeleted(r.kind.String())
	r.logger.Info(ctx, "deleted", logger.String("id", id))
	return nil
}

// CreditPackageSchema lists the required fields of a credit package.
var CreditPackageSchema = validate.Schema{
	{Field: "name", Kind: validate.NonEmptyString},
	{Field: "credit_amount", Kind: validate.NonNegativeInteger},
	{Field: "price", Kind: validate.NonNegativeInteger},
}

// SkillSchema lists the required fields of a skill.
var SkillSchema = validate.Schema{
	{Field: "name", Kind: validate.NonEmptyString},
}

// NewCreditPackages returns the credit package resource backed by store.
func NewCreditPackages(store repository.Store[model.CreditPackage], opts ...Option[model.CreditPackage]) *Resource[model.CreditPackage] {
	return New(model.KindCreditPackage, CreditPackageSchema,
		func(res validate.Result) model.CreditPackage {
			return model.CreditPackage{
				Name:         res.String("name"),
				CreditAmount: res.Int64("credit_amount"),
				Price:        res.Int64("price"),
			}
		},
		func(p model.CreditPackage) string { return p.Name },
		store, opts...)
}

// NewSkills returns the skill resource backed by store.
func NewSkills(store repository.Store[model.Skill], opts ...Option[model.Skill]) *Resource[model.Skill] {
	return New(model.KindSkill, SkillSchema,
		func(res validate.Result) model.Skill {
			return model.Skill{Name: res.String("name")}
		},
		func(s model.Skill) string { return s.Name },
		store, opts...)
}

