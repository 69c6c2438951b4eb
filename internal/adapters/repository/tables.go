package repository

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/catalog/internal/domain/model"
)

// Table maps a record type onto its relational table.
type Table[T any] struct {
	Kind model.Kind

	// Name is the quoted SQL table name.
	Name string

	// Columns is every column, in the order used by RETURNING and full reads.
	Columns []string

	// Projection is the column subset returned by List.
	Projection []string

	// InsertColumns are the columns written on create; the database fills
	// the rest.
	InsertColumns []string

	// Values returns the InsertColumns values of a record.
	Values func(T) []any

	// Fields returns scan destinations keyed by column name.
	Fields func(*T) map[string]any

	NameOf func(T) string
	IDOf   func(T) string

	// Stamp returns the record with its store-assigned id and creation time.
	Stamp func(T, string, time.Time) T
}

// dest resolves scan destinations for columns on rec.
func (t Table[T]) dest(rec *T, columns []string) ([]any, error) {
	fields := t.Fields(rec)
	out := make([]any, len(columns))
	for i, c := range columns {
		d, ok := fields[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.Name, c)
		}
		out[i] = d
	}
	return out, nil
}

// project clears the fields that List does not expose.
func (t Table[T]) project(rec T) T {
	return t.Stamp(rec, t.IDOf(rec), time.Time{})
}

// CreditPackages describes the CREDIT_PACKAGE table.
func CreditPackages() Table[model.CreditPackage] {
	return Table[model.CreditPackage]{
		Kind:          model.KindCreditPackage,
		Name:          `"CREDIT_PACKAGE"`,
		Columns:       []string{"id", "name", "credit_amount", "price", "created_at"},
		Projection:    []string{"id", "name", "credit_amount", "price"},
		InsertColumns: []string{"name", "credit_amount", "price"},
		Values: func(p model.CreditPackage) []any {
			return []any{p.Name, p.CreditAmount, p.Price}
		},
		Fields: func(p *model.CreditPackage) map[string]any {
			return map[string]any{
				"id":            &p.ID,
				"name":          &p.Name,
				"credit_amount": &p.CreditAmount,
				"price":         (*wholeNumber)(&p.Price),
				"created_at":    &p.CreatedAt,
			}
		},
		NameOf: func(p model.CreditPackage) string { return p.Name },
		IDOf:   func(p model.CreditPackage) string { return p.ID },
		Stamp: func(p model.CreditPackage, id string, at time.Time) model.CreditPackage {
			p.ID, p.CreatedAt = id, at
			return p
		},
	}
}

// Skills describes the SKILL table.
func Skills() Table[model.Skill] {
	return Table[model.Skill]{
		Kind:          model.KindSkill,
		Name:          `"SKILL"`,
		Columns:       []string{"id", "name", "created_at"},
		Projection:    []string{"id", "name"},
		InsertColumns: []string{"name"},
		Values: func(s model.Skill) []any {
			return []any{s.Name}
		},
		Fields: func(s *model.Skill) map[string]any {
			return map[string]any{
				"id":         &s.ID,
				"name":       &s.Name,
				"created_at": &s.CreatedAt,
			}
		},
		NameOf: func(s model.Skill) string { return s.Name },
		IDOf:   func(s model.Skill) string { return s.ID },
		Stamp: func(s model.Skill, id string, at time.Time) model.Skill {
			s.ID, s.CreatedAt = id, at
			return s
		},
	}
}

// wholeNumber scans a NUMERIC column into an int64. lib/pq returns NUMERIC
// as text such as "500.00".
type wholeNumber int64

func (w *wholeNumber) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*w = wholeNumber(v)
		return nil
	case float64:
		*w = wholeNumber(math.Round(v))
		return nil
	case []byte:
		return w.parse(string(v))
	case string:
		return w.parse(v)
	default:
		return fmt.Errorf("scan numeric: unsupported type %T", src)
	}
}

func (w *wholeNumber) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("scan numeric %q: %w", s, err)
	}
	*w = wholeNumber(math.Round(f))
	return nil
}
