package validate

import (
	"errors"
	"strings"
)

// FieldKind selects the check applied to a field.
type FieldKind int

// Supported field kinds.
const (
	NonEmptyString FieldKind = iota
	NonNegativeInteger
)

// Reasons reported in FieldError.
const (
	ReasonMissing            = "missing"
	ReasonNonEmptyString     = "must be a non-empty string"
	ReasonNonNegativeInteger = "must be a non-negative integer"
)

// Rule declares one required field.
type Rule struct {
	Field string
	Kind  FieldKind
}

// Schema is the ordered list of required fields of a payload.
type Schema []Rule

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Result is the outcome of Schema.Validate: either typed values for every
// rule, or the list of rejected fields.
type Result struct {
	values map[string]any
	errs   []FieldError
}

// Validate checks every rule against p and reports all failing fields.
func (s Schema) Validate(p Payload) Result {
	r := Result{values: make(map[string]any, len(s))}
	for _, rule := range s {
		v := p.Get(rule.Field)
		if IsMissing(v) {
			r.errs = append(r.errs, FieldError{Field: rule.Field, Reason: ReasonMissing})
			continue
		}
		switch rule.Kind {
		case NonEmptyString:
			if IsInvalidNonEmptyString(v) {
				r.errs = append(r.errs, FieldError{Field: rule.Field, Reason: ReasonNonEmptyString})
				continue
			}
			r.values[rule.Field] = v.(string)
		case NonNegativeInteger:
			if IsInvalidNonNegativeInteger(v) {
				r.errs = append(r.errs, FieldError{Field: rule.Field, Reason: ReasonNonNegativeInteger})
				continue
			}
			n, _ := toInt64(v)
			r.values[rule.Field] = n
		}
	}
	return r
}

// Valid reports whether every rule passed.
func (r Result) Valid() bool { return len(r.errs) == 0 }

// Errors returns the rejected fields in schema order.
func (r Result) Errors() []FieldError { return r.errs }

// String returns a validated string field. It is empty for unknown fields.
func (r Result) String(field string) string {
	s, _ := r.values[field].(string)
	return s
}

// Int64 returns a validated integer field. It is zero for unknown fields.
func (r Result) Int64(field string) int64 {
	n, _ := r.values[field].(int64)
	return n
}

// Err returns nil for a valid result, otherwise a *Error listing the fields.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Fields: r.errs}
}

// ErrInvalidFields is the kind every validation *Error matches via errors.Is.
var ErrInvalidFields = errors.New("invalid fields")

// Error carries the field errors of a rejected payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return ErrInvalidFields.Error() + ": " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrInvalidFields) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrInvalidFields }
