// Package validate turns untyped JSON request payloads into typed, checked
// field values.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ErrMalformedBody reports a request body that is not valid JSON.
var ErrMalformedBody = errors.New("malformed request body")

type missing struct{}

// Missing is the value Payload.Get returns for absent fields.
var Missing any = missing{}

// Payload holds the top-level fields of a decoded JSON object. Numbers are
// kept as json.Number so integer checks are exact.
type Payload map[string]any

// Get returns the raw value of field, or Missing when it was not supplied.
func (p Payload) Get(field string) any {
	v, ok := p[field]
	if !ok {
		return Missing
	}
	return v
}

// Decode parses body as a single JSON value. Objects become a Payload; other
// JSON values decode to an empty Payload so that every field reads as missing.
// Invalid JSON, trailing data and a literal null fail with ErrMalformedBody.
func Decode(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}

	switch obj := v.(type) {
	case map[string]any:
		return Payload(obj), nil
	case nil:
		return nil, fmt.Errorf("%w: null body", ErrMalformedBody)
	default:
		return Payload{}, nil
	}
}

// IsMissing reports whether v stands for a field absent from the payload.
func IsMissing(v any) bool {
	_, ok := v.(missing)
	return ok
}

// IsInvalidNonEmptyString reports whether v is not a string or is blank
// after trimming whitespace.
func IsInvalidNonEmptyString(v any) bool {
	s, ok := v.(string)
	return !ok || strings.TrimSpace(s) == ""
}

// IsInvalidNonNegativeInteger reports whether v is not a number, is
// negative, or has a fractional part. 1.0 counts as the integer 1.
func IsInvalidNonNegativeInteger(v any) bool {
	n, ok := toInt64(v)
	return !ok || n < 0
}

// toInt64 converts whole JSON numbers to int64. Values with a fractional
// part or outside the int64 range are rejected.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// 2^63 is exactly representable as float64; anything at or above it overflows.
const twoTo63 = float64(1 << 63)

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= twoTo63 || f < -twoTo63 {
		return 0, false
	}
	return int64(f), true
}
