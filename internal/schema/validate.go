package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

// Validate checks raw against s and returns a *domain.SchemaViolationError
// naming the first offending field, or nil.
func (s Schema) Validate(raw map[string]any) error {
	if raw == nil {
		return &domain.SchemaViolationError{Field: "$", Reason: "payload is empty"}
	}
	return validateObject("", s.Fields, raw)
}

func validateObject(prefix string, fields []Field, obj map[string]any) error {
	for _, f := range fields {
		path := join(prefix, f.Name)
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if f.Required {
				reason := "is missing"
				if ok {
					reason = "is null"
				}
				return &domain.SchemaViolationError{Field: path, Reason: reason}
			}
			continue
		}
		if err := validateValue(path, f, v); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, f Field, v any) error {
	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return mistyped(path, f.Type, v)
		}
		if f.Format == "date" {
			if _, err := time.Parse(DateLayout, s); err != nil {
				return &domain.SchemaViolationError{Field: path, Reason: fmt.Sprintf("%q is not a %s date", s, DateLayout)}
			}
		}
	case TypeInteger:
		n, ok := asInteger(v)
		if !ok {
			return mistyped(path, f.Type, v)
		}
		if f.NonNegative && n < 0 {
			return &domain.SchemaViolationError{Field: path, Reason: fmt.Sprintf("%d is negative", n)}
		}
	case TypeNumber:
		n, ok := asNumber(v)
		if !ok {
			return mistyped(path, f.Type, v)
		}
		if f.NonNegative && n < 0 {
			return &domain.SchemaViolationError{Field: path, Reason: fmt.Sprintf("%v is negative", n)}
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return mistyped(path, f.Type, v)
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return mistyped(path, f.Type, v)
		}
		if f.Items == nil {
			return nil
		}
		for i, item := range items {
			ip := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return &domain.SchemaViolationError{Field: ip, Reason: "is null"}
			}
			if err := validateValue(ip, *f.Items, item); err != nil {
				return err
			}
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return mistyped(path, f.Type, v)
		}
		return validateObject(path, f.Properties, obj)
	}
	return nil
}

func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.Trunc(n) != n || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func mistyped(path string, want Type, v any) error {
	return &domain.SchemaViolationError{Field: path, Reason: fmt.Sprintf("expected %s, got %T", want, v)}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
