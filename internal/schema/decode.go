package schema

import (
	"encoding/json"
	"fmt"

	"github.com/osvaldoandrade/hyperdemos/pkg/domain"
)

// Decode validates raw against s and, when it conforms, decodes it into T.
func Decode[T any](s Schema, raw map[string]any) (T, error) {
	var out T
	if err := s.Validate(raw); err != nil {
		return out, err
	}
	if err := convert(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeList validates each element of items against the element schema and
// decodes the conforming ones. Elements that fail are reported, not dropped
// silently; field paths are prefixed with name[i].
func DecodeList[T any](s Schema, name string, items []any) ([]T, []domain.Exclusion) {
	out := make([]T, 0, len(items))
	var excluded []domain.Exclusion
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", name, i)
		obj, ok := item.(map[string]any)
		if !ok {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: mistyped(prefix, TypeObject, item).Error()})
			continue
		}
		if err := validateObject(prefix, s.Fields, obj); err != nil {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: err.Error()})
			continue
		}
		var rec T
		if err := convert(obj, &rec); err != nil {
			excluded = append(excluded, domain.Exclusion{Index: i, Error: err.Error()})
			continue
		}
		out = append(out, rec)
	}
	return out, excluded
}

// List returns raw[name] as a slice, or a violation naming name.
func List(raw map[string]any, name string) ([]any, error) {
	if raw == nil {
		return nil, &domain.SchemaViolationError{Field: "$", Reason: "payload is empty"}
	}
	v, ok := raw[name]
	if !ok || v == nil {
		return nil, &domain.SchemaViolationError{Field: name, Reason: "is missing"}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, mistyped(name, TypeArray, v)
	}
	return items, nil
}

func convert(src any, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
