// Package schema describes the shape of records requested from the extraction
// service and validates what comes back before it is decoded into domain types.
package schema

type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// DateLayout is the only date format accepted for fields marked Date().
const DateLayout = "2006-01-02"

// Field is one named, typed member of an object schema.
type Field struct {
	Name        string
	Type        Type
	Required    bool
	Description string
	NonNegative bool
	Format      string
	Items       *Field
	Properties  []Field
}

// Schema is an ordered object schema.
type Schema struct {
	Fields []Field
}

func Object(fields ...Field) Schema { return Schema{Fields: fields} }

func String(name string) Field { return Field{Name: name, Type: TypeString, Required: true} }
func Integer(name string) Field { return Field{Name: name, Type: TypeInteger, Required: true} }
func Number(name string) Field { return Field{Name: name, Type: TypeNumber, Required: true} }
func Boolean(name string) Field { return Field{Name: name, Type: TypeBoolean, Required: true} }

func Array(name string, items Field) Field {
	return Field{Name: name, Type: TypeArray, Required: true, Items: &items}
}

func Nested(name string, s Schema) Field {
	return Field{Name: name, Type: TypeObject, Required: true, Properties: s.Fields}
}

func (f Field) Optional() Field {
	f.Required = false
	return f
}

func (f Field) Describe(d string) Field {
	f.Description = d
	return f
}

func (f Field) NonNeg() Field {
	f.NonNegative = true
	return f
}

func (f Field) Date() Field {
	f.Format = "date"
	return f
}

// Element returns the object schema of an array field's items, or an empty
// schema when the items are not objects.
func (s Schema) Element(name string) Schema {
	for _, f := range s.Fields {
		if f.Name == name && f.Items != nil && f.Items.Type == TypeObject {
			return Schema{Fields: f.Items.Properties}
		}
	}
	return Schema{}
}

// JSONSchema renders the document sent along with an extraction job.
func (s Schema) JSONSchema() map[string]any {
	return objectSchema(s.Fields)
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       string(TypeObject),
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Type {
	case TypeObject:
		out = objectSchema(f.Properties)
	case TypeArray:
		out = map[string]any{"type": string(TypeArray)}
		if f.Items != nil {
			out["items"] = fieldSchema(*f.Items)
		}
	default:
		out = map[string]any{"type": string(f.Type)}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if f.NonNegative {
		out["minimum"] = 0
	}
	if f.Format != "" {
		out["format"] = f.Format
	}
	return out
}
