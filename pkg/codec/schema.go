package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Field is one column of a Schema. Build it with FieldOf.
type Field struct {
	name string
	impl fieldImpl
}

type fieldImpl interface {
	properties() Properties
	check(v any) error
	size(v any) int
	encode(dst []byte, v any)
	decode(c *Cursor) (any, error)
	compare(lhs, rhs *Cursor) int
}

type typedField[T any] struct {
	codec Codec[T]
}

// FieldOf wraps a codec as a schema field. Values given to the schema for
// this field must have exactly the Go type T.
func FieldOf[T any](c Codec[T]) Field {
	return Field{name: c.Properties().Name, impl: typedField[T]{codec: c}}
}

// Named returns a copy of f that is reported as name in errors and dumps.
func (f Field) Named(name string) Field {
	f.name = name
	return f
}

// Name returns the field name, which defaults to the codec name.
func (f Field) Name() string { return f.name }

// Properties returns the properties of the field's codec.
func (f Field) Properties() Properties { return f.impl.properties() }

func (t typedField[T]) properties() Properties { return t.codec.Properties() }

func (t typedField[T]) check(v any) error {
	tv, ok := v.(T)
	if !ok {
		var zero T
		return errors.Wrapf(ErrSchemaMismatch, "got %T, want %T", v, zero)
	}
	return validate(t.codec, tv)
}

func (t typedField[T]) size(v any) int { return t.codec.EncodedSize(v.(T)) }

func (t typedField[T]) encode(dst []byte, v any) { t.codec.Encode(dst, v.(T)) }

func (t typedField[T]) decode(c *Cursor) (any, error) { return t.codec.DecodeNext(c) }

func (t typedField[T]) compare(lhs, rhs *Cursor) int { return t.codec.CompareNext(lhs, rhs) }

// Schema is a composite key whose field list is known only at run time. Keys
// are the concatenation of the encoded fields and compare field by field.
//
// A key may hold only a leading subset of the fields (see EncodePrefix). Such
// a prefix sorts before every key that extends it, so prefixes can serve as
// inclusive lower bounds for range scans in an ordered store.
type Schema struct {
	fields []Field
	props  Properties
}

// NewSchema validates the field list. Only the last field may consume the
// rest of the input.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrSchemaMismatch, "schema has no fields")
	}
	for i, f := range fields[:len(fields)-1] {
		if f.impl.properties().Unbounded {
			return nil, errors.Wrapf(ErrSchemaMismatch, "field %d (%s) consumes the rest of the key and must be last", i, f.name)
		}
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	props := composeProperties("("+strings.Join(names, ",")+")", len(fields),
		func(i int) Properties { return fields[i].impl.properties() })
	return &Schema{fields: fields, props: props}, nil
}

// MustSchema is like NewSchema but panics on error. It is intended for
// package-level schema variables.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th field.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Name describes the schema as the list of its field names.
func (s *Schema) Name() string { return s.props.Name }

// ByteOrdered reports whether bytes.Compare over two keys equals Compare, so
// keys can be handed to a store that sorts raw bytes.
func (s *Schema) ByteOrdered() bool { return s.props.ByteOrdered }

// FixedSize returns the length of every complete key, or zero when the length
// depends on the values.
func (s *Schema) FixedSize() int { return s.props.FixedSize }

// Encode encodes one value per field.
func (s *Schema) Encode(values ...any) ([]byte, error) {
	if len(values) != len(s.fields) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s: got %d values, want %d", s.props.Name, len(values), len(s.fields))
	}
	return s.AppendPrefix(nil, values...)
}

// EncodePrefix encodes values for the leading len(values) fields.
func (s *Schema) EncodePrefix(values ...any) ([]byte, error) {
	return s.AppendPrefix(nil, values...)
}

// AppendPrefix appends the encoding of values for the leading len(values)
// fields to dst.
func (s *Schema) AppendPrefix(dst []byte, values ...any) ([]byte, error) {
	if len(values) > len(s.fields) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s: got %d values, want at most %d", s.props.Name, len(values), len(s.fields))
	}
	total := 0
	for i, v := range values {
		f := s.fields[i]
		if err := f.impl.check(v); err != nil {
			return nil, errors.Wrapf(err, "%s: field %d (%s)", s.props.Name, i, f.name)
		}
		total += f.impl.size(v)
	}
	off := len(dst)
	dst = grow(dst, total)
	for i, v := range values {
		f := s.fields[i].impl
		n := f.size(v)
		f.encode(dst[off:off+n:off+n], v)
		off += n
	}
	return dst, nil
}

// Decode decodes a complete key into one value per field.
func (s *Schema) Decode(key []byte) ([]any, error) {
	c := NewCursor(key)
	out := make([]any, len(s.fields))
	for i, f := range s.fields {
		v, err := f.impl.decode(c)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: field %d (%s)", s.props.Name, i, f.name)
		}
		out[i] = v
	}
	if !c.Empty() {
		return nil, errors.Wrapf(ErrTrailingBytes, "%s: %d of %d bytes unused", s.props.Name, c.Len(), len(key))
	}
	return out, nil
}

// DecodePrefix decodes the fields present in a key built by EncodePrefix.
func (s *Schema) DecodePrefix(key []byte) ([]any, error) {
	c := NewCursor(key)
	var out []any
	for i, f := range s.fields {
		if c.Empty() {
			break
		}
		v, err := f.impl.decode(c)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: field %d (%s)", s.props.Name, i, f.name)
		}
		out = append(out, v)
	}
	if !c.Empty() {
		return nil, errors.Wrapf(ErrTrailingBytes, "%s: %d of %d bytes unused", s.props.Name, c.Len(), len(key))
	}
	return out, nil
}

// Compare orders two keys field by field and returns -1, 0 or +1. A key that
// ends at a field boundary sorts before any key that continues past it. Both
// keys must have been produced by this schema.
func (s *Schema) Compare(a, b []byte) int {
	if s.props.ByteOrdered {
		return bytes.Compare(a, b)
	}
	lhs, rhs := NewCursor(a), NewCursor(b)
	for _, f := range s.fields {
		switch le, re := lhs.Empty(), rhs.Empty(); {
		case le && re:
			return 0
		case le:
			return -1
		case re:
			return 1
		}
		if r := f.impl.compare(lhs, rhs); r != 0 {
			return r
		}
	}
	return bytes.Compare(lhs.Rest(), rhs.Rest())
}

// HasPrefix reports whether every field present in prefix equals the
// corresponding field of key.
func (s *Schema) HasPrefix(key, prefix []byte) bool {
	if s.props.ByteOrdered {
		return bytes.HasPrefix(key, prefix)
	}
	kc, pc := NewCursor(key), NewCursor(prefix)
	for _, f := range s.fields {
		if pc.Empty() {
			return true
		}
		if kc.Empty() || f.impl.compare(kc, pc) != 0 {
			return false
		}
	}
	return pc.Empty()
}

// Format renders a key or key prefix for logs and dumps. Keys that do not
// decode are shown as hex.
func (s *Schema) Format(key []byte) string {
	vals, err := s.DecodePrefix(key)
	if err != nil {
		return fmt.Sprintf("<invalid %x>", key)
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch v := v.(type) {
		case []byte:
			fmt.Fprintf(&sb, "%x", v)
		case string:
			fmt.Fprintf(&sb, "%q", v)
		default:
			fmt.Fprint(&sb, v)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
