// Package keyspec describes composite key schemas as short text, such as
// "tenant:u64,name:ostr,id:ksuid", and converts field values to and from
// their textual form. It is the bridge between the command line and
// codec.Schema.
package keyspec

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/keycodec/pkg/base64"
	"github.com/ssargent/keycodec/pkg/codec"
	"github.com/ssargent/keycodec/pkg/hex"
)

var (
	// ErrUnknownType is returned for a field type name that has no codec.
	ErrUnknownType = errors.New("keyspec: unknown field type")

	// ErrInvalidValue is returned when a textual value does not parse as its
	// field type.
	ErrInvalidValue = errors.New("keyspec: invalid value")
)

// base64Prefix marks a byte value given in base64 rather than hex.
const base64Prefix = "b64:"

type fieldType struct {
	field  codec.Field
	parse  func(string) (any, error)
	format func(any) string
}

func typeOf[T any](c codec.Codec[T], parse func(string) (T, error), format func(T) string) fieldType {
	return fieldType{
		field: codec.FieldOf[T](c),
		parse: func(s string) (any, error) {
			v, err := parse(s)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		format: func(v any) string { return format(v.(T)) },
	}
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func intType[T integer](c codec.Codec[T], bits int) fieldType {
	return typeOf(c,
		func(s string) (T, error) {
			n, err := strconv.ParseInt(s, 0, bits)
			return T(n), err
		},
		func(v T) string { return strconv.FormatInt(int64(v), 10) })
}

func uintType[T unsigned](c codec.Codec[T], bits int) fieldType {
	return typeOf(c,
		func(s string) (T, error) {
			n, err := strconv.ParseUint(s, 0, bits)
			return T(n), err
		},
		func(v T) string { return strconv.FormatUint(uint64(v), 10) })
}

func floatType[T ~float32 | ~float64](c codec.Codec[T], bits int) fieldType {
	return typeOf(c,
		func(s string) (T, error) {
			f, err := strconv.ParseFloat(s, bits)
			return T(f), err
		},
		func(v T) string { return strconv.FormatFloat(float64(v), 'g', -1, bits) })
}

func bytesType(c codec.Codec[[]byte]) fieldType {
	return typeOf(c, parseBytes, hex.EncodeToString)
}

func stringType(c codec.Codec[string]) fieldType {
	return typeOf(c,
		func(s string) (string, error) { return s, nil },
		func(v string) string { return v })
}

// parseBytes decodes a byte value written as hex, or as base64 after a
// "b64:" prefix.
func parseBytes(s string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(s, base64Prefix); ok {
		return base64.DecodeString(rest)
	}
	return hex.DecodeString(s)
}

var types = map[string]fieldType{
	"u8":  uintType[uint8](codec.Uint8, 8),
	"u16": uintType[uint16](codec.Uint16, 16),
	"u32": uintType[uint32](codec.Uint32, 32),
	"u64": uintType[uint64](codec.Uint64, 64),

	"i8":  intType[int8](codec.Int8, 8),
	"i16": intType[int16](codec.Int16, 16),
	"i32": intType[int32](codec.Int32, 32),
	"i64": intType[int64](codec.Int64, 64),

	"twos-i8":  intType[int8](codec.TwosInt8, 8),
	"twos-i16": intType[int16](codec.TwosInt16, 16),
	"twos-i32": intType[int32](codec.TwosInt32, 32),
	"twos-i64": intType[int64](codec.TwosInt64, 64),

	"f32":  floatType[float32](codec.Float32, 32),
	"f64":  floatType[float64](codec.Float64, 64),
	"of32": floatType[float32](codec.OrderedFloat32, 32),
	"of64": floatType[float64](codec.OrderedFloat64, 64),

	"bool": typeOf[bool](codec.Bool, strconv.ParseBool, strconv.FormatBool),

	"bytes":  bytesType(codec.PrefixedBytes),
	"obytes": bytesType(codec.OrderedBytes),
	"raw":    bytesType(codec.RawBytes),
	"str":    stringType(codec.PrefixedString),
	"ostr":   stringType(codec.OrderedString),
	"rawstr": stringType(codec.RawString),

	"uuid":  typeOf[uuid.UUID](codec.UUID, uuid.Parse, uuid.UUID.String),
	"ksuid": typeOf[ksuid.KSUID](codec.KSUID, ksuid.Parse, ksuid.KSUID.String),

	"time": typeOf[time.Time](codec.Time,
		func(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) },
		func(t time.Time) string { return t.Format(time.RFC3339Nano) }),
}

// lookup resolves a type name, including the sized form "bytesN" for fixed
// byte arrays.
func lookup(name string) (fieldType, error) {
	if t, ok := types[name]; ok {
		return t, nil
	}
	if n, ok := strings.CutPrefix(name, "bytes"); ok {
		size, err := strconv.Atoi(n)
		if err == nil && size > 0 {
			return bytesType(codec.FixedBytes(size)), nil
		}
	}
	return fieldType{}, errors.Wrapf(ErrUnknownType, "%q", name)
}

// Types lists the accepted type names in sorted order. Fixed byte arrays are
// listed as "bytesN".
func Types() []string {
	names := make([]string, 0, len(types)+1)
	for name := range types {
		names = append(names, name)
	}
	names = append(names, "bytesN")
	sort.Strings(names)
	return names
}

// Field is one parsed field of a Spec.
type Field struct {
	Name string
	Type string
	ft   fieldType
}

// Spec is a parsed schema description.
type Spec struct {
	fields []Field
	schema *codec.Schema
}

// Parse parses a comma separated list of fields. Each field is a type name,
// optionally preceded by "name:". Unnamed fields are named after their type.
func Parse(text string) (*Spec, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrap(codec.ErrSchemaMismatch, "keyspec: empty schema")
	}
	parts := strings.Split(text, ",")
	fields := make([]Field, len(parts))
	schemaFields := make([]codec.Field, len(parts))
	for i, part := range parts {
		name, typ, named := strings.Cut(strings.TrimSpace(part), ":")
		if !named {
			typ, name = name, ""
		}
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		ft, err := lookup(typ)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i)
		}
		if name == "" {
			name = typ
		}
		fields[i] = Field{Name: name, Type: typ, ft: ft}
		schemaFields[i] = ft.field.Named(name)
	}
	schema, err := codec.NewSchema(schemaFields...)
	if err != nil {
		return nil, errors.Wrapf(err, "keyspec %q", text)
	}
	return &Spec{fields: fields, schema: schema}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Spec {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Schema returns the codec schema.
func (s *Spec) Schema() *codec.Schema { return s.schema }

// Fields returns the parsed fields.
func (s *Spec) Fields() []Field { return append([]Field(nil), s.fields...) }

// String renders the spec in the form Parse accepts.
func (s *Spec) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name + ":" + f.Type
	}
	return strings.Join(parts, ",")
}

// ParseValues converts textual values for the leading len(texts) fields.
func (s *Spec) ParseValues(texts ...string) ([]any, error) {
	if len(texts) > len(s.fields) {
		return nil, errors.Wrapf(codec.ErrSchemaMismatch, "got %d values for %d fields", len(texts), len(s.fields))
	}
	values := make([]any, len(texts))
	for i, text := range texts {
		f := s.fields[i]
		v, err := f.ft.parse(text)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "field %s (%s): %q", f.Name, f.Type, text), ErrInvalidValue)
		}
		values[i] = v
	}
	return values, nil
}

// Encode parses textual values and encodes them as a key prefix. Giving a
// value for every field yields a complete key.
func (s *Spec) Encode(texts ...string) ([]byte, error) {
	values, err := s.ParseValues(texts...)
	if err != nil {
		return nil, err
	}
	return s.schema.EncodePrefix(values...)
}

// FormatValues renders decoded values, one per leading field.
func (s *Spec) FormatValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = s.fields[i].ft.format(v)
	}
	return out
}

// Decode decodes a key or key prefix and renders each field.
func (s *Spec) Decode(key []byte) ([]string, error) {
	values, err := s.schema.DecodePrefix(key)
	if err != nil {
		return nil, err
	}
	return s.FormatValues(values), nil
}
