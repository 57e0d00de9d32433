package codec

import (
	"github.com/cockroachdb/errors"
)

// StructMember is one field of a Struct codec, built with Member.
type StructMember[S any] interface {
	properties() Properties
	size(s *S) int
	encode(dst []byte, s *S)
	decode(c *Cursor, s *S) error
	compare(lhs, rhs *Cursor) int
	validate(s *S) error
}

type member[S, F any] struct {
	codec Codec[F]
	field func(*S) *F
}

// Member binds a codec to the struct field returned by field. field must
// return a pointer into the struct it is given.
func Member[S, F any](c Codec[F], field func(*S) *F) StructMember[S] {
	return member[S, F]{codec: c, field: field}
}

func (m member[S, F]) properties() Properties { return m.codec.Properties() }

func (m member[S, F]) size(s *S) int { return m.codec.EncodedSize(*m.field(s)) }

func (m member[S, F]) encode(dst []byte, s *S) { m.codec.Encode(dst, *m.field(s)) }

func (m member[S, F]) decode(c *Cursor, s *S) error {
	v, err := m.codec.DecodeNext(c)
	if err != nil {
		return err
	}
	*m.field(s) = v
	return nil
}

func (m member[S, F]) compare(lhs, rhs *Cursor) int { return m.codec.CompareNext(lhs, rhs) }

func (m member[S, F]) validate(s *S) error { return validate(m.codec, *m.field(s)) }

// StructCodec encodes a struct as the concatenation of its members in
// declaration order and compares two encodings member by member.
type StructCodec[S any] struct {
	props   Properties
	members []StructMember[S]
}

// Struct builds a codec for S from its members. A member whose codec consumes
// the rest of the input may only be last. When every member has a fixed size
// the struct is fixed too, with no padding between members.
func Struct[S any](name string, members ...StructMember[S]) *StructCodec[S] {
	if len(members) == 0 {
		panic(errors.AssertionFailedf("codec: struct %s has no members", name))
	}
	props := composeProperties(name, len(members), func(i int) Properties { return members[i].properties() })
	return &StructCodec[S]{props: props, members: members}
}

func (s *StructCodec[S]) Properties() Properties { return s.props }

func (s *StructCodec[S]) EncodedSize(v S) int {
	if s.props.Fixed() {
		return s.props.FixedSize
	}
	n := 0
	for _, m := range s.members {
		n += m.size(&v)
	}
	return n
}

func (s *StructCodec[S]) Encode(dst []byte, v S) {
	off := 0
	for _, m := range s.members {
		n := m.size(&v)
		m.encode(dst[off:off+n:off+n], &v)
		off += n
	}
	if off != len(dst) {
		panic(errors.AssertionFailedf("codec: %s encoded %d bytes into %d", s.props.Name, off, len(dst)))
	}
}

func (s *StructCodec[S]) DecodeNext(c *Cursor) (S, error) {
	var v S
	for i, m := range s.members {
		if err := m.decode(c, &v); err != nil {
			var zero S
			return zero, errors.Wrapf(err, "%s: member %d (%s)", s.props.Name, i, m.properties().Name)
		}
	}
	return v, nil
}

func (s *StructCodec[S]) CompareNext(lhs, rhs *Cursor) int {
	for _, m := range s.members {
		if r := m.compare(lhs, rhs); r != 0 {
			return r
		}
	}
	return 0
}

func (s *StructCodec[S]) Validate(v S) error {
	for i, m := range s.members {
		if err := m.validate(&v); err != nil {
			return errors.Wrapf(err, "%s: member %d", s.props.Name, i)
		}
	}
	return nil
}

// composeProperties derives the properties of a composite from those of its
// n parts and rejects an unbounded part that is not last.
func composeProperties(name string, n int, part func(i int) Properties) Properties {
	props := Properties{Name: name, ByteOrdered: true}
	fixed := 0
	for i := 0; i < n; i++ {
		p := part(i)
		if p.Unbounded && i != n-1 {
			panic(errors.AssertionFailedf("codec: %s part %d (%s) consumes the rest of its input but is not last", name, i, p.Name))
		}
		if fixed >= 0 && p.Fixed() {
			fixed += p.FixedSize
		} else {
			fixed = -1
		}
		props.ByteOrdered = props.ByteOrdered && p.ByteOrdered
		props.Unbounded = p.Unbounded
	}
	if fixed > 0 {
		props.FixedSize = fixed
	}
	return props
}
