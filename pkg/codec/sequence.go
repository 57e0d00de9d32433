package codec

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

type sequence[T any] struct {
	elem  Codec[T]
	props Properties
}

// Sequence returns a codec for slices that writes a 4-byte big-endian element
// count followed by the elements. Slices compare element by element, and a
// slice that is a prefix of another sorts first.
func Sequence[T any](elem Codec[T]) Codec[[]T] {
	ep := elem.Properties()
	if ep.Unbounded {
		panic(errors.AssertionFailedf("codec: sequence element %s consumes the rest of its input", ep.Name))
	}
	return &sequence[T]{elem: elem, props: Properties{Name: "seq<" + ep.Name + ">"}}
}

func (s *sequence[T]) Properties() Properties { return s.props }

func (s *sequence[T]) EncodedSize(v []T) int {
	if uint64(len(v)) > math.MaxUint32 {
		panic(errors.AssertionFailedf("codec: %s of %d elements exceeds the 4-byte count", s.props.Name, len(v)))
	}
	return lengthPrefixSize + packedSize(s.elem, v)
}

func (s *sequence[T]) Encode(dst []byte, v []T) {
	binary.BigEndian.PutUint32(dst, uint32(len(v)))
	packEncode(s.elem, dst[lengthPrefixSize:], v)
}

func (s *sequence[T]) DecodeNext(c *Cursor) ([]T, error) {
	p, err := c.Next(lengthPrefixSize)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p)
	// Every element occupies at least one byte, so a count larger than the
	// remaining input cannot be satisfied.
	if uint64(n) > uint64(c.Len()) {
		return nil, errors.Wrapf(ErrTruncated, "%s: count %d, %d bytes remain", s.props.Name, n, c.Len())
	}
	out := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := s.elem.DecodeNext(c)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: element %d", s.props.Name, i)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *sequence[T]) CompareNext(lhs, rhs *Cursor) int {
	ln := binary.BigEndian.Uint32(lhs.Take(lengthPrefixSize))
	rn := binary.BigEndian.Uint32(rhs.Take(lengthPrefixSize))
	for i := uint32(0); i < min(ln, rn); i++ {
		if r := s.elem.CompareNext(lhs, rhs); r != 0 {
			return r
		}
	}
	switch {
	case ln < rn:
		return -1
	case ln > rn:
		return 1
	}
	return 0
}

func (s *sequence[T]) Validate(v []T) error { return validateAll(s.elem, v) }

type packed[T any] struct {
	elem  Codec[T]
	props Properties
}

// Packed returns a codec for slices that writes the elements end to end with
// no count. Decoding reads elements until the input is exhausted, so Packed
// can only be the last field of a composite. It is byte-ordered when the
// element codec is.
func Packed[T any](elem Codec[T]) Codec[[]T] {
	ep := elem.Properties()
	if ep.Unbounded {
		panic(errors.AssertionFailedf("codec: packed element %s consumes the rest of its input", ep.Name))
	}
	return &packed[T]{elem: elem, props: Properties{
		Name:        "packed<" + ep.Name + ">",
		ByteOrdered: ep.ByteOrdered,
		Unbounded:   true,
	}}
}

func (p *packed[T]) Properties() Properties { return p.props }

func (p *packed[T]) EncodedSize(v []T) int { return packedSize(p.elem, v) }

func (p *packed[T]) Encode(dst []byte, v []T) { packEncode(p.elem, dst, v) }

func (p *packed[T]) DecodeNext(c *Cursor) ([]T, error) {
	var out []T
	if fs := p.elem.Properties().FixedSize; fs > 0 {
		if c.Len()%fs != 0 {
			return nil, errors.Wrapf(ErrSizeMismatch, "%s: %d bytes is not a multiple of %d", p.props.Name, c.Len(), fs)
		}
		out = make([]T, 0, c.Len()/fs)
	}
	for !c.Empty() {
		v, err := p.elem.DecodeNext(c)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: element %d", p.props.Name, len(out))
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *packed[T]) CompareNext(lhs, rhs *Cursor) int {
	for {
		switch le, re := lhs.Empty(), rhs.Empty(); {
		case le && re:
			return 0
		case le:
			return -1
		case re:
			return 1
		}
		if r := p.elem.CompareNext(lhs, rhs); r != 0 {
			return r
		}
	}
}

func (p *packed[T]) Validate(v []T) error { return validateAll(p.elem, v) }

func packedSize[T any](elem Codec[T], v []T) int {
	if fs := elem.Properties().FixedSize; fs > 0 {
		return fs * len(v)
	}
	n := 0
	for _, e := range v {
		n += elem.EncodedSize(e)
	}
	return n
}

func packEncode[T any](elem Codec[T], dst []byte, v []T) {
	off := 0
	for _, e := range v {
		n := elem.EncodedSize(e)
		elem.Encode(dst[off:off+n:off+n], e)
		off += n
	}
}

func validateAll[T any](elem Codec[T], v []T) error {
	for i, e := range v {
		if err := validate(elem, e); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}
