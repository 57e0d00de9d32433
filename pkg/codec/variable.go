package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// rawBytes is the remainder of the input, with no length information at all.
type rawBytes struct{}

// RawBytes encodes a byte slice verbatim. Decoding consumes everything left in
// the cursor, so RawBytes can only be the last field of a composite. Decoded
// slices alias the input span.
var RawBytes Codec[[]byte] = rawBytes{}

func (rawBytes) Properties() Properties {
	return Properties{Name: "raw-bytes", ByteOrdered: true, Unbounded: true}
}

func (rawBytes) EncodedSize(v []byte) int { return len(v) }

func (rawBytes) Encode(dst []byte, v []byte) { copy(dst, v) }

func (rawBytes) DecodeNext(c *Cursor) ([]byte, error) { return c.Rest(), nil }

func (rawBytes) CompareNext(lhs, rhs *Cursor) int {
	return bytes.Compare(lhs.Rest(), rhs.Rest())
}

// prefixedBytes is a 4-byte big-endian length followed by the data.
type prefixedBytes struct{}

// PrefixedBytes encodes a byte slice behind a 4-byte big-endian length. The
// encoding is not byte-ordered, but CompareNext orders by content: the common
// prefix first, then the shorter value.
var PrefixedBytes Codec[[]byte] = prefixedBytes{}

const lengthPrefixSize = 4

func (prefixedBytes) Properties() Properties {
	return Properties{Name: "prefixed-bytes"}
}

func (prefixedBytes) EncodedSize(v []byte) int {
	if uint64(len(v)) > math.MaxUint32 {
		panic(errors.AssertionFailedf("codec: prefixed-bytes value of %d bytes exceeds the 4-byte length prefix", len(v)))
	}
	return lengthPrefixSize + len(v)
}

func (prefixedBytes) Encode(dst []byte, v []byte) {
	binary.BigEndian.PutUint32(dst, uint32(len(v)))
	copy(dst[lengthPrefixSize:], v)
}

func (prefixedBytes) DecodeNext(c *Cursor) ([]byte, error) {
	p, err := c.Next(lengthPrefixSize)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(p)
	if uint64(n) > uint64(c.Len()) {
		return nil, errors.Wrapf(ErrTruncated, "prefixed-bytes: length %d, %d bytes remain", n, c.Len())
	}
	return c.Next(int(n))
}

func (prefixedBytes) CompareNext(lhs, rhs *Cursor) int {
	ln := binary.BigEndian.Uint32(lhs.Take(lengthPrefixSize))
	rn := binary.BigEndian.Uint32(rhs.Take(lengthPrefixSize))
	return bytes.Compare(lhs.Take(int(ln)), rhs.Take(int(rn)))
}

// orderedBytes is the memcmp-comparable group escaping: the input is split in
// groups of 8 bytes, each followed by a marker. A marker of 9 means another
// group follows; 0 to 8 is the number of significant bytes in the final group,
// whose unused tail is zero. The empty value is a single all-zero group.
type orderedBytes struct{}

// OrderedBytes encodes a byte slice so that plain byte comparison of encodings
// equals bytes.Compare of the values, and so that no encoding is a prefix of
// another. It is the variable-length codec to use inside byte-ordered keys.
var OrderedBytes Codec[[]byte] = orderedBytes{}

const (
	orderedGroup  = 8
	orderedStride = orderedGroup + 1
	orderedMore   = orderedStride
)

func (orderedBytes) Properties() Properties {
	return Properties{Name: "ordered-bytes", ByteOrdered: true}
}

func (orderedBytes) EncodedSize(v []byte) int {
	groups := (len(v) + orderedGroup - 1) / orderedGroup
	return max(groups, 1) * orderedStride
}

func (orderedBytes) Encode(dst []byte, v []byte) {
	for {
		group := dst[:orderedStride:orderedStride]
		dst = dst[orderedStride:]
		if len(v) > orderedGroup {
			copy(group, v[:orderedGroup])
			group[orderedGroup] = orderedMore
			v = v[orderedGroup:]
			continue
		}
		n := copy(group, v)
		clear(group[n:orderedGroup])
		group[orderedGroup] = byte(n)
		return
	}
}

func (orderedBytes) DecodeNext(c *Cursor) ([]byte, error) {
	var out []byte
	for {
		group, err := c.Next(orderedStride)
		if err != nil {
			return nil, errors.Wrap(err, "ordered-bytes")
		}
		marker := group[orderedGroup]
		switch {
		case marker == orderedMore:
			out = append(out, group[:orderedGroup]...)
		case marker == 0 && out != nil:
			return nil, errors.Wrap(ErrMalformed, "ordered-bytes: empty group after a full one")
		case marker <= orderedGroup:
			for _, b := range group[marker:orderedGroup] {
				if b != 0 {
					return nil, errors.Wrap(ErrMalformed, "ordered-bytes: non-zero padding in final group")
				}
			}
			if out == nil {
				out = make([]byte, 0, marker)
			}
			return append(out, group[:marker]...), nil
		default:
			return nil, errors.Wrapf(ErrMalformed, "ordered-bytes: group marker %d", marker)
		}
	}
}

func (orderedBytes) CompareNext(lhs, rhs *Cursor) int {
	return bytes.Compare(orderedSpan(lhs), orderedSpan(rhs))
}

// orderedSpan consumes one ordered-bytes encoding and returns it whole.
func orderedSpan(c *Cursor) []byte {
	start := c.Pos()
	for c.Take(orderedStride)[orderedGroup] == orderedMore {
	}
	n := c.Pos() - start
	c.pos = start
	return c.Take(n)
}

// String codecs share the layouts of their byte counterparts.
var (
	RawString      = bytesAsString("raw-string", RawBytes)
	PrefixedString = bytesAsString("prefixed-string", PrefixedBytes)
	OrderedString  = bytesAsString("ordered-string", OrderedBytes)
)

func bytesAsString(name string, c Codec[[]byte]) Codec[string] {
	return Convert(name, c,
		func(b []byte) string { return string(b) },
		func(s string) []byte { return []byte(s) })
}

// converted adapts a codec to another Go type with a pair of conversions.
type converted[T, U any] struct {
	name  string
	inner Codec[T]
	to    func(T) U
	from  func(U) T
}

// Convert returns a codec for U that stores values with c after converting
// them with from, and converts decoded values back with to. The encoding,
// ordering and properties of c are kept.
func Convert[T, U any](name string, c Codec[T], to func(T) U, from func(U) T) Codec[U] {
	return &converted[T, U]{name: name, inner: c, to: to, from: from}
}

func (c *converted[T, U]) Properties() Properties {
	p := c.inner.Properties()
	p.Name = c.name
	return p
}

func (c *converted[T, U]) EncodedSize(v U) int { return c.inner.EncodedSize(c.from(v)) }

func (c *converted[T, U]) Encode(dst []byte, v U) { c.inner.Encode(dst, c.from(v)) }

func (c *converted[T, U]) DecodeNext(cur *Cursor) (U, error) {
	v, err := c.inner.DecodeNext(cur)
	if err != nil {
		var zero U
		return zero, err
	}
	return c.to(v), nil
}

func (c *converted[T, U]) CompareNext(lhs, rhs *Cursor) int { return c.inner.CompareNext(lhs, rhs) }

func (c *converted[T, U]) Validate(v U) error { return validate(c.inner, c.from(v)) }

// Validator is implemented by codecs that reject some values of their Go type,
// such as fixed-width byte arrays given a slice of the wrong length.
type Validator[T any] interface {
	Validate(v T) error
}

func validate[T any](c Codec[T], v T) error {
	if val, ok := c.(Validator[T]); ok {
		return val.Validate(v)
	}
	return nil
}
