package codec

import (
	"github.com/cockroachdb/errors"
)

// Properties describes the capabilities of a codec that callers may rely on
// without inspecting data.
type Properties struct {
	// Name identifies the codec in errors and key dumps.
	Name string

	// FixedSize is the encoded length of every value when it is greater than
	// zero. Zero means the length depends on the value.
	FixedSize int

	// ByteOrdered reports that bytes.Compare over two encodings agrees with
	// CompareNext, so the encoding can be used directly as a memcmp sort key.
	ByteOrdered bool

	// Unbounded reports that DecodeNext consumes the remainder of its input.
	// Such a codec can only be the last field of a composite.
	Unbounded bool
}

// Fixed reports whether the codec has a constant encoded size.
func (p Properties) Fixed() bool {
	return p.FixedSize > 0
}

// Codec encodes, decodes and compares values of type T.
//
// Implementations are stateless and safe for concurrent use.
type Codec[T any] interface {
	Properties() Properties

	// EncodedSize returns the number of bytes Encode will write for v.
	EncodedSize(v T) int

	// Encode writes v into dst, which is exactly EncodedSize(v) bytes long.
	Encode(dst []byte, v T)

	// DecodeNext decodes one value from the front of c and advances c past it.
	DecodeNext(c *Cursor) (T, error)

	// CompareNext compares the next encoded value of lhs with the next encoded
	// value of rhs and returns -1, 0 or +1. Both cursors are advanced past the
	// values when the result is zero; otherwise their positions are unspecified.
	CompareNext(lhs, rhs *Cursor) int
}

// Encode returns the encoding of v in a newly allocated buffer.
func Encode[T any](c Codec[T], v T) []byte {
	n := c.EncodedSize(v)
	buf := make([]byte, n)
	c.Encode(buf, v)
	return buf
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append[T any](dst []byte, c Codec[T], v T) []byte {
	n := c.EncodedSize(v)
	off := len(dst)
	dst = grow(dst, n)
	c.Encode(dst[off:off+n:off+n], v)
	return dst
}

// Decode decodes a value that occupies all of b.
func Decode[T any](c Codec[T], b []byte) (T, error) {
	var zero T
	props := c.Properties()
	if props.Fixed() && len(b) != props.FixedSize {
		return zero, errors.Wrapf(ErrSizeMismatch, "%s: got %d bytes, want %d", props.Name, len(b), props.FixedSize)
	}
	cur := NewCursor(b)
	v, err := c.DecodeNext(cur)
	if err != nil {
		return zero, errors.Wrapf(err, "%s", props.Name)
	}
	if !cur.Empty() {
		return zero, errors.Wrapf(ErrTrailingBytes, "%s: %d of %d bytes unused", props.Name, cur.Len(), len(b))
	}
	return v, nil
}

// Compare compares two complete encodings produced by c. It panics if either
// span holds more than one value, since the spans are required to be
// encodings of the same type.
func Compare[T any](c Codec[T], a, b []byte) int {
	lhs, rhs := NewCursor(a), NewCursor(b)
	res := c.CompareNext(lhs, rhs)
	if res == 0 && (!lhs.Empty() || !rhs.Empty()) {
		panic(errors.AssertionFailedf("codec: %s compare left %d and %d bytes unread", c.Properties().Name, lhs.Len(), rhs.Len()))
	}
	return res
}

// Equal reports whether two complete encodings compare equal.
func Equal[T any](c Codec[T], a, b []byte) bool {
	return Compare(c, a, b) == 0
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b[:len(b)+n]
	}
	nb := make([]byte, len(b)+n, 2*cap(b)+n)
	copy(nb, b)
	return nb
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
