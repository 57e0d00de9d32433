package codec

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Fixed is a codec whose encoded length is the same for every value.
//
// The framework hands each Fixed codec exactly Size() bytes, both for decoding
// and for comparison, so a fixed comparator can never read into a neighbouring
// field.
type Fixed[T any] struct {
	props Properties
	put   func(dst []byte, v T)
	get   func(src []byte) (T, error)
	cmp   func(a, b []byte) int
	check func(v T) error
}

// NewFixed builds a fixed-size codec. put writes v into a buffer of exactly
// size bytes and get reads one back. A nil compare means the encoding is
// byte-ordered and spans are compared with bytes.Compare.
func NewFixed[T any](name string, size int, put func(dst []byte, v T), get func(src []byte) (T, error), compare func(a, b []byte) int) *Fixed[T] {
	if size <= 0 {
		panic(errors.AssertionFailedf("codec: fixed codec %s needs a positive size, got %d", name, size))
	}
	f := &Fixed[T]{
		props: Properties{Name: name, FixedSize: size},
		put:   put,
		get:   get,
		cmp:   compare,
	}
	if compare == nil {
		f.props.ByteOrdered = true
		f.cmp = bytes.Compare
	}
	return f
}

func (f *Fixed[T]) Properties() Properties { return f.props }

// Size returns the encoded length of every value.
func (f *Fixed[T]) Size() int { return f.props.FixedSize }

func (f *Fixed[T]) EncodedSize(T) int { return f.props.FixedSize }

func (f *Fixed[T]) Encode(dst []byte, v T) {
	if len(dst) != f.props.FixedSize {
		panic(errors.AssertionFailedf("codec: %s encode into %d bytes, want %d", f.props.Name, len(dst), f.props.FixedSize))
	}
	f.put(dst, v)
}

func (f *Fixed[T]) DecodeNext(c *Cursor) (T, error) {
	b, err := c.Next(f.props.FixedSize)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.get(b)
}

func (f *Fixed[T]) CompareNext(lhs, rhs *Cursor) int {
	n := f.props.FixedSize
	return sign(f.cmp(lhs.Take(n), rhs.Take(n)))
}

// Validate reports whether v can be encoded.
func (f *Fixed[T]) Validate(v T) error {
	if f.check == nil {
		return nil
	}
	return f.check(v)
}

func infallible[T any](get func([]byte) T) func([]byte) (T, error) {
	return func(b []byte) (T, error) { return get(b), nil }
}

// Unsigned integers are stored big-endian so that byte order is numeric order.
var (
	Uint8 = NewFixed("uint8", 1,
		func(b []byte, v uint8) { b[0] = v },
		infallible(func(b []byte) uint8 { return b[0] }), nil)
	Uint16 = NewFixed("uint16", 2,
		func(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) },
		infallible(binary.BigEndian.Uint16), nil)
	Uint32 = NewFixed("uint32", 4,
		func(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) },
		infallible(binary.BigEndian.Uint32), nil)
	Uint64 = NewFixed("uint64", 8,
		func(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) },
		infallible(binary.BigEndian.Uint64), nil)
)

// Signed integers are stored big-endian with the sign bit flipped, which makes
// byte order equal numeric order: every negative value sorts before zero.
var (
	Int8 = NewFixed("int8", 1,
		func(b []byte, v int8) { b[0] = uint8(v) ^ 0x80 },
		infallible(func(b []byte) int8 { return int8(b[0] ^ 0x80) }), nil)
	Int16 = NewFixed("int16", 2,
		func(b []byte, v int16) { binary.BigEndian.PutUint16(b, uint16(v)^1<<15) },
		infallible(func(b []byte) int16 { return int16(binary.BigEndian.Uint16(b) ^ 1<<15) }), nil)
	Int32 = NewFixed("int32", 4,
		func(b []byte, v int32) { binary.BigEndian.PutUint32(b, uint32(v)^1<<31) },
		infallible(func(b []byte) int32 { return int32(binary.BigEndian.Uint32(b) ^ 1<<31) }), nil)
	Int64 = NewFixed("int64", 8,
		func(b []byte, v int64) { binary.BigEndian.PutUint64(b, uint64(v)^1<<63) },
		infallible(func(b []byte) int64 { return int64(binary.BigEndian.Uint64(b) ^ 1<<63) }), nil)
)

// TwosInt8 through TwosInt64 store plain big-endian two's complement and
// compare byte-wise. This matches keys written by older tooling bit for bit,
// but negative values sort after every non-negative value.
var (
	TwosInt8 = NewFixed("twos-int8", 1,
		func(b []byte, v int8) { b[0] = uint8(v) },
		infallible(func(b []byte) int8 { return int8(b[0]) }), nil)
	TwosInt16 = NewFixed("twos-int16", 2,
		func(b []byte, v int16) { binary.BigEndian.PutUint16(b, uint16(v)) },
		infallible(func(b []byte) int16 { return int16(binary.BigEndian.Uint16(b)) }), nil)
	TwosInt32 = NewFixed("twos-int32", 4,
		func(b []byte, v int32) { binary.BigEndian.PutUint32(b, uint32(v)) },
		infallible(func(b []byte) int32 { return int32(binary.BigEndian.Uint32(b)) }), nil)
	TwosInt64 = NewFixed("twos-int64", 8,
		func(b []byte, v int64) { binary.BigEndian.PutUint64(b, uint64(v)) },
		infallible(func(b []byte) int64 { return int64(binary.BigEndian.Uint64(b)) }), nil)
)

// Float32 and Float64 store the IEEE-754 bit pattern in host byte order, so
// encodings only travel between hosts of the same endianness. Comparison
// decodes both operands: NaN sorts before every other value and equals NaN.
var (
	Float32 = NewFixed("float32", 4,
		func(b []byte, v float32) { binary.NativeEndian.PutUint32(b, math.Float32bits(v)) },
		infallible(nativeFloat32),
		func(a, b []byte) int { return cmp.Compare(nativeFloat32(a), nativeFloat32(b)) })
	Float64 = NewFixed("float64", 8,
		func(b []byte, v float64) { binary.NativeEndian.PutUint64(b, math.Float64bits(v)) },
		infallible(nativeFloat64),
		func(a, b []byte) int { return cmp.Compare(nativeFloat64(a), nativeFloat64(b)) })
)

func nativeFloat32(b []byte) float32 { return math.Float32frombits(binary.NativeEndian.Uint32(b)) }
func nativeFloat64(b []byte) float64 { return math.Float64frombits(binary.NativeEndian.Uint64(b)) }

// OrderedFloat32 and OrderedFloat64 are portable, byte-ordered float layouts:
// big-endian with the sign bit set for positive values and every bit inverted
// for negative ones. -0 sorts immediately before +0.
var (
	OrderedFloat32 = NewFixed("ordered-float32", 4,
		func(b []byte, v float32) {
			bits := math.Float32bits(v)
			if bits&(1<<31) != 0 {
				bits = ^bits
			} else {
				bits |= 1 << 31
			}
			binary.BigEndian.PutUint32(b, bits)
		},
		infallible(func(b []byte) float32 {
			bits := binary.BigEndian.Uint32(b)
			if bits&(1<<31) != 0 {
				bits &^= 1 << 31
			} else {
				bits = ^bits
			}
			return math.Float32frombits(bits)
		}), nil)
	OrderedFloat64 = NewFixed("ordered-float64", 8,
		func(b []byte, v float64) {
			bits := math.Float64bits(v)
			if bits&(1<<63) != 0 {
				bits = ^bits
			} else {
				bits |= 1 << 63
			}
			binary.BigEndian.PutUint64(b, bits)
		},
		infallible(func(b []byte) float64 {
			bits := binary.BigEndian.Uint64(b)
			if bits&(1<<63) != 0 {
				bits &^= 1 << 63
			} else {
				bits = ^bits
			}
			return math.Float64frombits(bits)
		}), nil)
)

// Bool is a single byte, 0 for false and 1 for true.
var Bool = NewFixed("bool", 1,
	func(b []byte, v bool) {
		b[0] = 0
		if v {
			b[0] = 1
		}
	},
	func(b []byte) (bool, error) {
		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, errors.Wrapf(ErrMalformed, "bool: byte 0x%02x", b[0])
	}, nil)

// FixedBytes returns a codec for byte arrays of exactly n bytes. Decoded
// slices alias the input span.
func FixedBytes(n int) *Fixed[[]byte] {
	f := NewFixed(fixedBytesName(n), n,
		func(b []byte, v []byte) {
			if len(v) != n {
				panic(errors.AssertionFailedf("codec: bytes[%d] given %d bytes", n, len(v)))
			}
			copy(b, v)
		},
		infallible(func(b []byte) []byte { return b }), nil)
	f.check = func(v []byte) error {
		if len(v) != n {
			return errors.Wrapf(ErrSizeMismatch, "%s: got %d bytes", f.props.Name, len(v))
		}
		return nil
	}
	return f
}

func fixedBytesName(n int) string {
	return "bytes[" + strconv.Itoa(n) + "]"
}
