package codec_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/keycodec/pkg/codec"
)

func roundTrip[T any](t *testing.T, c codec.Codec[T], v T) []byte {
	t.Helper()
	enc := codec.Encode(c, v)
	if fs := c.Properties().FixedSize; fs > 0 {
		require.Len(t, enc, fs)
	}
	require.Equal(t, c.EncodedSize(v), len(enc))
	got, err := codec.Decode(c, enc)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	return enc
}

// assertSorted checks that values, given in ascending order, encode to
// ascending keys both under the codec comparator and, when the codec claims
// it, under plain byte comparison.
func assertSorted[T any](t *testing.T, c codec.Codec[T], values ...T) {
	t.Helper()
	encs := make([][]byte, len(values))
	for i, v := range values {
		encs[i] = codec.Encode(c, v)
	}
	for i := 1; i < len(encs); i++ {
		assert.Equal(t, -1, codec.Compare(c, encs[i-1], encs[i]), "%v < %v", values[i-1], values[i])
		assert.Equal(t, 1, codec.Compare(c, encs[i], encs[i-1]), "%v > %v", values[i], values[i-1])
		assert.Equal(t, 0, codec.Compare(c, encs[i], encs[i]))
		if c.Properties().ByteOrdered {
			assert.Equal(t, -1, bytes.Compare(encs[i-1], encs[i]), "bytes of %v < %v", values[i-1], values[i])
		}
	}
}

func TestUnsigned_RoundTripAndOrder(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		for _, v := range []uint8{0, 1, 0x7f, 0x80, math.MaxUint8} {
			roundTrip(t, codec.Uint8, v)
		}
		assertSorted(t, codec.Uint8, 0, 1, 0x7f, 0x80, math.MaxUint8)
	})
	t.Run("uint16", func(t *testing.T) {
		assert.Equal(t, []byte{0x12, 0x34}, roundTrip(t, codec.Uint16, 0x1234))
		assertSorted(t, codec.Uint16, 0, 1, 0xff, 0x100, math.MaxUint16)
	})
	t.Run("uint32", func(t *testing.T) {
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, roundTrip(t, codec.Uint32, 0xdeadbeef))
		assertSorted(t, codec.Uint32, 0, 1, 0xff, 0x100, 0x10000, math.MaxUint32)
	})
	t.Run("uint64", func(t *testing.T) {
		assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02}, roundTrip(t, codec.Uint64, 0x0102))
		assertSorted(t, codec.Uint64, 0, 1, 0xff, 1<<32, 1<<63, math.MaxUint64)
	})
}

func TestSigned_RoundTripAndOrder(t *testing.T) {
	assert.Equal(t, []byte{0x7f, 0xff, 0xff, 0xff}, roundTrip(t, codec.Int32, -1))
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x00}, roundTrip(t, codec.Int32, 0))
	assert.Equal(t, []byte{0x80, 0x00, 0x00, 0x01}, roundTrip(t, codec.Int32, 1))

	for _, v := range []int8{math.MinInt8, -1, 0, 1, math.MaxInt8} {
		roundTrip(t, codec.Int8, v)
	}
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		roundTrip(t, codec.Int64, v)
	}

	assertSorted(t, codec.Int8, math.MinInt8, -2, -1, 0, 1, math.MaxInt8)
	assertSorted(t, codec.Int16, math.MinInt16, -300, -1, 0, 1, 300, math.MaxInt16)
	assertSorted(t, codec.Int32, math.MinInt32, -70000, -1, 0, 1, 70000, math.MaxInt32)
	assertSorted(t, codec.Int64, math.MinInt64, -1<<40, -1, 0, 1, 1<<40, math.MaxInt64)
}

func TestTwosInt_ReproducesPlainLayout(t *testing.T) {
	assert.Equal(t, []byte{0xff, 0xff}, roundTrip(t, codec.TwosInt16, -1))
	assert.Equal(t, []byte{0x00, 0x01}, roundTrip(t, codec.TwosInt16, 1))
	roundTrip(t, codec.TwosInt64, math.MinInt64)
	roundTrip(t, codec.TwosInt8, -128)

	neg := codec.Encode(codec.TwosInt32, -1)
	pos := codec.Encode(codec.TwosInt32, 1)
	assert.Equal(t, 1, codec.Compare(codec.TwosInt32, neg, pos), "negative values sort after positive ones")
}

func TestFloat_NumericCompare(t *testing.T) {
	for _, v := range []float64{0, -1.5, math.Pi, math.Inf(1), math.Inf(-1), math.MaxFloat64} {
		roundTrip(t, codec.Float64, v)
	}
	roundTrip(t, codec.Float32, float32(2.5))

	assert.False(t, codec.Float64.Properties().ByteOrdered)
	assertSorted(t, codec.Float64, math.Inf(-1), -1e300, -1.5, 0, 1e-300, 2, math.Inf(1))
	assertSorted(t, codec.Float32, float32(math.Inf(-1)), -3, 0, 0.5, 3)

	nan := codec.Encode(codec.Float64, math.NaN())
	assert.Equal(t, 0, codec.Compare(codec.Float64, nan, nan))
	assert.Equal(t, -1, codec.Compare(codec.Float64, nan, codec.Encode(codec.Float64, math.Inf(-1))))
}

func TestOrderedFloat_ByteOrder(t *testing.T) {
	assert.True(t, codec.OrderedFloat64.Properties().ByteOrdered)
	assertSorted(t, codec.OrderedFloat64,
		math.Inf(-1), -1e300, -1, -math.SmallestNonzeroFloat64, 0,
		math.SmallestNonzeroFloat64, 1, 1e300, math.Inf(1))
	assertSorted(t, codec.OrderedFloat32, float32(math.Inf(-1)), -2, -0.25, 0, 0.25, 2)

	for _, v := range []float64{-1, 0, 1, math.Inf(1), math.Inf(-1)} {
		roundTrip(t, codec.OrderedFloat64, v)
	}
	negZero, err := codec.Decode(codec.OrderedFloat64, codec.Encode(codec.OrderedFloat64, math.Copysign(0, -1)))
	require.NoError(t, err)
	assert.True(t, math.Signbit(negZero))
}

func TestFixed_SizeMismatch(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		_, err := codec.Decode(codec.Uint32, make([]byte, n))
		assert.True(t, errors.Is(err, codec.ErrSizeMismatch), "len %d: %v", n, err)
	}
}

func TestBool(t *testing.T) {
	assert.Equal(t, []byte{0}, roundTrip(t, codec.Bool, false))
	assert.Equal(t, []byte{1}, roundTrip(t, codec.Bool, true))
	assertSorted(t, codec.Bool, false, true)

	_, err := codec.Decode(codec.Bool, []byte{2})
	assert.True(t, errors.Is(err, codec.ErrMalformed))
}

func TestFixedBytes(t *testing.T) {
	fb := codec.FixedBytes(4)
	assert.Equal(t, "bytes[4]", fb.Properties().Name)
	roundTrip(t, fb, []byte{1, 2, 3, 4})

	err := fb.Validate([]byte{1, 2})
	assert.True(t, errors.Is(err, codec.ErrSizeMismatch))
	assert.NoError(t, fb.Validate([]byte{1, 2, 3, 4}))
	assert.Panics(t, func() { codec.Encode(fb, []byte{1}) })
	assert.Panics(t, func() { codec.FixedBytes(0) })
}

func TestNewFixed_CustomCompare(t *testing.T) {
	// Stores a uint16 little-endian, so byte order is not numeric order.
	le := codec.NewFixed("le16", 2,
		func(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) },
		func(b []byte) (uint16, error) { return uint16(b[0]) | uint16(b[1])<<8, nil },
		func(a, b []byte) int {
			x, y := uint16(a[0])|uint16(a[1])<<8, uint16(b[0])|uint16(b[1])<<8
			return int(x) - int(y)
		})
	assert.False(t, le.Properties().ByteOrdered)
	assert.Equal(t, 2, le.Size())
	roundTrip(t, le, 0x0102)
	assertSorted(t, le, 1, 0xff, 0x100, 0xffff)
}

func TestIdentifiers(t *testing.T) {
	t.Run("uuid", func(t *testing.T) {
		id := uuid.New()
		enc := roundTrip(t, codec.UUID, id)
		assert.Equal(t, id[:], enc)
		_, err := codec.Decode(codec.UUID, enc[:15])
		assert.True(t, errors.Is(err, codec.ErrSizeMismatch))
	})

	t.Run("ksuid orders by time", func(t *testing.T) {
		payload := make([]byte, 16)
		early, err := ksuid.FromParts(time.Unix(1700000000, 0), payload)
		require.NoError(t, err)
		late, err := ksuid.FromParts(time.Unix(1700000001, 0), payload)
		require.NoError(t, err)

		assert.Equal(t, early.Bytes(), roundTrip(t, codec.KSUID, early))
		assertSorted(t, codec.KSUID, early, late, late.Next())
	})

	t.Run("time", func(t *testing.T) {
		roundTrip(t, codec.Time, time.Unix(1700000000, 123).UTC())
		assert.Equal(t, 8, codec.Time.Properties().FixedSize)
		assert.True(t, codec.Time.Properties().ByteOrdered)
		assertSorted(t, codec.Time,
			time.Unix(-1000, 0), time.Unix(0, 0), time.Unix(0, 1), time.Unix(1700000000, 0))
	})
}
