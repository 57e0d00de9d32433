package codec_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/keycodec/pkg/codec"
)

func TestCursor_Next(t *testing.T) {
	c := codec.NewCursor([]byte{1, 2, 3, 4, 5})

	b, err := c.Next(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 2, c.Pos())
	assert.Equal(t, 3, c.Len())

	_, err = c.Next(4)
	assert.True(t, errors.Is(err, codec.ErrTruncated))
	assert.Equal(t, 2, c.Pos(), "a failed read does not advance")

	v, err := c.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(3), v)

	peek, ok := c.Peek(2)
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5}, peek)
	_, ok = c.Peek(3)
	assert.False(t, ok)

	assert.Equal(t, []byte{4, 5}, c.Rest())
	assert.True(t, c.Empty())

	_, err = c.Byte()
	assert.True(t, errors.Is(err, codec.ErrTruncated))
}

func TestCursor_TakePanicsOnOverRead(t *testing.T) {
	c := codec.NewCursor([]byte{1, 2})
	assert.Equal(t, []byte{1}, c.Take(1))
	assert.Panics(t, func() { c.Take(2) })
}

func TestCursor_SubSlicesAreClamped(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	c := codec.NewCursor(buf)

	head := c.Take(2)
	assert.Equal(t, 2, cap(head))

	// Appending to a sub-slice reallocates instead of overwriting the next field.
	_ = append(head, 0xff)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestCompare_ContractViolations(t *testing.T) {
	t.Run("span shorter than the codec needs", func(t *testing.T) {
		assert.Panics(t, func() { codec.Compare(codec.Uint32, []byte{1}, []byte{1}) })
	})
	t.Run("equal values with unread bytes", func(t *testing.T) {
		assert.Panics(t, func() { codec.Compare(codec.Uint8, []byte{1, 2}, []byte{1, 3}) })
	})
	t.Run("unread bytes after a decided compare", func(t *testing.T) {
		assert.Equal(t, -1, codec.Compare(codec.Uint8, []byte{1, 9}, []byte{2, 9}))
	})
}

func TestAppend(t *testing.T) {
	dst := make([]byte, 1, 8)
	dst[0] = 0xaa
	dst = codec.Append(dst, codec.Uint16, 0x0102)
	dst = codec.Append(dst, codec.PrefixedString, "hi")
	assert.Equal(t, []byte{0xaa, 0x01, 0x02, 0, 0, 0, 2, 'h', 'i'}, dst)
	assert.True(t, codec.Equal(codec.Uint16, dst[1:3], []byte{1, 2}))
}
