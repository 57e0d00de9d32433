package codec

import (
	"github.com/cockroachdb/errors"
)

// Cursor is a read position over a borrowed byte span. Every read is bounds
// checked: Next reports ErrTruncated for data errors, Take panics because an
// over-read during comparison is a caller bug rather than bad input.
//
// Slices returned by a Cursor alias the underlying span and have their capacity
// clamped to their length.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.buf) - c.pos
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int {
	return c.pos
}

// Empty reports whether every byte has been consumed.
func (c *Cursor) Empty() bool {
	return c.pos >= len(c.buf)
}

// Next consumes and returns the next n bytes.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Len() {
		return nil, errors.Wrapf(ErrTruncated, "need %d bytes at offset %d, %d remain", n, c.pos, c.Len())
	}
	return c.advance(n), nil
}

// Byte consumes a single byte.
func (c *Cursor) Byte() (byte, error) {
	if c.Empty() {
		return 0, errors.Wrapf(ErrTruncated, "need 1 byte at offset %d", c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// Take consumes the next n bytes and panics if fewer remain.
func (c *Cursor) Take(n int) []byte {
	if n < 0 || n > c.Len() {
		panic(errors.AssertionFailedf("codec: cursor over-read: need %d bytes at offset %d, %d remain", n, c.pos, c.Len()))
	}
	return c.advance(n)
}

// Peek returns the next n bytes without consuming them. ok is false when
// fewer than n bytes remain.
func (c *Cursor) Peek(n int) (b []byte, ok bool) {
	if n < 0 || n > c.Len() {
		return nil, false
	}
	return c.buf[c.pos : c.pos+n : c.pos+n], true
}

// Rest consumes and returns every unread byte.
func (c *Cursor) Rest() []byte {
	return c.advance(c.Len())
}

func (c *Cursor) advance(n int) []byte {
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b
}
