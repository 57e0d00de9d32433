// Package base64 implements the RFC 4648 standard base64 alphabet with '='
// padding, with validation errors classified by the codec package sentinels.
package base64

import (
	"crypto/rand"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/keycodec/pkg/codec"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	pad      = '='
	invalid  = 0xff
)

var decodeTable = func() (t [256]byte) {
	for i := range t {
		t[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = byte(i)
	}
	return t
}()

// Value is one of the 64 base64 symbols, identified by its index in the
// alphabet.
type Value uint8

// ValueOf returns the symbol with the given alphabet index.
func ValueOf(index uint8) (Value, error) {
	if int(index) >= len(alphabet) {
		return 0, errors.Wrapf(codec.ErrInvalidCharacter, "base64: index %d out of range", index)
	}
	return Value(index), nil
}

// ParseValue returns the symbol for an ASCII character.
func ParseValue(ch byte) (Value, error) {
	idx := decodeTable[ch]
	if idx == invalid {
		return 0, errors.Wrapf(codec.ErrInvalidCharacter, "base64: character %q", ch)
	}
	return Value(idx), nil
}

// Index returns the 6-bit value of the symbol.
func (v Value) Index() uint8 { return uint8(v) }

// Char returns the ASCII character of the symbol.
func (v Value) Char() byte { return alphabet[v] }

func (v Value) String() string { return string(alphabet[v]) }

// RandomValues returns n symbols drawn from crypto/rand.
func RandomValues(n int) ([]Value, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "base64: random values")
	}
	out := make([]Value, n)
	for i, b := range buf {
		out[i] = Value(b & 0x3f)
	}
	return out, nil
}
