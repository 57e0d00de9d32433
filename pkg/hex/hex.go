// Package hex encodes bytes as two ASCII hex digits each, high nibble first.
// Encoding writes lowercase digits; decoding accepts either case.
package hex

import (
	"crypto/rand"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/keycodec/pkg/codec"
)

const (
	digits  = "0123456789abcdef"
	invalid = 0xff
)

var decodeTable = func() (t [256]byte) {
	for i := range t {
		t[i] = invalid
	}
	for i := 0; i < 16; i++ {
		t[digits[i]] = byte(i)
		if i >= 10 {
			t['A'+i-10] = byte(i)
		}
	}
	return t
}()

// Value is a single nibble.
type Value uint8

// ValueOf returns the nibble with the given value.
func ValueOf(nibble uint8) (Value, error) {
	if nibble > 0x0f {
		return 0, errors.Wrapf(codec.ErrInvalidCharacter, "hex: nibble %d out of range", nibble)
	}
	return Value(nibble), nil
}

// ParseValue returns the nibble for an ASCII hex digit of either case.
func ParseValue(ch byte) (Value, error) {
	n := decodeTable[ch]
	if n == invalid {
		return 0, errors.Wrapf(codec.ErrInvalidCharacter, "hex: character %q", ch)
	}
	return Value(n), nil
}

// Index returns the 4-bit value.
func (v Value) Index() uint8 { return uint8(v) }

// Char returns the lowercase digit.
func (v Value) Char() byte { return digits[v] }

func (v Value) String() string { return string(digits[v]) }

// RandomValues returns n nibbles drawn from crypto/rand.
func RandomValues(n int) ([]Value, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "hex: random values")
	}
	out := make([]Value, n)
	for i, b := range buf {
		out[i] = Value(b & 0x0f)
	}
	return out, nil
}

// EncodedLength returns the length of the encoding of n bytes.
func EncodedLength(n int) int { return n * 2 }

// DecodedLength returns the number of bytes held by m hex digits.
func DecodedLength(m int) (int, error) {
	if m%2 != 0 {
		return 0, errors.Wrapf(codec.ErrInvalidEncodingLength, "hex: odd length %d", m)
	}
	return m / 2, nil
}

// Encoded is validated hex data. It keeps the decoded bytes and renders them
// as nibbles on demand.
type Encoded struct {
	data []byte
}

// Encode wraps src. The slice is not copied.
func Encode(src []byte) Encoded { return Encoded{data: src} }

// FromValues builds an encoding from explicit nibbles, high nibble first.
func FromValues(values []Value) (Encoded, error) {
	n, err := DecodedLength(len(values))
	if err != nil {
		return Encoded{}, err
	}
	out := make([]byte, n)
	for i := range out {
		hi, lo := values[2*i], values[2*i+1]
		if hi > 0x0f || lo > 0x0f {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidCharacter, "hex: nibble out of range at %d", 2*i)
		}
		out[i] = byte(hi)<<4 | byte(lo)
	}
	return Encoded{data: out}, nil
}

// Bytes returns the decoded bytes.
func (e Encoded) Bytes() []byte { return e.data }

// Len returns the number of hex digits.
func (e Encoded) Len() int { return EncodedLength(len(e.data)) }

// Values returns the nibbles, high nibble first.
func (e Encoded) Values() []Value {
	out := make([]Value, 0, e.Len())
	for _, b := range e.data {
		out = append(out, Value(b>>4), Value(b&0x0f))
	}
	return out
}

func (e Encoded) String() string { return string(e.AppendText(nil)) }

// AppendText appends the lowercase digits to dst.
func (e Encoded) AppendText(dst []byte) []byte {
	for _, b := range e.data {
		dst = append(dst, digits[b>>4], digits[b&0x0f])
	}
	return dst
}

// EncodeToString returns the lowercase encoding of src.
func EncodeToString(src []byte) string { return Encode(src).String() }

// AppendEncode appends the lowercase encoding of src to dst.
func AppendEncode(dst, src []byte) []byte { return Encode(src).AppendText(dst) }

// Parse validates text. The length is checked before any digit.
func Parse(text []byte) (Encoded, error) {
	n, err := DecodedLength(len(text))
	if err != nil {
		return Encoded{}, err
	}
	out := make([]byte, n)
	for i := range out {
		hi, lo := decodeTable[text[2*i]], decodeTable[text[2*i+1]]
		if hi == invalid {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidCharacter, "hex: character %q at offset %d", text[2*i], 2*i)
		}
		if lo == invalid {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidCharacter, "hex: character %q at offset %d", text[2*i+1], 2*i+1)
		}
		out[i] = hi<<4 | lo
	}
	return Encoded{data: out}, nil
}

// ParseString is Parse for a string.
func ParseString(s string) (Encoded, error) { return Parse([]byte(s)) }

// Decode validates and decodes text.
func Decode(text []byte) ([]byte, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return e.data, nil
}

// DecodeString validates and decodes s.
func DecodeString(s string) ([]byte, error) { return Decode([]byte(s)) }
