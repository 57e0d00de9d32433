package base64

import (
	"github.com/cockroachdb/errors"

	"github.com/ssargent/keycodec/pkg/codec"
)

// Tail is the number of '=' characters that end an encoding.
type Tail uint8

const (
	TailZero Tail = iota
	TailOne
	TailTwo
)

// Len returns the number of padding characters.
func (t Tail) Len() int { return int(t) }

// tailFor returns the padding that follows the encoding of n bytes.
func tailFor(n int) Tail {
	switch n % 3 {
	case 1:
		return TailTwo
	case 2:
		return TailOne
	}
	return TailZero
}

// PaddedLength returns the length of the padded encoding of n bytes.
func PaddedLength(n int) int {
	return ((n + 2) / 3) * 4
}

// UnpaddedLength returns the length of the encoding of n bytes without
// padding characters.
func UnpaddedLength(n int) int {
	rem := n % 3
	if rem != 0 {
		rem++
	}
	return (n/3)*4 + rem
}

// DecodedLength returns the number of bytes encoded by m symbols, not
// counting padding. A remainder of one symbol cannot encode a whole byte.
func DecodedLength(m int) (int, error) {
	full := (m / 4) * 3
	switch m % 4 {
	case 1:
		return 0, errors.Wrapf(codec.ErrInvalidEncodingLength, "base64: %d symbols", m)
	case 2:
		return full + 1, nil
	case 3:
		return full + 2, nil
	}
	return full, nil
}

// DecodedLengthPadded returns an upper bound on the decoded length of a
// padded encoding of m characters.
func DecodedLengthPadded(m int) int {
	return ((m + 3) / 4) * 3
}

// Encoded is a validated base64 encoding: its symbols and its padding.
type Encoded struct {
	values []Value
	tail   Tail
}

// FromValues builds an encoding from explicit symbols. The padding is derived
// from the number of symbols.
func FromValues(values []Value) (Encoded, error) {
	n, err := DecodedLength(len(values))
	if err != nil {
		return Encoded{}, err
	}
	for i, v := range values {
		if int(v) >= len(alphabet) {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidCharacter, "base64: value %d at %d", v, i)
		}
	}
	if err := checkUnusedBits(values); err != nil {
		return Encoded{}, err
	}
	return Encoded{values: values, tail: tailFor(n)}, nil
}

// checkUnusedBits rejects a final partial group whose last symbol carries
// bits beyond the decoded bytes, so every byte string has one encoding.
func checkUnusedBits(values []Value) error {
	var mask Value
	switch len(values) % 4 {
	case 2:
		mask = 0x0f
	case 3:
		mask = 0x03
	default:
		return nil
	}
	if last := values[len(values)-1]; last&mask != 0 {
		return errors.Wrapf(codec.ErrInvalidCharacter, "base64: character %q at offset %d has non-zero unused bits", last.Char(), len(values)-1)
	}
	return nil
}

// Values returns the symbols, without padding.
func (e Encoded) Values() []Value { return e.values }

// Tail returns the padding of the canonical text form.
func (e Encoded) Tail() Tail { return e.tail }

// Len returns the length of the canonical text form, padding included.
func (e Encoded) Len() int { return len(e.values) + e.tail.Len() }

// DecodedLen returns the number of bytes the encoding holds.
func (e Encoded) DecodedLen() int {
	n, _ := DecodedLength(len(e.values))
	return n
}

// String returns the padded text form.
func (e Encoded) String() string {
	return string(e.AppendText(nil))
}

// AppendText appends the padded text form to dst.
func (e Encoded) AppendText(dst []byte) []byte {
	for _, v := range e.values {
		dst = append(dst, v.Char())
	}
	for i := 0; i < e.tail.Len(); i++ {
		dst = append(dst, pad)
	}
	return dst
}

// Bytes decodes the symbols.
func (e Encoded) Bytes() []byte {
	out := make([]byte, 0, e.DecodedLen())
	v := e.values
	for len(v) >= 4 {
		out = append(out,
			byte(v[0])<<2|byte(v[1])>>4,
			byte(v[1])<<4|byte(v[2])>>2,
			byte(v[2])<<6|byte(v[3]))
		v = v[4:]
	}
	switch len(v) {
	case 3:
		out = append(out, byte(v[0])<<2|byte(v[1])>>4, byte(v[1])<<4|byte(v[2])>>2)
	case 2:
		out = append(out, byte(v[0])<<2|byte(v[1])>>4)
	}
	return out
}

// Encode converts bytes to symbols: every 3 bytes become 4 symbols, and a
// final 1 or 2 bytes become 2 or 3 symbols with zero low bits.
func Encode(src []byte) Encoded {
	tail := tailFor(len(src))
	values := make([]Value, 0, UnpaddedLength(len(src)))
	for len(src) >= 3 {
		values = append(values,
			Value(src[0]>>2),
			Value((src[0]&0x03)<<4|src[1]>>4),
			Value((src[1]&0x0f)<<2|src[2]>>6),
			Value(src[2]&0x3f))
		src = src[3:]
	}
	switch len(src) {
	case 2:
		values = append(values,
			Value(src[0]>>2),
			Value((src[0]&0x03)<<4|src[1]>>4),
			Value((src[1]&0x0f)<<2))
	case 1:
		values = append(values,
			Value(src[0]>>2),
			Value((src[0]&0x03)<<4))
	}
	return Encoded{values: values, tail: tail}
}

// EncodeToString returns the padded encoding of src.
func EncodeToString(src []byte) string {
	return string(AppendEncode(nil, src))
}

// AppendEncode appends the padded encoding of src to dst.
func AppendEncode(dst, src []byte) []byte {
	return Encode(src).AppendText(dst)
}

// Parse validates text and returns its symbols. Checks run in this order:
// padding length, padding position, alphabet, symbol count, the padding
// against the symbol count, and finally the unused low bits of the last
// symbol, which must be zero. Text without padding is accepted.
func Parse(text []byte) (Encoded, error) {
	if len(text) == 0 {
		return Encoded{}, nil
	}
	tail, err := parseTail(text)
	if err != nil {
		return Encoded{}, err
	}
	body := text[:len(text)-tail.Len()]
	for i, ch := range body {
		if ch == pad {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidPaddingLength, "base64: padding at offset %d of %d", i, len(text))
		}
	}
	values := make([]Value, len(body))
	for i, ch := range body {
		idx := decodeTable[ch]
		if idx == invalid {
			return Encoded{}, errors.Wrapf(codec.ErrInvalidCharacter, "base64: character %q at offset %d", ch, i)
		}
		values[i] = Value(idx)
	}
	n, err := DecodedLength(len(values))
	if err != nil {
		return Encoded{}, err
	}
	want := tailFor(n)
	if tail != TailZero && tail != want {
		return Encoded{}, errors.Wrapf(codec.ErrInvalidPaddingLength, "base64: %d padding characters, want %d", tail.Len(), want.Len())
	}
	if err := checkUnusedBits(values); err != nil {
		return Encoded{}, err
	}
	return Encoded{values: values, tail: want}, nil
}

// ParseString is Parse for a string.
func ParseString(s string) (Encoded, error) {
	return Parse([]byte(s))
}

func parseTail(text []byte) (Tail, error) {
	n := 0
	for n < len(text) && text[len(text)-1-n] == pad {
		n++
	}
	switch {
	case n > 2:
		return 0, errors.Wrapf(codec.ErrInvalidPaddingLength, "base64: %d padding characters", n)
	case n == len(text):
		return 0, errors.Wrap(codec.ErrInvalidPaddingLength, "base64: input is only padding")
	}
	return Tail(n), nil
}

// Decode validates and decodes text.
func Decode(text []byte) ([]byte, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodeString validates and decodes s.
func DecodeString(s string) ([]byte, error) {
	return Decode([]byte(s))
}

// Validate reports whether text is a valid encoding.
func Validate(text []byte) error {
	_, err := Parse(text)
	return err
}
