package base64_test

import (
	"bytes"
	stdbase64 "encoding/base64"
	"math/rand"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/keycodec/pkg/base64"
	"github.com/ssargent/keycodec/pkg/codec"
)

func TestEncode_HelloWorld(t *testing.T) {
	enc := base64.EncodeToString([]byte("Hello, World!"))
	assert.Equal(t, "SGVsbG8sIFdvcmxkIQ==", enc)

	dec, err := base64.DecodeString(enc)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello, World!"), dec)
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, "", base64.EncodeToString(nil))

	dec, err := base64.DecodeString("")
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestEncode_MatchesStandardLibrary(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 64; n++ {
		src := make([]byte, n)
		rng.Read(src)

		want := stdbase64.StdEncoding.EncodeToString(src)
		assert.Equal(t, want, base64.EncodeToString(src), "len %d", n)
		assert.Equal(t, len(want), base64.PaddedLength(n))
		assert.Equal(t, len(stdbase64.RawStdEncoding.EncodeToString(src)), base64.UnpaddedLength(n))

		dec, err := base64.DecodeString(want)
		require.NoError(t, err)
		assert.Equal(t, src, dec)

		raw, err := base64.DecodeString(stdbase64.RawStdEncoding.EncodeToString(src))
		require.NoError(t, err, "unpadded input is accepted")
		assert.Equal(t, src, raw)
	}
}

func TestLengths(t *testing.T) {
	for n := 0; n < 1000; n++ {
		text := base64.EncodeToString(make([]byte, n))
		require.Len(t, text, base64.PaddedLength(n))
		e, err := base64.ParseString(text)
		require.NoError(t, err)
		assert.Equal(t, n, e.DecodedLen(), "n=%d", n)
		assert.Equal(t, base64.PaddedLength(n), base64.UnpaddedLength(n)+e.Tail().Len())
		assert.GreaterOrEqual(t, base64.DecodedLengthPadded(base64.PaddedLength(n)), n)

		m, err := base64.DecodedLength(base64.UnpaddedLength(n))
		require.NoError(t, err)
		assert.Equal(t, n, m, "n=%d", n)
	}

	for _, m := range []int{1, 5, 9, 401} {
		_, err := base64.DecodedLength(m)
		assert.True(t, errors.Is(err, codec.ErrInvalidEncodingLength), "m=%d", m)
	}
	assert.Equal(t, 0, base64.DecodedLengthPadded(0))
	assert.Equal(t, 3, base64.DecodedLengthPadded(4))
}

func TestDecode_Rejects(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  error
	}{
		{name: "one symbol past a group", input: "QUJDR", want: codec.ErrInvalidEncodingLength},
		{name: "single symbol", input: "Q", want: codec.ErrInvalidEncodingLength},
		{name: "third padding character", input: "QQ===", want: codec.ErrInvalidPaddingLength},
		{name: "only padding", input: "==", want: codec.ErrInvalidPaddingLength},
		{name: "padding before the final group", input: "QQ==QUJD", want: codec.ErrInvalidPaddingLength},
		{name: "padding inside a group", input: "Q=Q=", want: codec.ErrInvalidPaddingLength},
		{name: "padding disagrees with length", input: "QQ=", want: codec.ErrInvalidPaddingLength},
		{name: "padding after a full group", input: "QUJD=", want: codec.ErrInvalidPaddingLength},
		{name: "character outside the alphabet", input: "QU-D", want: codec.ErrInvalidCharacter},
		{name: "url-safe alphabet", input: "__8=", want: codec.ErrInvalidCharacter},
		{name: "whitespace", input: "QUJD\n", want: codec.ErrInvalidCharacter},
		{name: "unused bits after one byte", input: "AB==", want: codec.ErrInvalidCharacter},
		{name: "unused bits after two bytes", input: "AAB", want: codec.ErrInvalidCharacter},
		{name: "unused bits in a long tail", input: "SGVsbG9=", want: codec.ErrInvalidCharacter},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := base64.DecodeString(tc.input)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Error(t, base64.Validate([]byte(tc.input)))
		})
	}
}

func TestParse_Canonicalizes(t *testing.T) {
	e, err := base64.ParseString("QQ")
	require.NoError(t, err)
	assert.Equal(t, base64.TailTwo, e.Tail())
	assert.Equal(t, "QQ==", e.String())
	assert.Equal(t, 4, e.Len())
	assert.Equal(t, 1, e.DecodedLen())
	assert.Equal(t, []byte("A"), e.Bytes())
}

func TestValues(t *testing.T) {
	v, err := base64.ParseValue('/')
	require.NoError(t, err)
	assert.Equal(t, uint8(63), v.Index())
	assert.Equal(t, byte('/'), v.Char())
	assert.Equal(t, "/", v.String())

	_, err = base64.ParseValue('=')
	assert.True(t, errors.Is(err, codec.ErrInvalidCharacter))

	v, err = base64.ValueOf(26)
	require.NoError(t, err)
	assert.Equal(t, byte('a'), v.Char())
	_, err = base64.ValueOf(64)
	assert.True(t, errors.Is(err, codec.ErrInvalidCharacter))

	e, err := base64.FromValues([]base64.Value{18, 6, 21, 44})
	require.NoError(t, err)
	assert.Equal(t, "SGVs", e.String())
	assert.Equal(t, []byte("Hel"), e.Bytes())

	_, err = base64.FromValues(make([]base64.Value, 5))
	assert.True(t, errors.Is(err, codec.ErrInvalidEncodingLength))
	_, err = base64.FromValues([]base64.Value{64, 0})
	assert.True(t, errors.Is(err, codec.ErrInvalidCharacter))
	_, err = base64.FromValues([]base64.Value{0, 1})
	assert.True(t, errors.Is(err, codec.ErrInvalidCharacter))
}

func TestRandomValues(t *testing.T) {
	values, err := base64.RandomValues(400)
	require.NoError(t, err)
	require.Len(t, values, 400)
	for _, v := range values {
		assert.Less(t, v.Index(), uint8(64))
	}

	e, err := base64.FromValues(values)
	require.NoError(t, err)
	dec, err := base64.DecodeString(e.String())
	require.NoError(t, err)
	assert.Len(t, dec, 300)
}

func TestCodec(t *testing.T) {
	props := base64.Codec.Properties()
	assert.True(t, props.Unbounded)
	assert.False(t, props.ByteOrdered)

	inputs := [][]byte{{}, {0x00}, {0x00, 0x00}, []byte("A"), []byte("A\x00"), []byte("AB"), []byte("B"), {0xff}}
	encs := make([][]byte, len(inputs))
	for i, in := range inputs {
		encs[i] = codec.Encode(base64.Codec, base64.Encode(in))
		assert.Equal(t, base64.EncodeToString(in), string(encs[i]))

		got, err := codec.Decode(base64.Codec, encs[i])
		require.NoError(t, err)
		assert.Equal(t, in, got.Bytes())
	}

	sorted := append([][]byte(nil), encs...)
	sort.Slice(sorted, func(i, j int) bool { return codec.Compare(base64.Codec, sorted[i], sorted[j]) < 0 })
	for i := range inputs {
		got, err := base64.Decode(sorted[i])
		require.NoError(t, err)
		assert.True(t, bytes.Equal(inputs[i], got), "position %d: got %q", i, got)
	}

	_, err := codec.Decode(base64.Codec, []byte("Q"))
	assert.True(t, errors.Is(err, codec.ErrInvalidEncodingLength))
}
