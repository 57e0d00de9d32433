package base64

import (
	"github.com/ssargent/keycodec/pkg/codec"
)

type textCodec struct{}

// Codec stores an Encoded as its padded text. The text takes the rest of the
// input, and two encodings compare by the bytes they hold rather than by
// their ASCII characters.
var Codec codec.Codec[Encoded] = textCodec{}

func (textCodec) Properties() codec.Properties {
	return codec.Properties{Name: "base64", Unbounded: true}
}

func (textCodec) EncodedSize(e Encoded) int { return e.Len() }

func (textCodec) Encode(dst []byte, e Encoded) { e.AppendText(dst[:0]) }

func (textCodec) DecodeNext(c *codec.Cursor) (Encoded, error) {
	return Parse(c.Rest())
}

// CompareNext walks the symbols of both texts by alphabet index. Padding
// carries no data, so it is skipped.
func (textCodec) CompareNext(lhs, rhs *codec.Cursor) int {
	a, b := trimPad(lhs.Rest()), trimPad(rhs.Rest())
	for i := 0; i < min(len(a), len(b)); i++ {
		x, y := decodeTable[a[i]], decodeTable[b[i]]
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func trimPad(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == pad {
		b = b[:len(b)-1]
	}
	return b
}
