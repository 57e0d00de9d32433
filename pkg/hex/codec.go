package hex

import (
	"github.com/ssargent/keycodec/pkg/codec"
)

type textCodec struct{}

// Codec stores an Encoded as lowercase hex text taking the rest of the input.
// Comparison reads digits of either case by value, so text written by other
// tools in uppercase orders alongside ours.
var Codec codec.Codec[Encoded] = textCodec{}

func (textCodec) Properties() codec.Properties {
	return codec.Properties{Name: "hex", Unbounded: true}
}

func (textCodec) EncodedSize(e Encoded) int { return e.Len() }

func (textCodec) Encode(dst []byte, e Encoded) { e.AppendText(dst[:0]) }

func (textCodec) DecodeNext(c *codec.Cursor) (Encoded, error) {
	return Parse(c.Rest())
}

func (textCodec) CompareNext(lhs, rhs *codec.Cursor) int {
	a, b := lhs.Rest(), rhs.Rest()
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
