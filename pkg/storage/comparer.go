package storage

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/keycodec/pkg/codec"
)

// NewComparer returns a pebble comparer that orders keys like s. The name
// lists the field codecs, so a database written under one schema refuses to
// open under another.
//
// Byte-ordered schemas keep pebble's bytewise helpers, whose shortened
// separators are only meaningful under bytes.Compare. Other schemas use
// identity separators and successors and no abbreviated keys, so every key
// pebble compares is one that was written or a prefix of one.
func NewComparer(s *codec.Schema) *pebble.Comparer {
	names := make([]string, s.Len())
	for i := range names {
		names[i] = s.Field(i).Properties().Name
	}
	name := "keycodec(" + strings.Join(names, ",") + ")"
	format := func(key []byte) fmt.Formatter { return formattedKey{schema: s, key: key} }

	if s.ByteOrdered() {
		c := *pebble.DefaultComparer
		c.Name = name
		c.FormatKey = format
		return &c
	}
	return &pebble.Comparer{
		Compare:        s.Compare,
		Equal:          func(a, b []byte) bool { return s.Compare(a, b) == 0 },
		AbbreviatedKey: func([]byte) uint64 { return 0 },
		FormatKey:      format,
		Separator:      func(dst, a, _ []byte) []byte { return append(dst, a...) },
		Successor:      func(dst, a []byte) []byte { return append(dst, a...) },
		ImmediateSuccessor: func(dst, a []byte) []byte {
			return append(append(dst, a...), 0x00)
		},
		Split: func(a []byte) int { return len(a) },
		Name:  name,
	}
}

type formattedKey struct {
	schema *codec.Schema
	key    []byte
}

func (k formattedKey) Format(f fmt.State, _ rune) {
	fmt.Fprint(f, k.schema.Format(k.key))
}
