package codec

import (
	"github.com/cockroachdb/errors"
)

// Decode errors. Every decoder in this module wraps one of these with context,
// so callers should test with errors.Is rather than comparing messages.
var (
	// ErrSizeMismatch is returned when a fixed-size decode is given a span whose
	// length differs from the codec's size. The span is never truncated or padded.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrInvalidCharacter is returned by the text transcoders for a byte outside
	// their alphabet.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrInvalidEncodingLength is returned when a symbol count cannot be produced
	// by any valid encoding.
	ErrInvalidEncodingLength = errors.New("invalid encoding length")

	// ErrInvalidPaddingLength is returned when pad characters appear in the wrong
	// position or in the wrong number.
	ErrInvalidPaddingLength = errors.New("invalid padding length")

	// ErrTrailingBytes is returned when a whole-span decode leaves input unused.
	ErrTrailingBytes = errors.New("trailing bytes")

	// ErrTruncated is returned when a consuming decode needs more bytes than
	// the cursor holds.
	ErrTruncated = errors.New("truncated input")

	// ErrMalformed is returned for payloads that have the right length but an
	// impossible structure, such as an out of range group marker.
	ErrMalformed = errors.New("malformed encoding")

	// ErrSchemaMismatch is returned when a runtime value does not fit the field
	// it is encoded into.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
