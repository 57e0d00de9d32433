package storage

import (
	"hash/crc32"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/keycodec/pkg/codec"
)

// Record is a stored value and the time it was written.
type Record struct {
	Timestamp time.Time
	Value     []byte
}

// Stored values are crc32c(body) | body, where body is the record encoded
// with recordCodec.
var recordCodec = codec.Struct("record",
	codec.Member(codec.Time, func(r *Record) *time.Time { return &r.Timestamp }),
	codec.Member(codec.RawBytes, func(r *Record) *[]byte { return &r.Value }),
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeRecord(r Record) []byte {
	body := codec.Encode[Record](recordCodec, r)
	out := codec.Encode[uint32](codec.Uint32, crc32.Checksum(body, castagnoli))
	return append(out, body...)
}

// decodeRecord decodes a stored value. The returned record aliases data.
func decodeRecord(data []byte) (Record, error) {
	cur := codec.NewCursor(data)
	sum, err := codec.Uint32.DecodeNext(cur)
	if err != nil {
		return Record{}, errors.Mark(errors.Wrap(err, "record checksum"), ErrCorruption)
	}
	body := cur.Rest()
	if got := crc32.Checksum(body, castagnoli); got != sum {
		return Record{}, errors.Wrapf(ErrCorruption, "record checksum %#x, want %#x", got, sum)
	}
	r, err := codec.Decode[Record](recordCodec, body)
	if err != nil {
		return Record{}, errors.Mark(errors.Wrap(err, "record body"), ErrCorruption)
	}
	return r, nil
}
