package codec

import (
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// UUID stores the 16 raw bytes of a UUID.
var UUID = NewFixed("uuid", 16,
	func(b []byte, v uuid.UUID) { copy(b, v[:]) },
	uuid.FromBytes, nil)

// KSUID stores the 20 raw bytes of a KSUID. KSUIDs begin with a big-endian
// timestamp, so byte order is creation order at one second resolution.
var KSUID = NewFixed("ksuid", len(ksuid.Nil),
	func(b []byte, v ksuid.KSUID) { copy(b, v.Bytes()) },
	ksuid.FromBytes, nil)

// Time stores nanoseconds since the Unix epoch with the Int64 layout, so
// instants before 1970 sort first. Decoded times are in UTC and carry no
// monotonic reading.
var Time = Convert[int64, time.Time]("time", Int64,
	func(n int64) time.Time { return time.Unix(0, n).UTC() },
	func(t time.Time) int64 { return t.UnixNano() })
