// Package codec provides typed, order-preserving binary encodings for keys.
//
// A Codec[T] converts values of T to bytes and back, and compares two encoded
// values without decoding them into Go values. Codecs compose: a Struct or a
// Schema lays several fields end to end, and the resulting composite key
// orders lexicographically by its fields.
//
// # Codec Capabilities
//
// Every codec reports its Properties:
//   - FixedSize: the encoded length of every value, or zero when the length
//     depends on the value
//   - ByteOrdered: bytes.Compare over two encodings gives the same answer as
//     CompareNext, so encodings can go straight into a store that sorts raw
//     bytes
//   - Unbounded: decoding consumes the rest of the input, so the codec may
//     only be the last field of a composite
//
// # Fixed Layouts
//
// Unsigned integers are big-endian. Signed integers are big-endian with the
// sign bit flipped, so that -1 sorts before 0:
//
//	Int32(-1) = 7f ff ff ff
//	Int32(0)  = 80 00 00 00
//	Int32(1)  = 80 00 00 01
//
// TwosInt8 through TwosInt64 keep the plain two's complement layout for keys
// written by older tooling. Float32 and Float64 store the host-order IEEE-754
// bits and compare numerically; OrderedFloat32 and OrderedFloat64 are the
// portable byte-ordered alternative. UUID, KSUID, Time, Bool and FixedBytes
// cover the other common key columns, and NewFixed builds custom ones.
//
// # Variable Layouts
//
//	RawBytes       [data...]                    rest of the input
//	PrefixedBytes  [len(4, big-endian)][data]   ordered by content
//	OrderedBytes   [8 data][marker] ...         byte-ordered, prefix-free
//	Sequence       [count(4, big-endian)][elem]...
//	Packed         [elem][elem]...              rest of the input
//
// OrderedBytes splits the data in groups of eight bytes. Each group is
// followed by a marker: 9 when another group follows, otherwise the number of
// significant bytes in the group, whose tail is zero padded.
//
// # Composite Keys
//
// Struct builds a codec for a Go struct from a list of members:
//
//	type orderKey struct {
//	    Customer uint64
//	    Placed   time.Time
//	    ID       ksuid.KSUID
//	}
//
//	var orderKeys = codec.Struct("order",
//	    codec.Member(codec.Uint64, func(k *orderKey) *uint64 { return &k.Customer }),
//	    codec.Member(codec.Time, func(k *orderKey) *time.Time { return &k.Placed }),
//	    codec.Member(codec.KSUID, func(k *orderKey) *ksuid.KSUID { return &k.ID }),
//	)
//
//	key := codec.Encode(orderKeys, orderKey{Customer: 7, Placed: now, ID: id})
//
// Schema is the run-time equivalent for field lists that come from
// configuration. It also accepts key prefixes (EncodePrefix): a prefix sorts
// before every key it is a prefix of, which makes it a valid lower bound for
// range scans.
//
// # Error Handling
//
// Decoding never panics on bad data. Errors wrap the sentinels in errors.go
// and are matched with errors.Is:
//
//	if _, err := codec.Decode(codec.Uint32, b); errors.Is(err, codec.ErrSizeMismatch) {
//	    ...
//	}
//
// Comparison trusts its inputs to be encodings produced by the same codec. A
// comparator that runs past the end of its input panics with an assertion
// error instead of reading out of bounds.
//
// # Thread Safety
//
// Codecs are immutable and safe for concurrent use. A Cursor is not.
package codec
