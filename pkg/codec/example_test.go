package codec_test

import (
	"bytes"
	"fmt"
	"log"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/keycodec/pkg/codec"
)

// ExampleInt32 shows that encoded signed integers sort numerically.
func ExampleInt32() {
	values := []int32{3, -7, 0, -1, 42}

	keys := make([][]byte, len(values))
	for i, v := range values {
		keys[i] = codec.Encode(codec.Int32, v)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	for _, k := range keys {
		v, err := codec.Decode(codec.Int32, k)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("% x => %d\n", k, v)
	}

	// Output:
	// 7f ff ff f9 => -7
	// 7f ff ff ff => -1
	// 80 00 00 00 => 0
	// 80 00 00 03 => 3
	// 80 00 00 2a => 42
}

// ExampleStruct builds a composite key for a user's orders.
func ExampleStruct() {
	type orderKey struct {
		User  uint32
		Order string
	}
	keys := codec.Struct("order",
		codec.Member(codec.Uint32, func(k *orderKey) *uint32 { return &k.User }),
		codec.Member(codec.OrderedString, func(k *orderKey) *string { return &k.Order }),
	)

	a := codec.Encode(keys, orderKey{User: 1, Order: "zebra"})
	b := codec.Encode(keys, orderKey{User: 2, Order: "apple"})
	fmt.Println("user 1 sorts first:", codec.Compare(keys, a, b) < 0)
	fmt.Println("byte ordered:", keys.Properties().ByteOrdered)

	// Output:
	// user 1 sorts first: true
	// byte ordered: true
}

// ExampleSchema_EncodePrefix uses a key prefix as the lower bound of a scan.
func ExampleSchema_EncodePrefix() {
	schema := codec.MustSchema(
		codec.FieldOf(codec.PrefixedString).Named("tenant"),
		codec.FieldOf(codec.Uint64).Named("seq"),
	)

	var keys [][]byte
	for _, tenant := range []string{"globex", "acme", "initech"} {
		for seq := uint64(1); seq <= 2; seq++ {
			k, err := schema.Encode(tenant, seq)
			if err != nil {
				log.Fatal(err)
			}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return schema.Compare(keys[i], keys[j]) < 0 })

	prefix, err := schema.EncodePrefix("globex")
	if err != nil {
		log.Fatal(err)
	}
	for _, k := range keys {
		if schema.Compare(k, prefix) >= 0 && schema.HasPrefix(k, prefix) {
			fmt.Println(schema.Format(k))
		}
	}

	// Output:
	// ("globex", 1)
	// ("globex", 2)
}

// ExampleDecode shows how decoding errors are classified.
func ExampleDecode() {
	_, err := codec.Decode(codec.Uint64, []byte{1, 2, 3})
	fmt.Println(errors.Is(err, codec.ErrSizeMismatch))

	_, err = codec.Decode(codec.PrefixedString, []byte{0, 0, 0, 1, 'a', 'b'})
	fmt.Println(errors.Is(err, codec.ErrTrailingBytes))

	// Output:
	// true
	// true
}
