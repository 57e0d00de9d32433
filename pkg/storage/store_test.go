package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/keycodec/pkg/codec"
)

var (
	userSchema = codec.MustSchema(
		codec.FieldOf[uint64](codec.Uint64).Named("tenant"),
		codec.FieldOf[string](codec.OrderedString).Named("user"),
	)
	readingSchema = codec.MustSchema(
		codec.FieldOf[float64](codec.Float64).Named("celsius"),
		codec.FieldOf[string](codec.PrefixedString).Named("sensor"),
	)
)

func openMem(t *testing.T, fs vfs.FS, schema *codec.Schema) *Store {
	t.Helper()
	s, err := Open("db", Options{Schema: schema, FS: fs})
	require.NoError(t, err)
	return s
}

func mustKey(t *testing.T, s *codec.Schema, values ...any) []byte {
	t.Helper()
	key, err := s.EncodePrefix(values...)
	require.NoError(t, err)
	return key
}

func scanAll(t *testing.T, s *Store, prefix []byte) []string {
	t.Helper()
	var out []string
	require.NoError(t, s.Scan(prefix, func(key []byte, rec Record) bool {
		out = append(out, fmt.Sprintf("%s=%s", s.Schema().Format(key), rec.Value))
		return true
	}))
	return out
}

func TestStore_PutGetDelete(t *testing.T) {
	s := openMem(t, vfs.NewMem(), userSchema)
	defer s.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	key := mustKey(t, userSchema, uint64(7), "ada")
	require.NoError(t, s.Put(key, []byte("admin")))

	rec, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("admin"), rec.Value)
	assert.True(t, at.Equal(rec.Timestamp))

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	require.NoError(t, s.Delete(key), "deleting an absent key")
}

func TestStore_PutRejectsInvalidKeys(t *testing.T) {
	s := openMem(t, vfs.NewMem(), userSchema)
	defer s.Close()

	prefix := mustKey(t, userSchema, uint64(7))
	err := s.Put(prefix, []byte("x"))
	assert.Error(t, err, "a prefix is not a complete key")

	_, err = s.PutValues([]byte("x"), uint64(7), 42)
	assert.True(t, errors.Is(err, codec.ErrSchemaMismatch))

	key, err := s.PutValues([]byte("x"), uint64(7), "bob")
	require.NoError(t, err)
	assert.Equal(t, mustKey(t, userSchema, uint64(7), "bob"), key)
}

func TestStore_ReadsRejectMalformedKeys(t *testing.T) {
	s := openMem(t, vfs.NewMem(), readingSchema)
	defer s.Close()
	require.False(t, readingSchema.ByteOrdered())

	_, err := s.PutValues([]byte("x"), 21.5, "a")
	require.NoError(t, err)

	testCases := map[string][]byte{
		"truncated field":   {0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 9, 'a'},
		"partial first key": {0x40, 0x35},
	}
	for name, key := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(key)
			assert.True(t, errors.Is(err, codec.ErrTruncated), "get: %v", err)
			assert.True(t, errors.Is(s.Delete(key), codec.ErrTruncated))

			err = s.Scan(key, func([]byte, Record) bool { return true })
			assert.True(t, errors.Is(err, codec.ErrTruncated), "scan: %v", err)
		})
	}

	prefix := mustKey(t, readingSchema, 21.5)
	assert.Len(t, scanAll(t, s, prefix), 1)
}

func TestStore_ScanByteOrdered(t *testing.T) {
	s := openMem(t, vfs.NewMem(), userSchema)
	defer s.Close()
	require.True(t, userSchema.ByteOrdered())

	rows := []struct {
		tenant uint64
		user   string
	}{
		{2, "carol"}, {1, "bob"}, {2, "alice"}, {1, "alice"}, {256, "zed"}, {2, "alicea"},
	}
	for _, r := range rows {
		_, err := s.PutValues([]byte(r.user), r.tenant, r.user)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		`(1, "alice")=alice`,
		`(1, "bob")=bob`,
		`(2, "alice")=alice`,
		`(2, "alicea")=alicea`,
		`(2, "carol")=carol`,
		`(256, "zed")=zed`,
	}, scanAll(t, s, nil))

	assert.Equal(t, []string{
		`(2, "alice")=alice`,
		`(2, "alicea")=alicea`,
		`(2, "carol")=carol`,
	}, scanAll(t, s, mustKey(t, userSchema, uint64(2))))

	assert.Empty(t, scanAll(t, s, mustKey(t, userSchema, uint64(3))))

	var first []string
	require.NoError(t, s.Scan(nil, func(key []byte, _ Record) bool {
		first = append(first, userSchema.Format(key))
		return false
	}))
	assert.Equal(t, []string{`(1, "alice")`}, first)
}

func TestStore_ScanSchemaOrdered(t *testing.T) {
	s := openMem(t, vfs.NewMem(), readingSchema)
	defer s.Close()
	require.False(t, readingSchema.ByteOrdered())

	readings := []struct {
		celsius float64
		sensor  string
	}{
		{21.5, "b"}, {-3, "a"}, {0, "c"}, {21.5, "a"}, {-40, "z"}, {100, "a"},
	}
	for _, r := range readings {
		_, err := s.PutValues(nil, r.celsius, r.sensor)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		`(-40, "z")=`,
		`(-3, "a")=`,
		`(0, "c")=`,
		`(21.5, "a")=`,
		`(21.5, "b")=`,
		`(100, "a")=`,
	}, scanAll(t, s, nil))

	assert.Equal(t, []string{
		`(21.5, "a")=`,
		`(21.5, "b")=`,
	}, scanAll(t, s, mustKey(t, readingSchema, 21.5)))
}

func TestStore_Reopen(t *testing.T) {
	fs := vfs.NewMem()
	s := openMem(t, fs, userSchema)
	key := mustKey(t, userSchema, uint64(1), "ada")
	require.NoError(t, s.Put(key, []byte("v1")))
	require.NoError(t, s.Close())

	s = openMem(t, fs, userSchema)
	rec, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), rec.Value)
	require.NoError(t, s.Close())

	_, err = Open("db", Options{Schema: readingSchema, FS: fs})
	assert.Error(t, err, "a database keeps the comparer it was created with")
}

func TestStore_Corruption(t *testing.T) {
	s := openMem(t, vfs.NewMem(), userSchema)
	defer s.Close()

	key := mustKey(t, userSchema, uint64(1), "ada")
	require.NoError(t, s.Put(key, []byte("value")))

	data, closer, err := s.db.Get(key)
	require.NoError(t, err)
	bad := append([]byte(nil), data...)
	require.NoError(t, closer.Close())
	bad[len(bad)-1] ^= 0x01
	require.NoError(t, s.db.Set(key, bad, nil))

	_, err = s.Get(key)
	assert.True(t, errors.Is(err, ErrCorruption), "got %v", err)

	err = s.Scan(nil, func([]byte, Record) bool { return true })
	assert.True(t, errors.Is(err, ErrCorruption), "got %v", err)

	require.NoError(t, s.db.Set(key, []byte{1, 2}, nil))
	_, err = s.Get(key)
	assert.True(t, errors.Is(err, ErrCorruption), "got %v", err)
}

func TestRecordEnvelope(t *testing.T) {
	at := time.Unix(1700000000, 123).UTC()
	data := encodeRecord(Record{Timestamp: at, Value: []byte("payload")})
	assert.Len(t, data, 4+8+len("payload"))

	rec, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, at, rec.Timestamp)
	assert.Equal(t, []byte("payload"), rec.Value)

	rec, err = decodeRecord(encodeRecord(Record{Timestamp: at}))
	require.NoError(t, err)
	assert.Empty(t, rec.Value)
}

func TestNewComparer(t *testing.T) {
	c := NewComparer(userSchema)
	assert.Equal(t, "keycodec(uint64,ordered-string)", c.Name)
	assert.Equal(t, `(1, "x")`, fmt.Sprint(c.FormatKey(mustKey(t, userSchema, uint64(1), "x"))))

	c = NewComparer(readingSchema)
	a, b := mustKey(t, readingSchema, -1.0, "a"), mustKey(t, readingSchema, 2.0, "a")
	assert.Equal(t, -1, c.Compare(a, b))
	assert.True(t, c.Equal(a, append([]byte(nil), a...)))
	assert.Equal(t, a, c.Separator(nil, a, b))
	assert.Equal(t, a, c.Successor(nil, a))
	assert.Equal(t, 1, c.Compare(c.ImmediateSuccessor(nil, a), a))
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{1, 3}, prefixEnd([]byte{1, 2}))
	assert.Equal(t, []byte{2}, prefixEnd([]byte{1, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}
