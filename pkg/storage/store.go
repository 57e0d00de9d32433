// Package storage persists records in pebble under composite keys. Keys are
// ordered by their schema, so a prefix of leading fields selects a contiguous
// key range.
package storage

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"

	"github.com/ssargent/keycodec/pkg/codec"
)

var (
	// ErrNotFound is returned by Get for a key that holds no record.
	ErrNotFound = errors.New("storage: not found")

	// ErrCorruption is returned when a stored record fails its checksum or
	// does not decode.
	ErrCorruption = errors.New("storage: corrupt record")
)

// Options configures Open.
type Options struct {
	// Schema orders and validates keys. It is required.
	Schema *codec.Schema

	// Sync makes every write durable before it returns.
	Sync bool

	// FS replaces the operating system filesystem, typically with vfs.NewMem
	// in tests.
	FS vfs.FS
}

// Store is a pebble database whose keys follow one schema.
type Store struct {
	db     *pebble.DB
	schema *codec.Schema
	write  *pebble.WriteOptions
	now    func() time.Time
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.Schema == nil {
		return nil, errors.AssertionFailedf("storage: no key schema")
	}
	pebbleOpts := &pebble.Options{
		Comparer: NewComparer(opts.Schema),
		FS:       opts.FS,
		Logger:   Logger().Sugar(),
	}
	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening store at %s", path)
	}
	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}
	Logger().Debug("opened store",
		zap.String("path", path),
		zap.String("schema", opts.Schema.Name()),
		zap.Bool("byte_ordered", opts.Schema.ByteOrdered()),
		zap.Bool("sync", opts.Sync))
	return &Store{db: db, schema: opts.Schema, write: write, now: time.Now}, nil
}

// Schema returns the key schema.
func (s *Store) Schema() *codec.Schema { return s.schema }

func (s *Store) checkKey(key []byte) error {
	if _, err := s.schema.Decode(key); err != nil {
		return errors.Wrap(err, "storage: invalid key")
	}
	return nil
}

// Put stores value under key, which must be a complete key of the schema.
func (s *Store) Put(key, value []byte) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	rec := Record{Timestamp: s.now(), Value: value}
	if err := s.db.Set(key, encodeRecord(rec), s.write); err != nil {
		return errors.Wrapf(err, "storage: put %s", s.schema.Format(key))
	}
	return nil
}

// PutValues encodes one value per schema field into a key and stores value
// under it.
func (s *Store) PutValues(value []byte, fields ...any) ([]byte, error) {
	key, err := s.schema.Encode(fields...)
	if err != nil {
		return nil, err
	}
	return key, s.Put(key, value)
}

// Get returns the record stored under key.
func (s *Store) Get(key []byte) (Record, error) {
	if err := s.checkKey(key); err != nil {
		return Record{}, err
	}
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, errors.Wrapf(ErrNotFound, "key %s", s.schema.Format(key))
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "storage: get %s", s.schema.Format(key))
	}
	defer closer.Close()

	// data is only valid until closer is closed.
	rec, err := decodeRecord(append([]byte(nil), data...))
	if err != nil {
		return Record{}, errors.Wrapf(err, "key %s", s.schema.Format(key))
	}
	return rec, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key []byte) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := s.db.Delete(key, s.write); err != nil {
		return errors.Wrapf(err, "storage: delete %s", s.schema.Format(key))
	}
	return nil
}

// Scan calls fn for every record whose key starts with the fields encoded in
// prefix, in schema order, until fn returns false. An empty prefix scans the
// whole store. The key and record passed to fn are only valid during the call.
func (s *Store) Scan(prefix []byte, fn func(key []byte, rec Record) bool) error {
	if _, err := s.schema.DecodePrefix(prefix); err != nil {
		return errors.Wrap(err, "storage: invalid scan prefix")
	}
	iterOpts := &pebble.IterOptions{}
	if len(prefix) > 0 {
		iterOpts.LowerBound = prefix
		if s.schema.ByteOrdered() {
			iterOpts.UpperBound = prefixEnd(prefix)
		}
	}
	iter, err := s.db.NewIter(iterOpts)
	if err != nil {
		return errors.Wrap(err, "storage: scan")
	}

	for valid := iter.First(); valid; valid = iter.Next() {
		key := iter.Key()
		if len(prefix) > 0 && !s.schema.HasPrefix(key, prefix) {
			break
		}
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			iter.Close()
			return errors.Wrapf(err, "key %s", s.schema.Format(key))
		}
		if !fn(key, rec) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return errors.Wrap(err, "storage: scan")
	}
	return iter.Close()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// prefixEnd returns the smallest byte string greater than every string with
// the given prefix, or nil when there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
