package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/keycodec/pkg/codec"
)

// IDSchema keys records by a single KSUID, so iteration follows creation
// order.
var IDSchema = codec.MustSchema(codec.FieldOf[ksuid.KSUID](codec.KSUID).Named("id"))

// DefaultStorage stores opaque blobs under generated KSUIDs.
type DefaultStorage struct {
	store *Store
}

func NewDefaultStorage(path string, opts Options) (*DefaultStorage, error) {
	opts.Schema = IDSchema
	store, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &DefaultStorage{store: store}, nil
}

func idKey(id *ksuid.KSUID) []byte {
	return codec.Encode[ksuid.KSUID](codec.KSUID, *id)
}

func (s *DefaultStorage) Create(data []byte) (*ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.store.Put(idKey(&id), data); err != nil {
		return nil, err
	}

	return &id, nil
}

func (s *DefaultStorage) Read(id *ksuid.KSUID) ([]byte, error) {
	rec, err := s.store.Get(idKey(id))
	if err != nil {
		return nil, err
	}

	return rec.Value, nil
}

func (s *DefaultStorage) Update(id *ksuid.KSUID, data []byte) error {
	if _, err := s.store.Get(idKey(id)); err != nil {
		return errors.Wrapf(err, "update %s", id)
	}
	return s.store.Put(idKey(id), data)
}

func (s *DefaultStorage) Delete(id *ksuid.KSUID) error {
	return s.store.Delete(idKey(id))
}

// List returns every id in creation order.
func (s *DefaultStorage) List() ([]ksuid.KSUID, error) {
	var ids []ksuid.KSUID
	var decodeErr error
	err := s.store.Scan(nil, func(key []byte, _ Record) bool {
		var id ksuid.KSUID
		id, decodeErr = codec.Decode[ksuid.KSUID](codec.KSUID, key)
		if decodeErr != nil {
			return false
		}
		ids = append(ids, id)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ids, decodeErr
}

func (s *DefaultStorage) Close() error {
	return s.store.Close()
}
