// Package index maintains secondary indexes over records identified by KSUID.
// Each index entry is a composite key (field value, primary id), so all the
// records sharing a field value are adjacent in key order and exact and range
// lookups become prefix walks over a B+tree.
package index

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/keycodec/pkg/bptree"
	"github.com/ssargent/keycodec/pkg/codec"
)

// SecondaryIndex manages a B+Tree-based index for a specific field
type SecondaryIndex struct {
	fieldName string
	schema    *codec.Schema
	tree      *bptree.BPlusTree[[]byte, ksuid.KSUID]
	order     int
	mutex     sync.RWMutex
}

// NewSecondaryIndex creates a secondary index for a field whose values are
// encoded with field. The field codec must be bounded, since the primary id
// follows it in every index key.
func NewSecondaryIndex(fieldName string, field codec.Field, order int) (*SecondaryIndex, error) {
	schema, err := codec.NewSchema(
		field.Named(fieldName),
		codec.FieldOf[ksuid.KSUID](codec.KSUID).Named("id"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "index %s", fieldName)
	}
	return &SecondaryIndex{
		fieldName: fieldName,
		schema:    schema,
		tree:      bptree.NewBPlusTree[[]byte, ksuid.KSUID](order, schema.Compare),
		order:     order,
	}, nil
}

// FieldName returns the indexed field.
func (idx *SecondaryIndex) FieldName() string { return idx.fieldName }

// Schema returns the index key schema, (field value, id).
func (idx *SecondaryIndex) Schema() *codec.Schema { return idx.schema }

// Len returns the number of entries.
func (idx *SecondaryIndex) Len() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.tree.Len()
}

// Insert adds a record to the secondary index
func (idx *SecondaryIndex) Insert(fieldValue any, primaryKey ksuid.KSUID) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	indexKey, err := idx.schema.Encode(fieldValue, primaryKey)
	if err != nil {
		return errors.Wrapf(err, "index %s: insert", idx.fieldName)
	}
	idx.tree.Insert(indexKey, primaryKey)
	return nil
}

// Delete removes a record from the secondary index
func (idx *SecondaryIndex) Delete(fieldValue any, primaryKey ksuid.KSUID) (bool, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	indexKey, err := idx.schema.Encode(fieldValue, primaryKey)
	if err != nil {
		return false, errors.Wrapf(err, "index %s: delete", idx.fieldName)
	}
	return idx.tree.Delete(indexKey), nil
}

// Search finds records with exact field value match, in id order.
func (idx *SecondaryIndex) Search(fieldValue any) ([]ksuid.KSUID, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	prefix, err := idx.schema.EncodePrefix(fieldValue)
	if err != nil {
		return nil, errors.Wrapf(err, "index %s: search", idx.fieldName)
	}

	var ids []ksuid.KSUID
	idx.tree.Ascend(prefix, func(key []byte, id ksuid.KSUID) bool {
		if !idx.schema.HasPrefix(key, prefix) {
			return false
		}
		ids = append(ids, id)
		return true
	})
	return ids, nil
}

// SearchRange finds records whose field value lies in [startValue, endValue],
// ordered by field value and then id. A nil bound leaves that side open.
func (idx *SecondaryIndex) SearchRange(startValue, endValue any) ([]ksuid.KSUID, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var lo, hi []byte
	var err error
	if startValue != nil {
		if lo, err = idx.schema.EncodePrefix(startValue); err != nil {
			return nil, errors.Wrapf(err, "index %s: range start", idx.fieldName)
		}
	}
	if endValue != nil {
		if hi, err = idx.schema.EncodePrefix(endValue); err != nil {
			return nil, errors.Wrapf(err, "index %s: range end", idx.fieldName)
		}
	}

	var ids []ksuid.KSUID
	collect := func(key []byte, id ksuid.KSUID) bool {
		if hi != nil && idx.schema.Compare(key, hi) > 0 && !idx.schema.HasPrefix(key, hi) {
			return false
		}
		ids = append(ids, id)
		return true
	}
	if lo == nil {
		idx.tree.AscendAll(collect)
	} else {
		idx.tree.Ascend(lo, collect)
	}
	return ids, nil
}

// Entries calls fn with the decoded field value and id of every entry in
// index order until fn returns false.
func (idx *SecondaryIndex) Entries(fn func(fieldValue any, id ksuid.KSUID) bool) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var decodeErr error
	idx.tree.AscendAll(func(key []byte, id ksuid.KSUID) bool {
		values, err := idx.schema.Decode(key)
		if err != nil {
			decodeErr = errors.Wrapf(err, "index %s", idx.fieldName)
			return false
		}
		return fn(values[0], id)
	})
	return decodeErr
}

// IndexManager manages multiple secondary indexes for a partition
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	order   int
}

// NewIndexManager creates a new index manager
func NewIndexManager(order int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// GetOrCreateIndex returns the index for fieldName, creating it with field
// on first use. Asking again with a field of a different codec is an error.
func (im *IndexManager) GetOrCreateIndex(fieldName string, field codec.Field) (*SecondaryIndex, error) {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[fieldName]; exists {
		if got, want := field.Properties().Name, idx.schema.Field(0).Properties().Name; got != want {
			return nil, errors.Wrapf(codec.ErrSchemaMismatch, "index %s holds %s values, not %s", fieldName, want, got)
		}
		return idx, nil
	}

	idx, err := NewSecondaryIndex(fieldName, field, im.order)
	if err != nil {
		return nil, err
	}
	im.indexes[fieldName] = idx
	Logger().Debug("created index", zap.String("field", fieldName), zap.String("schema", idx.schema.Name()))
	return idx, nil
}

// GetIndex returns the index for fieldName if it exists.
func (im *IndexManager) GetIndex(fieldName string) (*SecondaryIndex, bool) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()
	idx, ok := im.indexes[fieldName]
	return idx, ok
}

// Fields lists the indexed fields in name order.
func (im *IndexManager) Fields() []string {
	im.mutex.RLock()
	defer im.mutex.RUnlock()
	names := make([]string, 0, len(im.indexes))
	for name := range im.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maxParallelIO bounds how many index files SaveAll and LoadAll touch at once.
const maxParallelIO = 4

// SaveAll saves all indexes to disk
func (im *IndexManager) SaveAll(dir string) error {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	var g errgroup.Group
	g.SetLimit(maxParallelIO)
	for _, idx := range im.indexes {
		idx := idx
		g.Go(func() error { return idx.Save(dir) })
	}
	return g.Wait()
}

// LoadAll reloads every index created so far from dir. Index files for
// fields that were never created here are skipped, since their value codec
// is unknown.
func (im *IndexManager) LoadAll(dir string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	files, err := indexFiles(dir)
	if err != nil {
		return err
	}
	var g errgroup.Group
	g.SetLimit(maxParallelIO)
	for fieldName := range files {
		idx, ok := im.indexes[fieldName]
		if !ok {
			Logger().Warn("skipping index file for unknown field", zap.String("field", fieldName), zap.String("dir", dir))
			continue
		}
		g.Go(func() error { return idx.Load(dir) })
	}
	return g.Wait()
}
