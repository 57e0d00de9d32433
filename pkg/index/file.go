package index

import (
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/keycodec/pkg/bptree"
	"github.com/ssargent/keycodec/pkg/codec"
)

// Index files hold a header followed by the packed entries in key order:
//
//	magic u32 | key codecs | entry count u32 | crc32c(entries) u32 | entries...
//
// where each entry is a length-prefixed index key and the primary id.

const (
	indexFilePrefix = "index_"
	indexFileSuffix = ".dat"
	indexMagic      = 0x6b636978 // "kcix"
)

// ErrCorruptIndex is returned when an index file fails its checksum or does
// not decode.
var ErrCorruptIndex = errors.New("corrupt index file")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type fileHeader struct {
	Magic    uint32
	Schema   string
	Count    uint32
	Checksum uint32
}

type fileEntry struct {
	Key []byte
	ID  ksuid.KSUID
}

var (
	headerCodec = codec.Struct("index-header",
		codec.Member(codec.Uint32, func(h *fileHeader) *uint32 { return &h.Magic }),
		codec.Member(codec.PrefixedString, func(h *fileHeader) *string { return &h.Schema }),
		codec.Member(codec.Uint32, func(h *fileHeader) *uint32 { return &h.Count }),
		codec.Member(codec.Uint32, func(h *fileHeader) *uint32 { return &h.Checksum }),
	)
	entryCodec = codec.Struct("index-entry",
		codec.Member(codec.PrefixedBytes, func(e *fileEntry) *[]byte { return &e.Key }),
		codec.Member(codec.KSUID, func(e *fileEntry) *ksuid.KSUID { return &e.ID }),
	)
	entriesCodec = codec.Packed[fileEntry](entryCodec)
)

// keySignature names the codecs of an index key, which field names alone do
// not pin down.
func keySignature(s *codec.Schema) string {
	names := make([]string, s.Len())
	for i := range names {
		names[i] = s.Field(i).Properties().Name
	}
	return strings.Join(names, ",")
}

func indexPath(dir, fieldName string) string {
	return filepath.Join(dir, indexFilePrefix+fieldName+indexFileSuffix)
}

// indexFiles maps field names to the index files present in dir.
func indexFiles(dir string) (map[string]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, indexFilePrefix+"*"+indexFileSuffix))
	if err != nil {
		return nil, errors.Wrapf(err, "listing index files in %s", dir)
	}
	out := make(map[string]string, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), indexFilePrefix), indexFileSuffix)
		if name == "" {
			continue
		}
		out[name] = file
	}
	return out, nil
}

// Save persists the index to disk
func (idx *SecondaryIndex) Save(dir string) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var entries []fileEntry
	idx.tree.AscendAll(func(key []byte, id ksuid.KSUID) bool {
		entries = append(entries, fileEntry{Key: key, ID: id})
		return true
	})

	body := codec.Encode(entriesCodec, entries)
	header := fileHeader{
		Magic:    indexMagic,
		Schema:   keySignature(idx.schema),
		Count:    uint32(len(entries)),
		Checksum: crc32.Checksum(body, castagnoli),
	}
	data := codec.Append(codec.Encode[fileHeader](headerCodec, header), entriesCodec, entries)

	filename := indexPath(dir, idx.fieldName)
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrapf(err, "writing index %s", idx.fieldName)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return errors.Wrapf(err, "installing index %s", idx.fieldName)
	}
	Logger().Debug("saved index",
		zap.String("field", idx.fieldName),
		zap.Int("entries", len(entries)),
		zap.Int("bytes", len(data)))
	return nil
}

// Load replaces the index contents with those saved in dir. A missing file
// leaves the index unchanged.
func (idx *SecondaryIndex) Load(dir string) error {
	filename := indexPath(dir, idx.fieldName)
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to load index for field %s", idx.fieldName)
	}

	tree, err := idx.decodeFile(data)
	if err != nil {
		return errors.Wrapf(err, "failed to load index for field %s", idx.fieldName)
	}
	idx.mutex.Lock()
	idx.tree = tree
	idx.mutex.Unlock()
	Logger().Debug("loaded index", zap.String("field", idx.fieldName), zap.Int("entries", tree.Len()))
	return nil
}

func (idx *SecondaryIndex) decodeFile(data []byte) (*bptree.BPlusTree[[]byte, ksuid.KSUID], error) {
	cur := codec.NewCursor(data)
	header, err := headerCodec.DecodeNext(cur)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "header"), ErrCorruptIndex)
	}
	if header.Magic != indexMagic {
		return nil, errors.Wrapf(ErrCorruptIndex, "bad magic %#x", header.Magic)
	}
	if want := keySignature(idx.schema); header.Schema != want {
		return nil, errors.Wrapf(codec.ErrSchemaMismatch, "file holds (%s) keys, index uses (%s)", header.Schema, want)
	}

	body := cur.Rest()
	if sum := crc32.Checksum(body, castagnoli); sum != header.Checksum {
		return nil, errors.Wrapf(ErrCorruptIndex, "checksum %#x, want %#x", sum, header.Checksum)
	}

	// The loaded tree owns its keys, so entries are decoded from a private copy.
	entries, err := codec.Decode(entriesCodec, append([]byte(nil), body...))
	if err != nil {
		return nil, errors.Mark(err, ErrCorruptIndex)
	}
	if len(entries) != int(header.Count) {
		return nil, errors.Wrapf(ErrCorruptIndex, "%d entries, header says %d", len(entries), header.Count)
	}

	tree := bptree.NewBPlusTree[[]byte, ksuid.KSUID](idx.order, idx.schema.Compare)
	for i, e := range entries {
		values, err := idx.schema.Decode(e.Key)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "entry %d", i), ErrCorruptIndex)
		}
		if values[1].(ksuid.KSUID) != e.ID {
			return nil, errors.Wrapf(ErrCorruptIndex, "entry %d: key id %s, stored id %s", i, values[1], e.ID)
		}
		tree.Insert(e.Key, e.ID)
	}
	return tree, nil
}
