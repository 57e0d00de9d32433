// Package di provides dependency injection container
package di

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"

	"github.com/ssargent/keycodec/pkg/index"
	"github.com/ssargent/keycodec/pkg/keyspec"
	"github.com/ssargent/keycodec/pkg/storage"
)

// StoreFactory opens record stores for the commands that need one
type StoreFactory interface {
	Open(dataDir string, spec *keyspec.Spec, sync bool) (*storage.Store, error)
}

type diskStoreFactory struct{}

// NewDiskStoreFactory opens stores under <dataDir>/store on the local disk
func NewDiskStoreFactory() StoreFactory { return diskStoreFactory{} }

func (diskStoreFactory) Open(dataDir string, spec *keyspec.Spec, sync bool) (*storage.Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create data dir")
	}
	return storage.Open(filepath.Join(dataDir, "store"), storage.Options{Schema: spec.Schema(), Sync: sync})
}

type memStoreFactory struct {
	mu  sync.Mutex
	fss map[string]vfs.FS
}

// NewMemStoreFactory keeps stores in memory, one filesystem per data dir, so
// a store reopened under the same data dir sees earlier writes
func NewMemStoreFactory() StoreFactory {
	return &memStoreFactory{fss: make(map[string]vfs.FS)}
}

func (f *memStoreFactory) Open(dataDir string, spec *keyspec.Spec, sync bool) (*storage.Store, error) {
	f.mu.Lock()
	fs, ok := f.fss[dataDir]
	if !ok {
		fs = vfs.NewMem()
		f.fss[dataDir] = fs
	}
	f.mu.Unlock()
	return storage.Open("store", storage.Options{Schema: spec.Schema(), Sync: sync, FS: fs})
}

// Container holds all the dependencies for the application
type Container struct {
	storeFactory StoreFactory
	logger       *zap.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		storeFactory: NewDiskStoreFactory(),
		logger:       zap.NewNop(),
	}
}

// GetStoreFactory returns the store factory
func (c *Container) GetStoreFactory() StoreFactory {
	return c.storeFactory
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// SetLogger installs l as the application logger and as the logger of the
// storage and index packages
func (c *Container) SetLogger(l *zap.Logger) {
	c.logger = l
	storage.SetLogger(l.Named("storage"))
	index.SetLogger(l.Named("index"))
}
