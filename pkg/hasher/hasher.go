// Package hasher defines the incremental hash shape the rest of the module
// builds keyed hashing and key derivation on, plus adapters for common
// algorithms.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/ssargent/keycodec/pkg/codec"
)

// Hasher is an incremental hash. Update may be called any number of times
// before a single Finish.
type Hasher interface {
	Update(p []byte) error
	// Finish writes the digest into out, which must be exactly Size bytes.
	Finish(out []byte) error
	Size() int
	BlockSize() int
}

// Func starts a new hash computation.
type Func func() (Hasher, error)

// ErrFinished is returned when a hasher is used after Finish.
var ErrFinished = errors.New("hasher: already finished")

type stdHasher struct {
	h    hash.Hash
	done bool
}

// FromHash adapts a standard library style hash constructor.
func FromHash(newHash func() hash.Hash) Func {
	return func() (Hasher, error) {
		return &stdHasher{h: newHash()}, nil
	}
}

func (s *stdHasher) Update(p []byte) error {
	if s.done {
		return ErrFinished
	}
	_, err := s.h.Write(p)
	return err
}

func (s *stdHasher) Finish(out []byte) error {
	if s.done {
		return ErrFinished
	}
	if len(out) != s.h.Size() {
		return errors.Wrapf(codec.ErrSizeMismatch, "hasher: digest buffer of %d bytes, want %d", len(out), s.h.Size())
	}
	s.done = true
	s.h.Sum(out[:0])
	return nil
}

func (s *stdHasher) Size() int { return s.h.Size() }

func (s *stdHasher) BlockSize() int { return s.h.BlockSize() }

var (
	MD5    = FromHash(md5.New)
	SHA1   = FromHash(sha1.New)
	SHA256 = FromHash(sha256.New)
	SHA512 = FromHash(sha512.New)

	BLAKE2b256 Func = func() (Hasher, error) { return blake2bHasher(blake2b.New256(nil)) }
	BLAKE2b512 Func = func() (Hasher, error) { return blake2bHasher(blake2b.New512(nil)) }
)

func blake2bHasher(h hash.Hash, err error) (Hasher, error) {
	if err != nil {
		return nil, errors.Wrap(err, "hasher: blake2b")
	}
	return &stdHasher{h: h}, nil
}

// Sum hashes the concatenation of parts in one call.
func Sum(f Func, parts ...[]byte) ([]byte, error) {
	h, err := f()
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if err := h.Update(p); err != nil {
			return nil, err
		}
	}
	out := make([]byte, h.Size())
	if err := h.Finish(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the digest size of f.
func Size(f Func) (int, error) {
	h, err := f()
	if err != nil {
		return 0, err
	}
	return h.Size(), nil
}
