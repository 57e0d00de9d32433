package hasher

import (
	"github.com/cockroachdb/errors"
)

// ErrOutputLength is returned when HKDF is asked for more than 255 blocks of
// output.
var ErrOutputLength = errors.New("hasher: requested output too long")

const (
	ipad = 0x36
	opad = 0x5c
)

// mac is an incremental HMAC (RFC 2104) over any Hasher.
type mac struct {
	newHash  Func
	inner    Hasher
	outerKey []byte
}

// NewHMAC returns a keyed Hasher. Keys longer than the block size are hashed
// first; shorter keys are zero padded.
func NewHMAC(f Func, key []byte) (Hasher, error) {
	probe, err := f()
	if err != nil {
		return nil, err
	}
	block := probe.BlockSize()
	k := make([]byte, block)
	if len(key) > block {
		sum, err := Sum(f, key)
		if err != nil {
			return nil, errors.Wrap(err, "hmac: hashing long key")
		}
		copy(k, sum)
	} else {
		copy(k, key)
	}

	innerKey := make([]byte, block)
	outerKey := make([]byte, block)
	for i, b := range k {
		innerKey[i] = b ^ ipad
		outerKey[i] = b ^ opad
	}

	inner, err := f()
	if err != nil {
		return nil, err
	}
	if err := inner.Update(innerKey); err != nil {
		return nil, err
	}
	return &mac{newHash: f, inner: inner, outerKey: outerKey}, nil
}

func (m *mac) Update(p []byte) error { return m.inner.Update(p) }

func (m *mac) Finish(out []byte) error {
	innerSum := make([]byte, m.inner.Size())
	if err := m.inner.Finish(innerSum); err != nil {
		return err
	}
	outer, err := m.newHash()
	if err != nil {
		return err
	}
	if err := outer.Update(m.outerKey); err != nil {
		return err
	}
	if err := outer.Update(innerSum); err != nil {
		return err
	}
	return outer.Finish(out)
}

func (m *mac) Size() int { return m.inner.Size() }

func (m *mac) BlockSize() int { return m.inner.BlockSize() }

// HMAC computes the keyed hash of the concatenation of parts.
func HMAC(f Func, key []byte, parts ...[]byte) ([]byte, error) {
	return Sum(func() (Hasher, error) { return NewHMAC(f, key) }, parts...)
}

// HKDFExtract derives a pseudorandom key from input keying material
// (RFC 5869 section 2.2). An empty salt is replaced by a block of zeros the
// size of the digest.
func HKDFExtract(f Func, salt, ikm []byte) ([]byte, error) {
	if len(salt) == 0 {
		n, err := Size(f)
		if err != nil {
			return nil, err
		}
		salt = make([]byte, n)
	}
	return HMAC(f, salt, ikm)
}

// HKDFExpand stretches a pseudorandom key to length bytes bound to info
// (RFC 5869 section 2.3).
func HKDFExpand(f Func, prk, info []byte, length int) ([]byte, error) {
	n, err := Size(f)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > 255*n {
		return nil, errors.Wrapf(ErrOutputLength, "hkdf: %d bytes, at most %d", length, 255*n)
	}

	out := make([]byte, 0, length+n)
	var prev []byte
	for counter := byte(1); len(out) < length; counter++ {
		block, err := HMAC(f, prk, prev, info, []byte{counter})
		if err != nil {
			return nil, errors.Wrapf(err, "hkdf: block %d", counter)
		}
		out = append(out, block...)
		prev = block
	}
	return out[:length], nil
}

// HKDF runs extract then expand.
func HKDF(f Func, salt, ikm, info []byte, length int) ([]byte, error) {
	prk, err := HKDFExtract(f, salt, ikm)
	if err != nil {
		return nil, err
	}
	return HKDFExpand(f, prk, info, length)
}
