package barter

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"filippo.io/edwards25519"
	"github.com/iov-one/barter/errors"
)

const (
	// MaxSeeds is the maximum number of seeds a derivation can use.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32
)

// derivedMarker separates derived addresses from any other sha256 use.
var derivedMarker = []byte("barter/derived")

// Derivation describes how a key-less address is computed. The same
// namespace, seeds and bump always produce the same address, so anyone
// can locate an object without a registry.
type Derivation struct {
	Namespace string
	Seeds     [][]byte
	Bump      uint8
}

// Address recomputes the derived address.
func (d Derivation) Address() (Address, error) {
	return CreateDerivedAddress(d.Namespace, d.Bump, d.Seeds...)
}

// MustAddress is like Address but panics on error. Use only on a
// derivation returned by FindDerivation.
func (d Derivation) MustAddress() Address {
	addr, err := d.Address()
	if err != nil {
		panic(err)
	}
	return addr
}

// CreateDerivedAddress hashes namespace, seeds and bump into an address.
// The result is rejected when it is a valid ed25519 point, since a
// private key could then exist for it.
func CreateDerivedAddress(namespace string, bump uint8, seeds ...[]byte) (Address, error) {
	if err := validateSeeds(namespace, seeds); err != nil {
		return nil, err
	}
	addr := hashDerived(namespace, bump, seeds)
	if isOnCurve(addr) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "derived address on curve")
	}
	return addr, nil
}

// FindDerivation searches for the highest bump that produces a valid
// derived address.
func FindDerivation(namespace string, seeds ...[]byte) (Derivation, error) {
	if err := validateSeeds(namespace, seeds); err != nil {
		return Derivation{}, err
	}
	for bump := 255; bump >= 0; bump-- {
		if isOnCurve(hashDerived(namespace, uint8(bump), seeds)) {
			continue
		}
		return Derivation{Namespace: namespace, Seeds: seeds, Bump: uint8(bump)}, nil
	}
	return Derivation{}, errors.Wrap(errors.ErrInvalidState, "no valid bump")
}

// DeriveAddress returns the address found by FindDerivation.
func DeriveAddress(namespace string, seeds ...[]byte) (Address, uint8, error) {
	d, err := FindDerivation(namespace, seeds...)
	if err != nil {
		return nil, 0, err
	}
	return d.MustAddress(), d.Bump, nil
}

func validateSeeds(namespace string, seeds [][]byte) error {
	if namespace == "" {
		return errors.Wrap(errors.ErrInvalidInput, "namespace required")
	}
	if len(seeds) > MaxSeeds {
		return errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return errors.Wrapf(errors.ErrInvalidInput, "seed %d too long: %d", i, len(s))
		}
	}
	return nil
}

func hashDerived(namespace string, bump uint8, seeds [][]byte) Address {
	h := sha256.New()
	h.Write(derivedMarker)
	writeChunk(h, []byte(namespace))
	for _, s := range seeds {
		writeChunk(h, s)
	}
	h.Write([]byte{bump})
	return h.Sum(nil)
}

// Uint64Seed encodes n as an 8 byte little endian seed.
func Uint64Seed(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

// writeChunk length prefixes each chunk so that different seed splits
// never hash to the same value.
func writeChunk(h hash.Hash, b []byte) {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(b)))
	h.Write(prefix[:n])
	h.Write(b)
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
