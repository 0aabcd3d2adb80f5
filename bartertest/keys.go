package bartertest

import (
	"crypto/sha256"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/crypto"
)

// NewKey returns a random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// SeededKey returns a key that is the same on every call with the same name.
func SeededKey(name string) *crypto.PrivateKey {
	seed := sha256.Sum256([]byte(name))
	return crypto.PrivKeyEd25519FromSeed(seed[:])
}

// NewAddress returns the address of a random key.
func NewAddress() barter.Address {
	return NewKey().PublicKey().Address()
}
