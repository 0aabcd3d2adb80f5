package escrow

import (
	"encoding/binary"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/orm"
)

// Namespace is used by all addresses derived by this package.
const Namespace = "escrow"

const (
	// recordVersion is the first byte of every serialized record.
	recordVersion = 1

	// recordSize is version, bump, three addresses and two uint64.
	recordSize = 1 + 1 + 3*barter.AddressLength + 8 + 8
)

var vaultSeed = []byte("vault")

// Derivation returns the derivation of the record address of given maker
// and nonce.
func Derivation(owner barter.Address, nonce uint64) (barter.Derivation, error) {
	return barter.FindDerivation(Namespace, owner, barter.Uint64Seed(nonce))
}

// VaultDerivation returns the derivation of the vault address of given
// escrow record.
func VaultDerivation(escrow barter.Address) (barter.Derivation, error) {
	return barter.FindDerivation(Namespace, vaultSeed, escrow)
}

// Addresses returns the record and the vault address of an offer.
func Addresses(owner barter.Address, nonce uint64) (escrow, vault barter.Address, err error) {
	d, err := Derivation(owner, nonce)
	if err != nil {
		return nil, nil, err
	}
	escrow = d.MustAddress()
	v, err := VaultDerivation(escrow)
	if err != nil {
		return nil, nil, err
	}
	return escrow, v.MustAddress(), nil
}

// Escrow is the record of an open offer. It is never modified after
// creation. The offered amount is not stored, it is the vault balance.
type Escrow struct {
	Bump            uint8          `json:"bump"`
	Owner           barter.Address `json:"owner"`
	OfferedAsset    barter.Address `json:"offered_asset"`
	RequestedAsset  barter.Address `json:"requested_asset"`
	Nonce           uint64         `json:"nonce"`
	RequestedAmount uint64         `json:"requested_amount"`
}

var _ orm.Model = (*Escrow)(nil)

// Derivation returns the derivation of this record address.
func (e *Escrow) Derivation() barter.Derivation {
	return barter.Derivation{
		Namespace: Namespace,
		Seeds:     [][]byte{e.Owner, barter.Uint64Seed(e.Nonce)},
		Bump:      e.Bump,
	}
}

// Marshal writes the record in a fixed size layout: version, bump, owner,
// offered asset, requested asset, nonce and requested amount. Integers are
// little endian.
func (e *Escrow) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	bz := make([]byte, recordSize)
	bz[0] = recordVersion
	bz[1] = e.Bump
	n := 2
	for _, a := range []barter.Address{e.Owner, e.OfferedAsset, e.RequestedAsset} {
		n += copy(bz[n:], a)
	}
	binary.LittleEndian.PutUint64(bz[n:], e.Nonce)
	binary.LittleEndian.PutUint64(bz[n+8:], e.RequestedAmount)
	return bz, nil
}

// Unmarshal reads a record written by Marshal.
func (e *Escrow) Unmarshal(bz []byte) error {
	if len(bz) != recordSize {
		return errors.Wrapf(errors.ErrInvalidModel, "record size %d", len(bz))
	}
	if bz[0] != recordVersion {
		return errors.Wrapf(errors.ErrInvalidModel, "record version %d", bz[0])
	}
	e.Bump = bz[1]
	n := 2
	next := func() barter.Address {
		a := barter.Address(append([]byte(nil), bz[n:n+barter.AddressLength]...))
		n += barter.AddressLength
		return a
	}
	e.Owner = next()
	e.OfferedAsset = next()
	e.RequestedAsset = next()
	e.Nonce = binary.LittleEndian.Uint64(bz[n:])
	e.RequestedAmount = binary.LittleEndian.Uint64(bz[n+8:])
	return nil
}

// Validate implements orm.Model
func (e *Escrow) Validate() error {
	if err := e.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := e.OfferedAsset.Validate(); err != nil {
		return errors.Wrap(err, "offered asset")
	}
	if err := e.RequestedAsset.Validate(); err != nil {
		return errors.Wrap(err, "requested asset")
	}
	return nil
}

// AsEscrow will safely type-cast any value from Bucket
func AsEscrow(obj orm.Object) *Escrow {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Escrow)
}

// NewBucket returns a bucket of escrow records keyed by their derived
// address and indexed by owner.
func NewBucket() orm.Bucket {
	return orm.NewBucket("escrows", orm.NewSimpleObj(nil, &Escrow{})).
		WithIndex("owner", ownerIndex, false)
}

func ownerIndex(obj orm.Object) ([]byte, error) {
	e := AsEscrow(obj)
	if e == nil {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", obj.Value())
	}
	return e.Owner, nil
}
