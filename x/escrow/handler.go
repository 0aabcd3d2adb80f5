package escrow

import (
	"context"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/orm"
	"github.com/iov-one/barter/x"
	"github.com/iov-one/barter/x/ledger"
)

const (
	openCost    int64 = 300
	fulfillCost int64 = 200
	cancelCost  int64 = 0
)

// Ledger is the part of the ledger controller this package needs.
type Ledger interface {
	Asset(db barter.ReadOnlyKVStore, id barter.Address) (*ledger.Asset, error)
	Account(db barter.ReadOnlyKVStore, addr barter.Address) (*ledger.Account, error)
	Balance(db barter.ReadOnlyKVStore, addr barter.Address) (uint64, error)
	HasAccount(db barter.ReadOnlyKVStore, addr barter.Address) (bool, error)
	CheckDeposits(db barter.ReadOnlyKVStore, payer barter.Address, n uint64, debit barter.Address, amount uint64) error
	OpenAccount(ctx context.Context, db barter.KVStore, payer ledger.Signer, addr, asset, authority barter.Address) error
	OpenAssociated(ctx context.Context, db barter.KVStore, payer ledger.Signer, owner, asset barter.Address) (barter.Address, error)
	Transfer(ctx context.Context, db barter.KVStore, from ledger.Signer, src, dest barter.Address, amount uint64) error
	CloseAccount(ctx context.Context, db barter.KVStore, authority ledger.Signer, addr, refundTo barter.Address) error
	PayDeposit(ctx context.Context, db barter.KVStore, payer ledger.Signer) (uint64, error)
	RefundDeposit(ctx context.Context, db barter.KVStore, recipient barter.Address, amount uint64) error
}

var _ Ledger = ledger.Controller{}

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r barter.Registry, auth x.Authenticator, l Ledger) {
	bucket := NewBucket()
	r.Handle(&OpenMsg{}, OpenHandler{auth: auth, bucket: bucket, ledger: l})
	r.Handle(&FulfillMsg{}, FulfillHandler{auth: auth, bucket: bucket, ledger: l})
	r.Handle(&CancelMsg{}, CancelHandler{auth: auth, bucket: bucket, ledger: l})
}

// RegisterQuery will register this bucket as "/escrows"
func RegisterQuery(qr barter.QueryRouter) {
	NewBucket().Register("escrows", qr)
}

// OpenHandler creates offers.
type OpenHandler struct {
	auth   x.Authenticator
	bucket orm.Bucket
	ledger Ledger
}

var _ barter.Handler = OpenHandler{}

// Check verifies the offer can be opened and returns the cost of
// executing it.
func (h OpenHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: openCost}, nil
}

// Deliver stores the record, opens the vault and moves the offered amount
// into it.
func (h OpenHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, bump, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	maker := ledger.TxSigner(h.auth, msg.Maker)

	if _, err := h.ledger.PayDeposit(ctx, db, maker); err != nil {
		return nil, errors.Wrap(err, "record deposit")
	}
	record := &Escrow{
		Bump:            bump,
		Owner:           msg.Maker,
		OfferedAsset:    msg.OfferedAsset,
		RequestedAsset:  msg.RequestedAsset,
		Nonce:           msg.Nonce,
		RequestedAmount: msg.RequestedAmount,
	}
	if err := h.bucket.Create(db, orm.NewSimpleObj(msg.Escrow, record)); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	if err := h.ledger.OpenAccount(ctx, db, maker, msg.Vault, msg.OfferedAsset, msg.Escrow); err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if err := h.ledger.Transfer(ctx, db, maker, msg.Source, msg.Vault, msg.OfferedAmount); err != nil {
		return nil, err
	}

	barter.GetLogger(ctx).Debug("escrow opened",
		"escrow", msg.Escrow, "maker", msg.Maker, "offered", msg.OfferedAmount, "requested", msg.RequestedAmount)
	return &barter.DeliverResult{Data: msg.Escrow}, nil
}

// validate does all common pre-processing between Check and Deliver. It
// returns the bump of the record derivation.
func (h OpenHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*OpenMsg, uint8, error) {
	var msg OpenMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, 0, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Maker) {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "maker signature missing")
	}

	d, err := Derivation(msg.Maker, msg.Nonce)
	if err != nil {
		return nil, 0, err
	}
	if !d.MustAddress().Equals(msg.Escrow) {
		return nil, 0, errors.Wrap(errors.ErrDerivationMismatch, "escrow")
	}
	vd, err := VaultDerivation(msg.Escrow)
	if err != nil {
		return nil, 0, err
	}
	if !vd.MustAddress().Equals(msg.Vault) {
		return nil, 0, errors.Wrap(errors.ErrDerivationMismatch, "vault")
	}

	switch has, err := h.bucket.Has(db, msg.Escrow); {
	case err != nil:
		return nil, 0, err
	case has:
		return nil, 0, errors.Wrapf(errors.ErrDuplicate, "offer %d of %s", msg.Nonce, msg.Maker)
	}

	if _, err := h.ledger.Asset(db, msg.OfferedAsset); err != nil {
		return nil, 0, errors.Wrap(err, "offered asset")
	}
	if _, err := h.ledger.Asset(db, msg.RequestedAsset); err != nil {
		return nil, 0, errors.Wrap(err, "requested asset")
	}
	src, err := h.ledger.Account(db, msg.Source)
	if err != nil {
		return nil, 0, errors.Wrap(err, "source")
	}
	if !src.Asset.Equals(msg.OfferedAsset) {
		return nil, 0, errors.Wrap(errors.ErrInvalidInput, "source holds another asset")
	}
	if !src.Authority.Equals(msg.Maker) {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "source belongs to somebody else")
	}
	if src.Amount < msg.OfferedAmount {
		return nil, 0, errors.Wrapf(errors.ErrInsufficientFunds, "has %d, offers %d", src.Amount, msg.OfferedAmount)
	}
	// One deposit for the record, one for the vault.
	if err := h.ledger.CheckDeposits(db, msg.Maker, 2, msg.Source, msg.OfferedAmount); err != nil {
		return nil, 0, errors.Wrap(err, "deposits")
	}
	return &msg, d.Bump, nil
}

// FulfillHandler executes offers.
type FulfillHandler struct {
	auth   x.Authenticator
	bucket orm.Bucket
	ledger Ledger
}

var _ barter.Handler = FulfillHandler{}

// Check verifies the offer can be taken and returns the cost of
// executing it.
func (h FulfillHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: fulfillCost}, nil
}

// Deliver pays the maker, releases the vault to the taker and removes the
// offer.
func (h FulfillHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	taker := ledger.TxSigner(h.auth, msg.Taker)

	makerAcct, err := h.ledger.OpenAssociated(ctx, db, taker, record.Owner, record.RequestedAsset)
	if err != nil {
		return nil, errors.Wrap(err, "maker account")
	}
	if record.RequestedAmount > 0 {
		if err := h.ledger.Transfer(ctx, db, taker, msg.Payment, makerAcct, record.RequestedAmount); err != nil {
			return nil, errors.Wrap(err, "payment")
		}
	}

	dest := msg.Destination
	if len(dest) == 0 {
		dest, err = h.ledger.OpenAssociated(ctx, db, taker, msg.Taker, record.OfferedAsset)
		if err != nil {
			return nil, errors.Wrap(err, "taker account")
		}
	}
	if err := release(ctx, db, h.bucket, h.ledger, record, msg.Escrow, msg.Vault, dest); err != nil {
		return nil, err
	}

	barter.GetLogger(ctx).Debug("escrow fulfilled", "escrow", msg.Escrow, "taker", msg.Taker)
	return &barter.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h FulfillHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*FulfillMsg, *Escrow, error) {
	var msg FulfillMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	record, err := load(db, h.bucket, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	if !record.Owner.Equals(msg.Maker) {
		return nil, nil, errors.Wrap(errors.ErrDerivationMismatch, "maker")
	}
	if err := checkSlots(record, msg.Escrow, msg.Vault); err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, msg.Taker) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "taker signature missing")
	}

	if record.RequestedAmount > 0 {
		pay, err := h.ledger.Account(db, msg.Payment)
		if err != nil {
			return nil, nil, errors.Wrap(err, "payment")
		}
		if !pay.Asset.Equals(record.RequestedAsset) {
			return nil, nil, errors.Wrap(errors.ErrInvalidInput, "payment holds another asset")
		}
		if !pay.Authority.Equals(msg.Taker) {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "payment belongs to somebody else")
		}
		if pay.Amount < record.RequestedAmount {
			return nil, nil, errors.Wrapf(errors.ErrInsufficientFunds, "has %d, needs %d", pay.Amount, record.RequestedAmount)
		}
	}
	if len(msg.Destination) != 0 {
		if err := checkDestination(db, h.ledger, msg.Destination, record.OfferedAsset, msg.Taker); err != nil {
			return nil, nil, err
		}
	}

	// The taker pays for every receiving account that must be opened.
	owners := [][2]barter.Address{{record.Owner, record.RequestedAsset}}
	if len(msg.Destination) == 0 {
		owners = append(owners, [2]barter.Address{msg.Taker, record.OfferedAsset})
	}
	opened, err := missingAccounts(db, h.ledger, owners...)
	if err != nil {
		return nil, nil, err
	}
	if err := h.ledger.CheckDeposits(db, msg.Taker, opened, msg.Payment, record.RequestedAmount); err != nil {
		return nil, nil, errors.Wrap(err, "deposits")
	}
	return &msg, record, nil
}

// CancelHandler withdraws offers.
type CancelHandler struct {
	auth   x.Authenticator
	bucket orm.Bucket
	ledger Ledger
}

var _ barter.Handler = CancelHandler{}

// Check verifies the offer can be cancelled and returns the cost of
// executing it.
func (h CancelHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: cancelCost}, nil
}

// Deliver returns the vault balance to the maker and removes the offer.
func (h CancelHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	dest := msg.Destination
	if len(dest) == 0 {
		maker := ledger.TxSigner(h.auth, record.Owner)
		dest, err = h.ledger.OpenAssociated(ctx, db, maker, record.Owner, record.OfferedAsset)
		if err != nil {
			return nil, errors.Wrap(err, "maker account")
		}
	}
	if err := release(ctx, db, h.bucket, h.ledger, record, msg.Escrow, msg.Vault, dest); err != nil {
		return nil, err
	}

	barter.GetLogger(ctx).Debug("escrow cancelled", "escrow", msg.Escrow)
	return &barter.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CancelHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*CancelMsg, *Escrow, error) {
	var msg CancelMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	record, err := load(db, h.bucket, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	if !record.Owner.Equals(msg.Maker) || !h.auth.HasAddress(ctx, record.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the maker can cancel")
	}
	if err := checkSlots(record, msg.Escrow, msg.Vault); err != nil {
		return nil, nil, err
	}
	if len(msg.Destination) != 0 {
		if err := checkDestination(db, h.ledger, msg.Destination, record.OfferedAsset, record.Owner); err != nil {
			return nil, nil, err
		}
		return &msg, record, nil
	}

	opened, err := missingAccounts(db, h.ledger, [2]barter.Address{record.Owner, record.OfferedAsset})
	if err != nil {
		return nil, nil, err
	}
	if err := h.ledger.CheckDeposits(db, record.Owner, opened, nil, 0); err != nil {
		return nil, nil, errors.Wrap(err, "deposits")
	}
	return &msg, record, nil
}

func load(db barter.ReadOnlyKVStore, bucket orm.Bucket, key barter.Address) (*Escrow, error) {
	obj, err := bucket.One(db, key)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load escrow from the store")
	}
	return AsEscrow(obj), nil
}

// checkSlots recomputes the record and vault addresses from the stored
// seeds and compares them with the supplied ones.
func checkSlots(record *Escrow, escrow, vault barter.Address) error {
	addr, err := record.Derivation().Address()
	if err != nil || !addr.Equals(escrow) {
		return errors.Wrap(errors.ErrDerivationMismatch, "escrow")
	}
	vd, err := VaultDerivation(escrow)
	if err != nil {
		return err
	}
	if !vd.MustAddress().Equals(vault) {
		return errors.Wrap(errors.ErrDerivationMismatch, "vault")
	}
	return nil
}

// checkDestination makes sure an explicitly given receiving account holds
// the right asset and belongs to the receiver.
func checkDestination(db barter.ReadOnlyKVStore, l Ledger, dest, asset, owner barter.Address) error {
	acct, err := l.Account(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !acct.Asset.Equals(asset) {
		return errors.Wrap(errors.ErrInvalidInput, "destination holds another asset")
	}
	if !acct.Authority.Equals(owner) {
		return errors.Wrap(errors.ErrInvalidInput, "destination belongs to somebody else")
	}
	return nil
}

// missingAccounts counts the distinct associated accounts of the given
// (owner, asset) pairs that do not exist yet.
func missingAccounts(db barter.ReadOnlyKVStore, l Ledger, owners ...[2]barter.Address) (uint64, error) {
	var n uint64
	seen := make(map[string]bool, len(owners))
	for _, o := range owners {
		addr, err := ledger.AssociatedAddress(o[0], o[1])
		if err != nil {
			return 0, err
		}
		if seen[string(addr)] {
			continue
		}
		seen[string(addr)] = true
		has, err := l.HasAccount(db, addr)
		if err != nil {
			return 0, err
		}
		if !has {
			n++
		}
	}
	return n, nil
}

// release empties the vault into dest, closes it and removes the record.
// Both deposits go back to the maker. Only the record derivation can sign
// for the vault.
func release(ctx context.Context, db barter.KVStore, bucket orm.Bucket, l Ledger, record *Escrow, escrow, vault, dest barter.Address) error {
	custody := ledger.DerivedSigner(record.Derivation())

	amount, err := l.Balance(db, vault)
	if err != nil {
		return errors.Wrap(err, "vault")
	}
	if amount > 0 {
		if err := l.Transfer(ctx, db, custody, vault, dest, amount); err != nil {
			return errors.Wrap(err, "release vault")
		}
	}
	if err := l.CloseAccount(ctx, db, custody, vault, record.Owner); err != nil {
		return errors.Wrap(err, "close vault")
	}
	if err := bucket.Delete(db, escrow); err != nil {
		return errors.Wrap(err, "cannot delete escrow")
	}
	conf, err := ledger.LoadConfiguration(db)
	if err != nil {
		return err
	}
	return l.RefundDeposit(ctx, db, record.Owner, conf.Deposit)
}
