package ledger

import (
	"context"
	"math"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/orm"
)

// Controller is the only way other extensions should touch balances.
type Controller struct {
	assets   orm.Bucket
	accounts orm.Bucket
}

// NewController returns a controller over the ledger buckets.
func NewController() Controller {
	return Controller{
		assets:   NewAssetBucket(),
		accounts: NewAccountBucket(),
	}
}

// Asset returns the asset with given ID or ErrNotFound.
func (c Controller) Asset(db barter.ReadOnlyKVStore, id barter.Address) (*Asset, error) {
	obj, err := c.assets.One(db, id)
	if err != nil {
		return nil, err
	}
	return AsAsset(obj), nil
}

// Account returns the account at given address or ErrNotFound.
func (c Controller) Account(db barter.ReadOnlyKVStore, addr barter.Address) (*Account, error) {
	obj, err := c.accounts.One(db, addr)
	if err != nil {
		return nil, err
	}
	return AsAccount(obj), nil
}

// Balance returns the amount held by the account at given address.
func (c Controller) Balance(db barter.ReadOnlyKVStore, addr barter.Address) (uint64, error) {
	acct, err := c.Account(db, addr)
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

// HasAccount returns true if an account exists at given address.
func (c Controller) HasAccount(db barter.ReadOnlyKVStore, addr barter.Address) (bool, error) {
	return c.accounts.Has(db, addr)
}

// CreateAsset registers a new asset with a zero supply and returns its ID.
func (c Controller) CreateAsset(db barter.KVStore, ticker string, issuer barter.Address) (barter.Address, error) {
	id, err := AssetID(ticker)
	if err != nil {
		return nil, err
	}
	asset := &Asset{Ticker: ticker, Issuer: issuer}
	if err := c.assets.Create(db, orm.NewSimpleObj(id, asset)); err != nil {
		return nil, errors.Wrap(err, "asset")
	}
	return id, nil
}

// Mint creates amount of asset out of thin air and credits the destination
// account. Only the asset issuer can mint.
func (c Controller) Mint(ctx context.Context, db barter.KVStore, issuer Signer, assetID, dest barter.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero mint")
	}
	asset, err := c.Asset(db, assetID)
	if err != nil {
		return err
	}
	who, err := issuer.Resolve(ctx)
	if err != nil {
		return err
	}
	if !who.Equals(asset.Issuer) {
		return errors.Wrap(errors.ErrUnauthorized, "not the issuer")
	}
	if asset.Supply > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	asset.Supply += amount
	if err := c.assets.Save(db, orm.NewSimpleObj(assetID, asset)); err != nil {
		return err
	}
	return c.credit(db, dest, assetID, amount)
}

// OpenAccount creates an empty account at addr controlled by authority.
// The payer is charged the storage deposit. It fails with ErrDuplicate if
// the account exists.
func (c Controller) OpenAccount(ctx context.Context, db barter.KVStore, payer Signer, addr, assetID, authority barter.Address) error {
	if _, err := c.Asset(db, assetID); err != nil {
		return err
	}
	switch has, err := c.accounts.Has(db, addr); {
	case err != nil:
		return err
	case has:
		return errors.Wrapf(errors.ErrDuplicate, "account %s", addr)
	}
	deposit, err := c.PayDeposit(ctx, db, payer)
	if err != nil {
		return errors.Wrap(err, "deposit")
	}
	acct := &Account{Asset: assetID, Authority: authority, Deposit: deposit}
	if err := c.accounts.Save(db, orm.NewSimpleObj(addr, acct)); err != nil {
		return err
	}
	barter.GetLogger(ctx).Debug("account opened", "account", addr, "authority", authority)
	return nil
}

// OpenAssociated makes sure the associated account of owner for given
// asset exists and returns its address. The payer is charged only if the
// account had to be created.
func (c Controller) OpenAssociated(ctx context.Context, db barter.KVStore, payer Signer, owner, assetID barter.Address) (barter.Address, error) {
	addr, err := AssociatedAddress(owner, assetID)
	if err != nil {
		return nil, err
	}
	switch has, err := c.accounts.Has(db, addr); {
	case err != nil:
		return nil, err
	case has:
		return addr, nil
	}
	if err := c.OpenAccount(ctx, db, payer, addr, assetID, owner); err != nil {
		return nil, err
	}
	return addr, nil
}

// Transfer moves amount from src to dest. Both accounts must exist and
// hold the same asset. The signer must resolve to the src authority.
func (c Controller) Transfer(ctx context.Context, db barter.KVStore, from Signer, src, dest barter.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero transfer")
	}
	sender, err := c.Account(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	recipient, err := c.Account(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !sender.Asset.Equals(recipient.Asset) {
		return errors.Wrap(errors.ErrInvalidInput, "asset mismatch")
	}
	if err := authorize(ctx, from, sender); err != nil {
		return err
	}
	if sender.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "has %d, needs %d", sender.Amount, amount)
	}
	sender.Amount -= amount
	if err := c.accounts.Save(db, orm.NewSimpleObj(src, sender)); err != nil {
		return err
	}
	return c.credit(db, dest, recipient.Asset, amount)
}

// CloseAccount removes an empty account and refunds its deposit to the
// associated deposit account of refundTo.
func (c Controller) CloseAccount(ctx context.Context, db barter.KVStore, authority Signer, addr, refundTo barter.Address) error {
	acct, err := c.Account(db, addr)
	if err != nil {
		return err
	}
	if err := authorize(ctx, authority, acct); err != nil {
		return err
	}
	if acct.Amount != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "balance %d", acct.Amount)
	}
	if err := c.accounts.Delete(db, addr); err != nil {
		return err
	}
	barter.GetLogger(ctx).Debug("account closed", "account", addr)
	return c.RefundDeposit(ctx, db, refundTo, acct.Deposit)
}

// PayDeposit moves the configured storage deposit from the payer's
// associated deposit account to the deposit pool. It returns the amount
// charged, zero when no deposit is configured.
func (c Controller) PayDeposit(ctx context.Context, db barter.KVStore, payer Signer) (uint64, error) {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return 0, err
	}
	if conf.Deposit == 0 {
		return 0, nil
	}
	who, err := payer.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	src, err := AssociatedAddress(who, conf.DepositAsset)
	if err != nil {
		return 0, err
	}
	switch has, err := c.accounts.Has(db, src); {
	case err != nil:
		return 0, err
	case !has:
		return 0, errors.Wrapf(errors.ErrInsufficientFunds, "no deposit account %s", src)
	}
	pool, err := c.depositPool(db, conf.DepositAsset)
	if err != nil {
		return 0, err
	}
	if err := c.Transfer(ctx, db, payer, src, pool, conf.Deposit); err != nil {
		return 0, err
	}
	return conf.Deposit, nil
}

// CheckDeposits fails with ErrInsufficientFunds unless payer can pay n
// storage deposits. When debit is the payer's deposit account, amount is
// spent from it in the same transaction and must be covered as well.
func (c Controller) CheckDeposits(db barter.ReadOnlyKVStore, payer barter.Address, n uint64, debit barter.Address, amount uint64) error {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return err
	}
	if conf.Deposit == 0 || n == 0 {
		return nil
	}
	if conf.Deposit > math.MaxUint64/n {
		return errors.Wrap(errors.ErrOverflow, "deposits")
	}
	need := conf.Deposit * n
	src, err := AssociatedAddress(payer, conf.DepositAsset)
	if err != nil {
		return err
	}
	if src.Equals(debit) {
		if need > math.MaxUint64-amount {
			return errors.Wrap(errors.ErrOverflow, "deposits")
		}
		need += amount
	}
	var have uint64
	switch acct, err := c.Account(db, src); {
	case errors.ErrNotFound.Is(err):
	case err != nil:
		return err
	default:
		have = acct.Amount
	}
	if have < need {
		return errors.Wrapf(errors.ErrInsufficientFunds, "deposit account has %d, needs %d", have, need)
	}
	return nil
}

// RefundDeposit returns amount from the deposit pool to the associated
// deposit account of recipient, creating it if needed.
func (c Controller) RefundDeposit(ctx context.Context, db barter.KVStore, recipient barter.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return err
	}
	dest, err := AssociatedAddress(recipient, conf.DepositAsset)
	if err != nil {
		return err
	}
	if err := c.ensureAccount(db, dest, conf.DepositAsset, recipient); err != nil {
		return err
	}
	pool, err := c.depositPool(db, conf.DepositAsset)
	if err != nil {
		return err
	}
	return c.Transfer(ctx, db, DerivedSigner(DepositPoolDerivation()), pool, dest, amount)
}

// depositPool returns the pool address, creating the account on first use.
func (c Controller) depositPool(db barter.KVStore, assetID barter.Address) (barter.Address, error) {
	pool := DepositPoolDerivation().MustAddress()
	if err := c.ensureAccount(db, pool, assetID, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// ensureAccount creates an account without charging a deposit. It is used
// only for accounts the ledger itself needs to credit.
func (c Controller) ensureAccount(db barter.KVStore, addr, assetID, authority barter.Address) error {
	switch has, err := c.accounts.Has(db, addr); {
	case err != nil:
		return err
	case has:
		return nil
	}
	acct := &Account{Asset: assetID, Authority: authority}
	return c.accounts.Save(db, orm.NewSimpleObj(addr, acct))
}

// credit adds amount to an existing account of the given asset.
func (c Controller) credit(db barter.KVStore, addr, assetID barter.Address, amount uint64) error {
	acct, err := c.Account(db, addr)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !acct.Asset.Equals(assetID) {
		return errors.Wrap(errors.ErrInvalidInput, "asset mismatch")
	}
	if acct.Amount > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "balance")
	}
	acct.Amount += amount
	return c.accounts.Save(db, orm.NewSimpleObj(addr, acct))
}

// authorize is the custody check. The signer must resolve to the exact
// authority stored in the account.
func authorize(ctx context.Context, signer Signer, acct *Account) error {
	who, err := signer.Resolve(ctx)
	if err != nil {
		return err
	}
	if !who.Equals(acct.Authority) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s is not the account authority", who)
	}
	return nil
}
