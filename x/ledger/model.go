package ledger

import (
	"regexp"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/orm"
	amino "github.com/tendermint/go-amino"
)

// Namespace is used by all addresses derived by this package.
const Namespace = "ledger"

var (
	cdc = amino.NewCodec()

	isTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,9}$`).MatchString

	assetSeed   = []byte("asset")
	depositSeed = []byte("deposits")
)

// AssetID returns the address identifying the asset with given ticker.
func AssetID(ticker string) (barter.Address, error) {
	if !isTicker(ticker) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "ticker %q", ticker)
	}
	addr, _, err := barter.DeriveAddress(Namespace, assetSeed, []byte(ticker))
	return addr, err
}

// AssociatedDerivation returns the derivation of the default account of
// owner for given asset.
func AssociatedDerivation(owner, asset barter.Address) (barter.Derivation, error) {
	return barter.FindDerivation(Namespace, owner, asset)
}

// AssociatedAddress returns the address of the default account of owner
// for given asset.
func AssociatedAddress(owner, asset barter.Address) (barter.Address, error) {
	d, err := AssociatedDerivation(owner, asset)
	if err != nil {
		return nil, err
	}
	return d.MustAddress(), nil
}

// DepositPoolDerivation returns the derivation of the account that holds
// all storage deposits. The pool account is its own authority.
func DepositPoolDerivation() barter.Derivation {
	d, err := barter.FindDerivation(Namespace, depositSeed)
	if err != nil {
		panic(err)
	}
	return d
}

// Asset describes a fungible asset.
type Asset struct {
	Ticker string         `json:"ticker"`
	Issuer barter.Address `json:"issuer"`
	Supply uint64         `json:"supply"`
}

var _ orm.Model = (*Asset)(nil)

// Marshal implements orm.Persistent
func (a *Asset) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

// Unmarshal implements orm.Persistent
func (a *Asset) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, a)
}

// Validate implements orm.Model
func (a *Asset) Validate() error {
	if !isTicker(a.Ticker) {
		return errors.Wrapf(errors.ErrInvalidModel, "ticker %q", a.Ticker)
	}
	if err := a.Issuer.Validate(); err != nil {
		return errors.Wrap(err, "issuer")
	}
	return nil
}

// Account holds the balance of a single asset.
type Account struct {
	Asset     barter.Address `json:"asset"`
	Authority barter.Address `json:"authority"`
	Amount    uint64         `json:"amount"`
	// Deposit is the storage deposit locked when the account was opened.
	Deposit uint64 `json:"deposit"`
}

var _ orm.Model = (*Account)(nil)

// Marshal implements orm.Persistent
func (a *Account) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

// Unmarshal implements orm.Persistent
func (a *Account) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, a)
}

// Validate implements orm.Model
func (a *Account) Validate() error {
	if err := a.Asset.Validate(); err != nil {
		return errors.Wrap(err, "asset")
	}
	if err := a.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	return nil
}

// Configuration is the chain wide ledger setup.
type Configuration struct {
	// Owner if set is the only one allowed to create assets.
	Owner barter.Address `json:"owner"`
	// DepositAsset is the asset in which storage deposits are paid.
	DepositAsset barter.Address `json:"deposit_asset"`
	// Deposit is charged for every account and escrow opened.
	Deposit uint64 `json:"deposit"`
}

var _ orm.Model = (*Configuration)(nil)

// Marshal implements orm.Persistent
func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal implements orm.Persistent
func (c *Configuration) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, c)
}

// Validate implements orm.Model
func (c *Configuration) Validate() error {
	if len(c.Owner) != 0 {
		if err := c.Owner.Validate(); err != nil {
			return errors.Wrap(err, "owner")
		}
	}
	if c.Deposit > 0 {
		if err := c.DepositAsset.Validate(); err != nil {
			return errors.Wrap(err, "deposit asset")
		}
	}
	return nil
}

// AsAsset will safely type-cast any value from the asset bucket.
func AsAsset(obj orm.Object) *Asset {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Asset)
}

// AsAccount will safely type-cast any value from the account bucket.
func AsAccount(obj orm.Object) *Account {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Account)
}

// NewAssetBucket returns a bucket of assets keyed by their ID.
func NewAssetBucket() orm.Bucket {
	return orm.NewBucket("assets", orm.NewSimpleObj(nil, &Asset{}))
}

// NewAccountBucket returns a bucket of accounts keyed by their address,
// indexed by authority.
func NewAccountBucket() orm.Bucket {
	return orm.NewBucket("accounts", orm.NewSimpleObj(nil, &Account{})).
		WithIndex("authority", authorityIndex, false)
}

func authorityIndex(obj orm.Object) ([]byte, error) {
	acct := AsAccount(obj)
	if acct == nil {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", obj.Value())
	}
	return acct.Authority, nil
}

const configKey = "ledger"

func newConfigBucket() orm.Bucket {
	return orm.NewBucket("ledger_cfg", orm.NewSimpleObj(nil, &Configuration{}))
}

// LoadConfiguration returns the stored configuration, or an empty one when
// none was set. An empty configuration charges no deposits.
func LoadConfiguration(db barter.ReadOnlyKVStore) (*Configuration, error) {
	obj, err := newConfigBucket().Get(db, []byte(configKey))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return &Configuration{}, nil
	}
	return obj.Value().(*Configuration), nil
}

// SaveConfiguration stores the configuration.
func SaveConfiguration(db barter.KVStore, conf *Configuration) error {
	return newConfigBucket().Save(db, orm.NewSimpleObj([]byte(configKey), conf))
}
