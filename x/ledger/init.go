package ledger

import (
	"math"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/orm"
)

const optKey = "ledger"

// GenesisAsset is an asset created at genesis.
type GenesisAsset struct {
	Ticker string         `json:"ticker"`
	Issuer barter.Address `json:"issuer"`
}

// GenesisAccount credits the associated account of owner with amount of
// the asset with given ticker. The amount counts towards the supply.
type GenesisAccount struct {
	Owner  barter.Address `json:"owner"`
	Ticker string         `json:"ticker"`
	Amount uint64         `json:"amount"`
}

// GenesisConfig is the json form of Configuration, the deposit asset is
// referenced by ticker.
type GenesisConfig struct {
	Owner        barter.Address `json:"owner"`
	DepositAsset string         `json:"deposit_asset"`
	Deposit      uint64         `json:"deposit"`
}

// Genesis is read from the "ledger" key of the app state.
type Genesis struct {
	Config   *GenesisConfig   `json:"config"`
	Assets   []GenesisAsset   `json:"assets"`
	Accounts []GenesisAccount `json:"accounts"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ barter.Initializer = Initializer{}

// FromGenesis will parse initial assets, accounts and the configuration
// and save them to the database.
func (Initializer) FromGenesis(opts barter.Options, kv barter.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return err
	}
	ctrl := NewController()
	for i, a := range gen.Assets {
		if _, err := ctrl.CreateAsset(kv, a.Ticker, a.Issuer); err != nil {
			return errors.Wrapf(err, "asset %d", i)
		}
	}
	for i, a := range gen.Accounts {
		if err := genesisAccount(kv, ctrl, a); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	if gen.Config == nil {
		return nil
	}
	conf := Configuration{
		Owner:   gen.Config.Owner,
		Deposit: gen.Config.Deposit,
	}
	if gen.Config.DepositAsset != "" {
		id, err := AssetID(gen.Config.DepositAsset)
		if err != nil {
			return errors.Wrap(err, "deposit asset")
		}
		if _, err := ctrl.Asset(kv, id); err != nil {
			return errors.Wrap(err, "deposit asset")
		}
		conf.DepositAsset = id
	}
	return SaveConfiguration(kv, &conf)
}

func genesisAccount(kv barter.KVStore, ctrl Controller, a GenesisAccount) error {
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	assetID, err := AssetID(a.Ticker)
	if err != nil {
		return err
	}
	asset, err := ctrl.Asset(kv, assetID)
	if err != nil {
		return err
	}
	addr, err := AssociatedAddress(a.Owner, assetID)
	if err != nil {
		return err
	}
	if err := ctrl.ensureAccount(kv, addr, assetID, a.Owner); err != nil {
		return err
	}
	if a.Amount == 0 {
		return nil
	}
	if asset.Supply > math.MaxUint64-a.Amount {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	if err := ctrl.credit(kv, addr, assetID, a.Amount); err != nil {
		return err
	}
	asset.Supply += a.Amount
	return ctrl.assets.Save(kv, orm.NewSimpleObj(assetID, asset))
}
