package app

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/commands/server"
	"github.com/iov-one/barter/crypto"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/ledger"
	abci "github.com/tendermint/tendermint/abci/types"
)

const (
	defaultTicker  = "BRT"
	defaultSupply  = 1000000000
	defaultDeposit = 10
)

// GenInitOptions will produce the app state for a dev chain: one asset,
// used to pay storage deposits, fully owned by one account that also
// controls the chain configuration.
//
//   barterd init [ticker] [address]
//
// When no address is given a new key is generated and printed.
func GenInitOptions(args []string) (json.RawMessage, error) {
	ticker := defaultTicker
	if len(args) > 0 {
		ticker = args[0]
	}

	var addr barter.Address
	if len(args) > 1 {
		var err error
		if addr, err = barter.ParseAddress(args[1]); err != nil {
			return nil, err
		}
	} else {
		// if no address provided, auto-generate one
		// and print out the keys
		a, keys, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		addr = a
		fmt.Println(keys)
	}

	gen := ledger.Genesis{
		Config: &ledger.GenesisConfig{
			Owner:        addr,
			DepositAsset: ticker,
			Deposit:      defaultDeposit,
		},
		Assets: []ledger.GenesisAsset{
			{Ticker: ticker, Issuer: addr},
		},
		Accounts: []ledger.GenesisAccount{
			{Owner: addr, Ticker: ticker, Amount: defaultSupply},
		},
	}
	// validate what we produce before it lands in the genesis file
	state, err := json.Marshal(map[string]interface{}{"ledger": gen})
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	var opts barter.Options
	if err := json.Unmarshal(state, &opts); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if err := server.ValidateGenesisState(Initializers(), opts); err != nil {
		return nil, err
	}
	return json.MarshalIndent(opts, "", "  ")
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(options *server.Options) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if options.Home != "" {
		dbPath = filepath.Join(options.Home, "barter.db")
	}

	stack := Stack(options.Registerer)
	application, err := Application("barter", stack, TxDecoder, dbPath, options.Debug)
	if err != nil {
		return nil, err
	}
	application.WithInit(Initializers())
	application.WithLogger(options.Logger)
	return application, nil
}

type output struct {
	Address barter.Address     `json:"address"`
	Pubkey  *crypto.PublicKey  `json:"pub_key"`
	Secret  *crypto.PrivateKey `json:"secret"`
}

// GenerateKey returns the address of a new key, along with a json
// representation of the keys.
func GenerateKey() (barter.Address, string, error) {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Address: addr, Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return addr, string(keys), nil
}
