package ledger

import (
	amino "github.com/tendermint/go-amino"
)

// RegisterCodec registers all messages of this package so they can travel
// inside a transaction.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(&CreateAssetMsg{}, "barter/ledger/CreateAssetMsg", nil)
	cdc.RegisterConcrete(&MintMsg{}, "barter/ledger/MintMsg", nil)
	cdc.RegisterConcrete(&OpenAccountMsg{}, "barter/ledger/OpenAccountMsg", nil)
	cdc.RegisterConcrete(&TransferMsg{}, "barter/ledger/TransferMsg", nil)
	cdc.RegisterConcrete(&CloseAccountMsg{}, "barter/ledger/CloseAccountMsg", nil)
}
