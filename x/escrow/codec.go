package escrow

import (
	amino "github.com/tendermint/go-amino"
)

// RegisterCodec registers all messages of this package so they can travel
// inside a transaction.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(&OpenMsg{}, "barter/escrow/OpenMsg", nil)
	cdc.RegisterConcrete(&FulfillMsg{}, "barter/escrow/FulfillMsg", nil)
	cdc.RegisterConcrete(&CancelMsg{}, "barter/escrow/CancelMsg", nil)
}
