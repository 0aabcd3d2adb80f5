package escrow

import (
	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
)

const (
	pathOpen    = "escrow/open"
	pathFulfill = "escrow/fulfill"
	pathCancel  = "escrow/cancel"
)

// OpenMsg creates an offer. Escrow and Vault must be the addresses derived
// from the maker and the nonce.
type OpenMsg struct {
	Maker          barter.Address `json:"maker"`
	OfferedAsset   barter.Address `json:"offered_asset"`
	RequestedAsset barter.Address `json:"requested_asset"`
	// Source is the maker account the offered amount is taken from.
	Source          barter.Address `json:"source"`
	Escrow          barter.Address `json:"escrow"`
	Vault           barter.Address `json:"vault"`
	Nonce           uint64         `json:"nonce"`
	OfferedAmount   uint64         `json:"offered_amount"`
	RequestedAmount uint64         `json:"requested_amount"`
}

var _ barter.Msg = (*OpenMsg)(nil)

// Path returns the routing path for this message
func (OpenMsg) Path() string {
	return pathOpen
}

// Validate makes sure that this is sensible
func (m *OpenMsg) Validate() error {
	if m.OfferedAmount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "nothing offered")
	}
	return validateAddresses(
		addressField{"maker", m.Maker},
		addressField{"offered asset", m.OfferedAsset},
		addressField{"requested asset", m.RequestedAsset},
		addressField{"source", m.Source},
		addressField{"escrow", m.Escrow},
		addressField{"vault", m.Vault},
	)
}

// FulfillMsg takes an offer. The taker pays from Payment and receives the
// vault balance in Destination, which defaults to the taker associated
// account.
type FulfillMsg struct {
	Escrow      barter.Address `json:"escrow"`
	Vault       barter.Address `json:"vault"`
	Maker       barter.Address `json:"maker"`
	Taker       barter.Address `json:"taker"`
	Payment     barter.Address `json:"payment"`
	Destination barter.Address `json:"destination,omitempty"`
}

var _ barter.Msg = (*FulfillMsg)(nil)

// Path returns the routing path for this message
func (FulfillMsg) Path() string {
	return pathFulfill
}

// Validate makes sure that this is sensible
func (m *FulfillMsg) Validate() error {
	err := validateAddresses(
		addressField{"escrow", m.Escrow},
		addressField{"vault", m.Vault},
		addressField{"maker", m.Maker},
		addressField{"taker", m.Taker},
		addressField{"payment", m.Payment},
	)
	if err != nil {
		return err
	}
	if len(m.Destination) != 0 {
		return errors.Wrap(m.Destination.Validate(), "destination")
	}
	return nil
}

// CancelMsg withdraws an offer. The vault balance goes to Destination,
// which defaults to the maker associated account.
type CancelMsg struct {
	Escrow      barter.Address `json:"escrow"`
	Vault       barter.Address `json:"vault"`
	Maker       barter.Address `json:"maker"`
	Destination barter.Address `json:"destination,omitempty"`
}

var _ barter.Msg = (*CancelMsg)(nil)

// Path returns the routing path for this message
func (CancelMsg) Path() string {
	return pathCancel
}

// Validate makes sure that this is sensible
func (m *CancelMsg) Validate() error {
	err := validateAddresses(
		addressField{"escrow", m.Escrow},
		addressField{"vault", m.Vault},
		addressField{"maker", m.Maker},
	)
	if err != nil {
		return err
	}
	if len(m.Destination) != 0 {
		return errors.Wrap(m.Destination.Validate(), "destination")
	}
	return nil
}

type addressField struct {
	name string
	addr barter.Address
}

// validateAddresses reports the first invalid field, in the given order.
func validateAddresses(fields ...addressField) error {
	for _, f := range fields {
		if err := f.addr.Validate(); err != nil {
			return errors.Wrap(err, f.name)
		}
	}
	return nil
}
