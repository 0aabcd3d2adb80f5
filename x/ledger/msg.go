package ledger

import (
	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
)

const (
	pathCreateAsset  = "ledger/create_asset"
	pathMint         = "ledger/mint"
	pathOpenAccount  = "ledger/open_account"
	pathTransfer     = "ledger/transfer"
	pathCloseAccount = "ledger/close_account"
)

// CreateAssetMsg registers a new asset. The issuer is the only one allowed
// to mint it.
type CreateAssetMsg struct {
	Ticker string         `json:"ticker"`
	Issuer barter.Address `json:"issuer"`
}

var _ barter.Msg = (*CreateAssetMsg)(nil)

// Path returns the routing path for this message
func (CreateAssetMsg) Path() string {
	return pathCreateAsset
}

// Validate makes sure that this is sensible
func (m *CreateAssetMsg) Validate() error {
	if !isTicker(m.Ticker) {
		return errors.Wrapf(errors.ErrInvalidMsg, "ticker %q", m.Ticker)
	}
	return errors.Wrap(m.Issuer.Validate(), "issuer")
}

// MintMsg issues new units of an asset into the destination account.
type MintMsg struct {
	Asset       barter.Address `json:"asset"`
	Destination barter.Address `json:"destination"`
	Amount      uint64         `json:"amount"`
}

var _ barter.Msg = (*MintMsg)(nil)

// Path returns the routing path for this message
func (MintMsg) Path() string {
	return pathMint
}

// Validate makes sure that this is sensible
func (m *MintMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero mint")
	}
	if err := m.Asset.Validate(); err != nil {
		return errors.Wrap(err, "asset")
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}

// OpenAccountMsg opens the associated account of owner for an asset. The
// payer is charged the deposit and defaults to the owner.
type OpenAccountMsg struct {
	Owner barter.Address `json:"owner"`
	Asset barter.Address `json:"asset"`
	Payer barter.Address `json:"payer,omitempty"`
}

var _ barter.Msg = (*OpenAccountMsg)(nil)

// Path returns the routing path for this message
func (OpenAccountMsg) Path() string {
	return pathOpenAccount
}

// Validate makes sure that this is sensible
func (m *OpenAccountMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.Asset.Validate(); err != nil {
		return errors.Wrap(err, "asset")
	}
	if len(m.Payer) != 0 {
		return errors.Wrap(m.Payer.Validate(), "payer")
	}
	return nil
}

// TransferMsg moves funds between two accounts of the same asset.
type TransferMsg struct {
	Source      barter.Address `json:"source"`
	Destination barter.Address `json:"destination"`
	Amount      uint64         `json:"amount"`
}

var _ barter.Msg = (*TransferMsg)(nil)

// Path returns the routing path for this message
func (TransferMsg) Path() string {
	return pathTransfer
}

// Validate makes sure that this is sensible
func (m *TransferMsg) Validate() error {
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero transfer")
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}

// CloseAccountMsg removes an empty account. The deposit goes to RefundTo,
// which defaults to the account authority.
type CloseAccountMsg struct {
	Account  barter.Address `json:"account"`
	RefundTo barter.Address `json:"refund_to,omitempty"`
}

var _ barter.Msg = (*CloseAccountMsg)(nil)

// Path returns the routing path for this message
func (CloseAccountMsg) Path() string {
	return pathCloseAccount
}

// Validate makes sure that this is sensible
func (m *CloseAccountMsg) Validate() error {
	if err := m.Account.Validate(); err != nil {
		return errors.Wrap(err, "account")
	}
	if len(m.RefundTo) != 0 {
		return errors.Wrap(m.RefundTo.Validate(), "refund to")
	}
	return nil
}
