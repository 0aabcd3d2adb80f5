package ledger

import (
	"context"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x"
)

const (
	createAssetCost  int64 = 100
	mintCost         int64 = 50
	openAccountCost  int64 = 50
	transferCost     int64 = 100
	closeAccountCost int64 = 0
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r barter.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&CreateAssetMsg{}, CreateAssetHandler{auth: auth, ctrl: ctrl})
	r.Handle(&MintMsg{}, MintHandler{auth: auth, ctrl: ctrl})
	r.Handle(&OpenAccountMsg{}, OpenAccountHandler{auth: auth, ctrl: ctrl})
	r.Handle(&TransferMsg{}, TransferHandler{auth: auth, ctrl: ctrl})
	r.Handle(&CloseAccountMsg{}, CloseAccountHandler{auth: auth, ctrl: ctrl})
}

// RegisterQuery registers assets under "/assets" and accounts under
// "/accounts", with the authority index at "/accounts/authority".
func RegisterQuery(qr barter.QueryRouter) {
	NewAssetBucket().Register("assets", qr)
	NewAccountBucket().Register("accounts", qr)
}

// CreateAssetHandler registers new assets.
type CreateAssetHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ barter.Handler = CreateAssetHandler{}

func (h CreateAssetHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: createAssetCost}, nil
}

func (h CreateAssetHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.ctrl.CreateAsset(db, msg.Ticker, msg.Issuer)
	if err != nil {
		return nil, err
	}
	return &barter.DeliverResult{Data: id}, nil
}

// validate requires the configuration owner signature, or the issuer's
// when no owner is configured.
func (h CreateAssetHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*CreateAssetMsg, error) {
	var msg CreateAssetMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	required := msg.Issuer
	if len(conf.Owner) != 0 {
		required = conf.Owner
	}
	if !h.auth.HasAddress(ctx, required) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "asset creation not signed")
	}
	return &msg, nil
}

// MintHandler issues new units of an asset.
type MintHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ barter.Handler = MintHandler{}

func (h MintHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	var msg MintMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	asset, err := h.ctrl.Asset(db, msg.Asset)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, asset.Issuer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "not the issuer")
	}
	return &barter.CheckResult{GasAllocated: mintCost}, nil
}

func (h MintHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	var msg MintMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	asset, err := h.ctrl.Asset(db, msg.Asset)
	if err != nil {
		return nil, err
	}
	issuer := TxSigner(h.auth, asset.Issuer)
	if err := h.ctrl.Mint(ctx, db, issuer, msg.Asset, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &barter.DeliverResult{}, nil
}

// OpenAccountHandler opens associated accounts.
type OpenAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ barter.Handler = OpenAccountHandler{}

func (h OpenAccountHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.Asset(db, msg.Asset); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: openAccountCost}, nil
}

func (h OpenAccountHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	payer := msg.Payer
	if len(payer) == 0 {
		payer = msg.Owner
	}
	addr, err := h.ctrl.OpenAssociated(ctx, db, TxSigner(h.auth, payer), msg.Owner, msg.Asset)
	if err != nil {
		return nil, err
	}
	return &barter.DeliverResult{Data: addr}, nil
}

func (h OpenAccountHandler) validate(ctx context.Context, tx barter.Tx) (*OpenAccountMsg, error) {
	var msg OpenAccountMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	payer := msg.Payer
	if len(payer) == 0 {
		payer = msg.Owner
	}
	if !h.auth.HasAddress(ctx, payer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "payer signature missing")
	}
	return &msg, nil
}

// TransferHandler moves funds between accounts. Only accounts controlled by
// a key can be debited this way.
type TransferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ barter.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	msg, src, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if src.Amount < msg.Amount {
		return nil, errors.Wrapf(errors.ErrInsufficientFunds, "has %d, needs %d", src.Amount, msg.Amount)
	}
	return &barter.CheckResult{GasAllocated: transferCost}, nil
}

func (h TransferHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, src, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	signer := TxSigner(h.auth, src.Authority)
	if err := h.ctrl.Transfer(ctx, db, signer, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &barter.DeliverResult{}, nil
}

func (h TransferHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*TransferMsg, *Account, error) {
	var msg TransferMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	src, err := h.ctrl.Account(db, msg.Source)
	if err != nil {
		return nil, nil, errors.Wrap(err, "source")
	}
	if !h.auth.HasAddress(ctx, src.Authority) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "source authority signature missing")
	}
	return &msg, src, nil
}

// CloseAccountHandler removes empty accounts.
type CloseAccountHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ barter.Handler = CloseAccountHandler{}

func (h CloseAccountHandler) Check(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &barter.CheckResult{GasAllocated: closeAccountCost}, nil
}

func (h CloseAccountHandler) Deliver(ctx context.Context, db barter.KVStore, tx barter.Tx) (*barter.DeliverResult, error) {
	msg, acct, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	refundTo := msg.RefundTo
	if len(refundTo) == 0 {
		refundTo = acct.Authority
	}
	signer := TxSigner(h.auth, acct.Authority)
	if err := h.ctrl.CloseAccount(ctx, db, signer, msg.Account, refundTo); err != nil {
		return nil, err
	}
	return &barter.DeliverResult{}, nil
}

func (h CloseAccountHandler) validate(ctx context.Context, db barter.KVStore, tx barter.Tx) (*CloseAccountMsg, *Account, error) {
	var msg CloseAccountMsg
	if err := barter.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	acct, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, acct.Authority) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "authority signature missing")
	}
	if acct.Amount != 0 {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "balance %d", acct.Amount)
	}
	return &msg, acct, nil
}
