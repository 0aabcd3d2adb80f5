package client

import (
	"context"
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/crypto"
	"github.com/iov-one/barter/errors"
	barterd "github.com/iov-one/barter/cmd/barterd/app"
	"github.com/iov-one/barter/x/ledger"
	"github.com/iov-one/barter/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	c := NewLocalClient(node)
	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.CatchingUp)
	assert.True(t, status.Height >= 1, "height %d", status.Height)
}

func TestChainID(t *testing.T) {
	c := NewLocalClient(node)
	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, getChainID(), id)
	assert.True(t, barter.IsValidChainID(id))
}

func TestHeader(t *testing.T) {
	c := NewLocalClient(node)
	ctx := context.Background()
	status, err := c.Status(ctx)
	require.NoError(t, err)

	header, err := c.Header(ctx, status.Height)
	require.NoError(t, err)
	assert.Equal(t, status.Height, header.Height)

	_, err = c.Header(ctx, status.Height+20)
	assert.Error(t, err)
}

func TestSubscribeHeaders(t *testing.T) {
	c := NewLocalClient(node)
	ctx, cancel := context.WithCancel(context.Background())

	status, err := c.Status(ctx)
	require.NoError(t, err)
	lastHeight := status.Height

	headers := make(chan Header, 5)
	require.NoError(t, c.SubscribeHeaders(ctx, headers))

	for i := 0; i < 3; i++ {
		h, ok := <-headers
		require.True(t, ok)
		assert.True(t, h.Height > lastHeight, "height %d after %d", h.Height, lastHeight)
		lastHeight = h.Height
	}

	cancel()
	// drain anything buffered before the close
	for range headers {
	}
}

func TestStoreQuery(t *testing.T) {
	c := NewLocalClient(node)
	owner := faucet.PublicKey().Address()
	asset, err := ledger.AssetID("AAA")
	require.NoError(t, err)

	a, err := ledger.NewController().Asset(c.Store(), asset)
	require.NoError(t, err)
	assert.Equal(t, "AAA", a.Ticker)

	missing, err := ledger.AssetID("ZZZ")
	require.NoError(t, err)
	_, err = ledger.NewController().Asset(c.Store(), missing)
	assert.True(t, errors.ErrNotFound.Is(err))

	acct, err := ledger.AssociatedAddress(owner, asset)
	require.NoError(t, err)
	balance, err := ledger.NewController().Balance(c.Store(), acct)
	require.NoError(t, err)
	assert.True(t, balance <= 1000)

	res := c.Query(RequestQuery{Path: "/no/such/path"})
	assert.True(t, errors.ErrNotFound.Is(errors.ABCIError(res.Code, res.Log)))
}

func signed(t *testing.T, c *Client, key *crypto.PrivateKey, msg barter.Msg) *barterd.Tx {
	t.Helper()
	ctx := context.Background()
	seq, err := c.Sequence(ctx, key.PublicKey().Address())
	require.NoError(t, err)
	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)

	tx := &barterd.Tx{Sum: msg}
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}
	return tx
}

func TestCommitTransfer(t *testing.T) {
	c := NewLocalClient(node)
	ctx := context.Background()
	owner := faucet.PublicKey().Address()
	rcpt := bartertest.NewAddress()

	asset, err := ledger.AssetID("AAA")
	require.NoError(t, err)
	src, err := ledger.AssociatedAddress(owner, asset)
	require.NoError(t, err)
	dest, err := ledger.AssociatedAddress(rcpt, asset)
	require.NoError(t, err)

	before, err := c.Sequence(ctx, owner)
	require.NoError(t, err)

	open := signed(t, c, faucet, &ledger.OpenAccountMsg{Owner: rcpt, Asset: asset, Payer: owner})
	res, err := c.CommitTx(ctx, open)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	transfer := signed(t, c, faucet, &ledger.TransferMsg{Source: src, Destination: dest, Amount: 25})
	res, err = c.CommitTx(ctx, transfer)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.True(t, res.Height > 0)

	balance, err := ledger.NewController().Balance(c.Store(), dest)
	require.NoError(t, err)
	assert.EqualValues(t, 25, balance)

	after, err := c.Sequence(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)

	found, err := c.GetTxByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Height, found.Height)
	assert.NoError(t, found.Err)

	// wait for the indexer before searching
	_, err = c.WaitForNextBlock(ctx)
	require.NoError(t, err)
	txs, err := c.SearchTx(ctx, QueryTxByID(res.ID))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, res.ID, txs[0].ID)
}

func TestSubmitRejected(t *testing.T) {
	c := NewLocalClient(node)
	ctx := context.Background()

	// nobody signed the transfer
	asset, err := ledger.AssetID("AAA")
	require.NoError(t, err)
	src, err := ledger.AssociatedAddress(faucet.PublicKey().Address(), asset)
	require.NoError(t, err)
	tx := &barterd.Tx{Sum: &ledger.TransferMsg{Source: src, Destination: bartertest.NewAddress(), Amount: 1}}

	_, err = c.SubmitTx(ctx, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)

	// a signed transaction with the wrong sequence never reaches a block
	stale := signed(t, c, faucet, &ledger.TransferMsg{Source: src, Destination: src, Amount: 1})
	stale.Signatures[0].Sequence += 100
	_, err = c.CommitTx(ctx, stale)
	assert.Error(t, err)
}
