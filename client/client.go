package client

import (
	"context"
	"time"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/app"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/sigs"
	cmn "github.com/tendermint/tendermint/libs/common"
	tmquery "github.com/tendermint/tendermint/libs/pubsub/query"
	nm "github.com/tendermint/tendermint/node"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

const txPerPage = 50

// Client is a tendermint client wrapped to provide
// simple access to the basic data structures used in barter
type Client struct {
	conn rpcclient.Client
}

// NewClient wraps a Client around an existing tendermint client connection.
func NewClient(conn rpcclient.Client) *Client {
	return &Client{conn: conn}
}

// NewLocalClient is simply a shorthand for a client
// with local connection
func NewLocalClient(node *nm.Node) *Client {
	return NewClient(NewLocalConnection(node))
}

// Status returns current height and other (subjective) status info from this node
func (c *Client) Status(ctx context.Context) (*Status, error) {
	status, err := c.conn.Status()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "status: %s", err)
	}
	return &Status{
		Height:     status.SyncInfo.LatestBlockHeight,
		CatchingUp: status.SyncInfo.CatchingUp,
	}, nil
}

// ChainID returns the chain id from the genesis of the node.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	gen, err := c.conn.Genesis()
	if err != nil {
		return "", errors.Wrapf(errors.ErrNetwork, "genesis: %s", err)
	}
	return gen.Genesis.ChainID, nil
}

// Header returns the block header at the given height.
// Returns an error if no header exists yet for that height
func (c *Client) Header(ctx context.Context, height int64) (*Header, error) {
	info, err := c.conn.BlockchainInfo(height, height)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "blockchain info: %s", err)
	}
	if len(info.BlockMetas) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no headers for height %d", height)
	}
	return &info.BlockMetas[0].Header, nil
}

// SubmitTx will submit the tx to the mempool and then return with success
// or the CheckTx error. The transaction is not yet in a block.
func (c *Client) SubmitTx(ctx context.Context, tx Tx) (TransactionID, error) {
	bz, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal tx")
	}
	res, err := c.conn.BroadcastTxSync(bz)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "submit tx: %s", err)
	}
	// a checktx error didn't make it into mempool and will not make it
	// into block
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return res.Hash, nil
}

// CommitTx submits the tx and blocks until it is included in a block. A
// CheckTx failure is returned as error, a DeliverTx failure is set on the
// result.
func (c *Client) CommitTx(ctx context.Context, tx Tx) (*CommitResult, error) {
	bz, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal tx")
	}
	res, err := c.conn.BroadcastTxCommit(bz)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "commit tx: %s", err)
	}
	if res.CheckTx.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.CheckTx.Code, res.CheckTx.Log)
	}
	result, err := barter.ParseDeliverOrError(res.DeliverTx)
	return &CommitResult{
		ID:     res.Hash,
		Height: res.Height,
		Result: result,
		Err:    err,
	}, nil
}

// Query is meant to mirror the abci query interface exactly, so we can wrap it with app.ABCIStore
// This will give us state from the application
func (c *Client) Query(query RequestQuery) ResponseQuery {
	res, err := c.conn.ABCIQueryWithOptions(query.Path, query.Data, rpcclient.ABCIQueryOptions{
		Height: query.Height,
		Prove:  query.Prove,
	})
	// network error reported as special error code
	if err != nil {
		code, log := errors.ABCIInfo(errors.Wrap(errors.ErrNetwork, err.Error()), false)
		return ResponseQuery{
			Code: code,
			Log:  log,
		}
	}
	return res.Response
}

// Store returns a read only view of the committed application state, which
// can be used with any bucket or controller.
func (c *Client) Store() barter.ReadOnlyKVStore {
	return app.NewABCIStore(c)
}

// Sequence returns the sequence the next signature of given signer must
// carry.
func (c *Client) Sequence(ctx context.Context, signer barter.Address) (int64, error) {
	return sigs.NextNonce(c.Store(), signer)
}

// GetTxByID will return 0 or 1 results (nil or result value)
func (c *Client) GetTxByID(ctx context.Context, id TransactionID) (*CommitResult, error) {
	tx, err := c.conn.Tx(id, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "get tx: %s", err)
	}
	return resultTxToCommitResult(tx), nil
}

// SearchTx will search for all committed transactions that match a query,
// returning them as one large array.
func (c *Client) SearchTx(ctx context.Context, query TxQuery) ([]*CommitResult, error) {
	search, err := c.conn.TxSearch(query, false, 1, txPerPage)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "search tx: %s", err)
	}

	results := make([]*CommitResult, len(search.Txs))
	for i, tx := range search.Txs {
		results[i] = resultTxToCommitResult(tx)
	}
	return results, nil
}

// SubscribeHeaders will fills the channel with all new headers
// Stops when the context is cancelled
func (c *Client) SubscribeHeaders(ctx context.Context, results chan<- Header) error {
	q, err := tmquery.New(QueryForHeader())
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "query: %s", err)
	}

	subscriber := cmn.RandStr(16)
	data, err := c.conn.Subscribe(ctx, subscriber, q.String())
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "subscribe: %s", err)
	}

	go func(in <-chan ctypes.ResultEvent) {
		defer close(results)
		for {
			select {
			case <-ctx.Done():
				_ = c.conn.Unsubscribe(context.Background(), subscriber, q.String())
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				if val, ok := msg.Data.(tmtypes.EventDataNewBlockHeader); ok {
					results <- val.Header
				}
			}
		}
	}(data)
	return nil
}

// WaitForNextBlock will return the next block header to arrive (as subscription)
func (c *Client) WaitForNextBlock(ctx context.Context) (*Header, error) {
	// ensure we close subscription at function return
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	headers := make(chan Header, 1)
	if err := c.SubscribeHeaders(cctx, headers); err != nil {
		return nil, err
	}

	h, ok := <-headers
	if !ok {
		return nil, errors.Wrap(errors.ErrNetwork, "subscription closed without returning any headers")
	}
	c.waitForTxIndex()
	return &h, nil
}

// waitForTxIndex waits until all tx in last blocked are properly indexed for the queries
func (c *Client) waitForTxIndex() {
	time.Sleep(100 * time.Millisecond)
}

func resultTxToCommitResult(tx *ctypes.ResultTx) *CommitResult {
	res, err := barter.ParseDeliverOrError(tx.TxResult)
	return &CommitResult{
		ID:     tx.Hash,
		Height: tx.Height,
		Result: res,
		Err:    err,
	}
}
