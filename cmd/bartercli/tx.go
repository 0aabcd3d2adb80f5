package main

import (
	"context"

	"github.com/iov-one/barter"
	barterd "github.com/iov-one/barter/cmd/barterd/app"
	"github.com/iov-one/barter/crypto"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/sigs"
	"github.com/spf13/cobra"
)

type txResult struct {
	ID     string `json:"id"`
	Height int64  `json:"height"`
	Data   []byte `json:"data,omitempty"`
	Log    string `json:"log,omitempty"`
}

// send signs msg with the local key, using the next sequence of the
// signer, and waits until it is committed in a block.
func (c *cli) send(cmd *cobra.Command, key *crypto.PrivateKey, msg barter.Msg) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	ctx := context.Background()
	n := c.node()
	chainID, err := c.chainID(ctx, n)
	if err != nil {
		return err
	}
	seq, err := n.Sequence(ctx, key.PublicKey().Address())
	if err != nil {
		return errors.Wrap(err, "sequence")
	}

	tx := &barterd.Tx{Sum: msg}
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = []*sigs.StdSignature{sig}

	res, err := n.CommitTx(ctx, tx)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return errors.Wrapf(res.Err, "tx %s failed in block %d", res.ID, res.Height)
	}
	out := txResult{ID: res.ID.String(), Height: res.Height}
	if res.Result != nil {
		out.Data = res.Result.Data
		out.Log = res.Result.Log
	}
	return printJSON(cmd, out)
}

// signerOr returns the address given as optional argument, or the
// address of the local key.
func signerOr(key *crypto.PrivateKey, args []string, i int, name string) (barter.Address, error) {
	if len(args) > i {
		return parseAddress(name, args[i])
	}
	return key.PublicKey().Address(), nil
}
