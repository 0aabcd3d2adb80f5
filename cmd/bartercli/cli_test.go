package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/app"
	"github.com/iov-one/barter/client"
	barterd "github.com/iov-one/barter/cmd/barterd/app"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/crypto/tmhash"
)

const testChainID = "bartercli-test"

// appNode runs the application in process and commits one block per
// transaction.
type appNode struct {
	app    app.BaseApp
	height int64
}

var _ node = (*appNode)(nil)

func newAppNode(t *testing.T, genesis string) *appNode {
	t.Helper()
	base, err := barterd.Application("barter", barterd.Stack(nil), barterd.TxDecoder, "", false)
	require.NoError(t, err)
	base.WithInit(barterd.Initializers())
	base.InitChain(abci.RequestInitChain{ChainId: testChainID, AppStateBytes: []byte(genesis)})
	base.Commit()
	return &appNode{app: base, height: 1}
}

func (n *appNode) ChainID(context.Context) (string, error) {
	return testChainID, nil
}

func (n *appNode) Sequence(ctx context.Context, signer barter.Address) (int64, error) {
	return sigs.NextNonce(n.Store(), signer)
}

func (n *appNode) CommitTx(ctx context.Context, tx client.Tx) (*client.CommitResult, error) {
	bz, err := tx.Marshal()
	if err != nil {
		return nil, err
	}
	if chk := n.app.CheckTx(bz); chk.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(chk.Code, chk.Log)
	}
	n.height++
	n.app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{
		ChainID: testChainID,
		Height:  n.height,
		Time:    time.Now(),
	}})
	dres := n.app.DeliverTx(bz)
	n.app.EndBlock(abci.RequestEndBlock{Height: n.height})
	n.app.Commit()

	res, err := barter.ParseDeliverOrError(dres)
	return &client.CommitResult{
		ID:     tmhash.Sum(bz),
		Height: n.height,
		Result: res,
		Err:    err,
	}, nil
}

func (n *appNode) Store() barter.ReadOnlyKVStore {
	return app.NewABCIStore(n.app)
}

// session runs commands with its own home directory against a shared node.
type session struct {
	t    *testing.T
	home string
	node **appNode
}

func (s session) run(args ...string) (string, error) {
	root := newRootCmd(func(string) node { return *s.node })
	var out bytes.Buffer
	root.SetOutput(&out)
	root.SetArgs(append(args, "--home", s.home))
	err := root.Execute()
	return out.String(), err
}

func (s session) mustRun(into interface{}, args ...string) {
	s.t.Helper()
	out, err := s.run(args...)
	require.NoError(s.t, err, "bartercli %v", args)
	if into != nil {
		require.NoError(s.t, json.Unmarshal([]byte(out), into), out)
	}
}

func (s session) balance(ticker string, owner barter.Address) uint64 {
	s.t.Helper()
	var b balance
	s.mustRun(&b, "balance", ticker, owner.String())
	return b.Amount
}

func tempHome(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "bartercli")
	require.NoError(t, err)
	return dir
}

func TestKeys(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)
	var n *appNode
	s := session{t: t, home: home, node: &n}

	_, err := s.run("keys", "show")
	assert.True(t, errors.ErrNotFound.Is(err), "got %v", err)

	var gen keyInfo
	s.mustRun(&gen, "keys", "gen")
	assert.NoError(t, gen.Address.Validate())

	_, err = s.run("keys", "gen")
	assert.True(t, errors.ErrDuplicate.Is(err), "got %v", err)

	var show keyInfo
	s.mustRun(&show, "keys", "show")
	assert.Equal(t, gen, show)

	var regen keyInfo
	s.mustRun(&regen, "keys", "gen", "--force")
	assert.NotEqual(t, gen.Address, regen.Address)

	raw, err := ioutil.ReadFile(filepath.Join(home, keyName))
	require.NoError(t, err)
	var k keyFile
	require.NoError(t, json.Unmarshal(raw, &k))
	assert.Equal(t, regen.Address, k.Secret.PublicKey().Address())
}

func TestInitWritesConfig(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)
	var n *appNode
	s := session{t: t, home: home, node: &n}

	s.mustRun(nil, "init", "--chain_id", "from-config", "--node", "tcp://example:26657")
	raw, err := ioutil.ReadFile(filepath.Join(home, configName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "from-config")
	assert.Contains(t, string(raw), "tcp://example:26657")

	v := viper.New()
	v.Set(flagHome, home)
	c := &cli{v: v}
	require.NoError(t, c.loadConfig())
	assert.Equal(t, "from-config", c.v.GetString(flagChainID))
}

func TestDerive(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)
	var n *appNode
	s := session{t: t, home: home, node: &n}

	var gen keyInfo
	s.mustRun(&gen, "keys", "gen")

	var esc escrowAddresses
	s.mustRun(&esc, "derive", "escrow", gen.Address.String(), "42")
	var vault derived
	s.mustRun(&vault, "derive", "vault", esc.Escrow.String())
	assert.Equal(t, esc.Vault, vault.Address)

	var again escrowAddresses
	s.mustRun(&again, "derive", "escrow", gen.Bech32, "42")
	assert.Equal(t, esc, again)

	var other escrowAddresses
	s.mustRun(&other, "derive", "escrow", gen.Address.String(), "43")
	assert.NotEqual(t, esc.Escrow, other.Escrow)

	var acct derived
	s.mustRun(&acct, "derive", "account", gen.Address.String(), "AAA")
	assert.NoError(t, acct.Address.Validate())

	_, err := s.run("derive", "escrow", gen.Address.String(), "x1")
	assert.True(t, errors.ErrInvalidInput.Is(err), "got %v", err)
	_, err = s.run("derive", "account", gen.Address.String(), "lower")
	assert.True(t, errors.ErrInvalidInput.Is(err), "got %v", err)
}

func TestTrade(t *testing.T) {
	makerHome, takerHome := tempHome(t), tempHome(t)
	defer os.RemoveAll(makerHome)
	defer os.RemoveAll(takerHome)

	var n *appNode
	maker := session{t: t, home: makerHome, node: &n}
	taker := session{t: t, home: takerHome, node: &n}

	var mk, tk keyInfo
	maker.mustRun(&mk, "keys", "gen")
	taker.mustRun(&tk, "keys", "gen")

	n = newAppNode(t, fmt.Sprintf(`{
		"ledger": {
			"config": {"owner": %q, "deposit_asset": "FEE", "deposit": 10},
			"assets": [
				{"ticker": "AAA", "issuer": %q},
				{"ticker": "BBB", "issuer": %q},
				{"ticker": "FEE", "issuer": %q}
			],
			"accounts": [
				{"owner": %q, "ticker": "AAA", "amount": 1000},
				{"owner": %q, "ticker": "FEE", "amount": 100},
				{"owner": %q, "ticker": "BBB", "amount": 500},
				{"owner": %q, "ticker": "FEE", "amount": 100}
			]
		}
	}`, mk.Address, mk.Address, tk.Address, mk.Address, mk.Address, mk.Address, tk.Address, tk.Address))

	var opened txResult
	maker.mustRun(&opened, "escrow", "open", "AAA", "200", "BBB", "300", "--nonce", "7")
	assert.Equal(t, int64(2), opened.Height)

	var esc escrowAddresses
	maker.mustRun(&esc, "derive", "escrow", mk.Address.String(), "7")
	assert.Equal(t, []byte(esc.Escrow), opened.Data)
	assert.EqualValues(t, 800, maker.balance("AAA", mk.Address))

	var shown offer
	taker.mustRun(&shown, "escrow", "show", esc.Escrow.String())
	assert.EqualValues(t, 200, shown.Offered)
	assert.EqualValues(t, 300, shown.Record.RequestedAmount)
	assert.Equal(t, mk.Address, shown.Record.Owner)
	assert.Equal(t, esc.Vault, shown.Vault)

	var offers []offer
	taker.mustRun(&offers, "escrow", "list", mk.Address.String())
	require.Len(t, offers, 1)
	assert.Equal(t, esc.Escrow, offers[0].Address)

	// the taker cannot withdraw the maker's offer
	_, err := taker.run("escrow", "cancel", esc.Escrow.String())
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)

	taker.mustRun(nil, "escrow", "fulfill", esc.Escrow.String())
	assert.EqualValues(t, 300, maker.balance("BBB", mk.Address))
	assert.EqualValues(t, 200, maker.balance("AAA", tk.Address))
	assert.EqualValues(t, 200, maker.balance("BBB", tk.Address))

	_, err = taker.run("escrow", "show", esc.Escrow.String())
	assert.True(t, errors.ErrNotFound.Is(err), "got %v", err)
	maker.mustRun(&offers, "escrow", "list")
	assert.Len(t, offers, 0)

	taker.mustRun(nil, "transfer", "BBB", mk.Address.String(), "50")
	assert.EqualValues(t, 350, maker.balance("BBB", mk.Address))

	_, err = taker.run("transfer", "BBB", mk.Address.String(), "5000")
	assert.True(t, errors.ErrInsufficientFunds.Is(err), "got %v", err)
	_, err = taker.run("mint", "AAA", tk.Address.String(), "5")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %v", err)
	_, err = taker.run("transfer", "BBB", mk.Address.String(), "ten")
	assert.True(t, errors.ErrInvalidAmount.Is(err), "got %v", err)
}

func TestCancelOffer(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)

	var n *appNode
	s := session{t: t, home: home, node: &n}
	var mk keyInfo
	s.mustRun(&mk, "keys", "gen")

	n = newAppNode(t, fmt.Sprintf(`{
		"ledger": {
			"config": {"owner": %q, "deposit_asset": "FEE", "deposit": 10},
			"assets": [
				{"ticker": "AAA", "issuer": %q},
				{"ticker": "FEE", "issuer": %q}
			],
			"accounts": [
				{"owner": %q, "ticker": "AAA", "amount": 100},
				{"owner": %q, "ticker": "FEE", "amount": 100}
			]
		}
	}`, mk.Address, mk.Address, mk.Address, mk.Address, mk.Address))

	s.mustRun(nil, "escrow", "open", "AAA", "60", "FEE", "1", "--nonce", "1")
	assert.EqualValues(t, 40, s.balance("AAA", mk.Address))
	assert.EqualValues(t, 80, s.balance("FEE", mk.Address))

	var esc escrowAddresses
	s.mustRun(&esc, "derive", "escrow", mk.Address.String(), "1")
	s.mustRun(nil, "escrow", "cancel", esc.Escrow.String())
	assert.EqualValues(t, 100, s.balance("AAA", mk.Address))
	assert.EqualValues(t, 100, s.balance("FEE", mk.Address))

	// the same nonce can be used again once the offer is gone
	s.mustRun(nil, "escrow", "open", "AAA", "10", "FEE", "1", "--nonce", "1")
}
