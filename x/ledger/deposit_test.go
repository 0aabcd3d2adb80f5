package ledger

import (
	"context"
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/bartertest/assert"
	"github.com/iov-one/barter/errors"
	"github.com/iov-one/barter/store"
)

func TestPayDepositWithoutAccount(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	issuer := bartertest.NewAddress()
	alice := bartertest.NewAddress()

	fee, err := ctrl.CreateAsset(db, "FEE", issuer)
	assert.Nil(t, err)
	gold, err := ctrl.CreateAsset(db, "GOLD", issuer)
	assert.Nil(t, err)
	assert.Nil(t, SaveConfiguration(db, &Configuration{DepositAsset: fee, Deposit: 10}))

	auth := &bartertest.Auth{Signer: alice}
	_, err = ctrl.PayDeposit(context.Background(), db, TxSigner(auth, alice))
	assert.IsErr(t, errors.ErrInsufficientFunds, err)

	_, err = ctrl.OpenAssociated(context.Background(), db, TxSigner(auth, alice), alice, gold)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)
	ok, err := ctrl.HasAccount(db, DepositPoolDerivation().MustAddress())
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
}

func TestCheckDeposits(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	issuer := bartertest.NewAddress()
	rich := bartertest.NewAddress()
	poor := bartertest.NewAddress()

	fee, err := ctrl.CreateAsset(db, "FEE", issuer)
	assert.Nil(t, err)
	gold, err := ctrl.CreateAsset(db, "GOLD", issuer)
	assert.Nil(t, err)
	richFee := fund(t, db, ctrl, issuer, rich, fee, 100)
	richGold := fund(t, db, ctrl, issuer, rich, gold, 100)
	assert.Nil(t, SaveConfiguration(db, &Configuration{DepositAsset: fee, Deposit: 10}))

	cases := map[string]struct {
		payer  barter.Address
		n      uint64
		debit  barter.Address
		amount uint64
		want   *errors.Error
	}{
		"nothing to pay": {
			payer: poor,
		},
		"no deposit account": {
			payer: poor,
			n:     1,
			want:  errors.ErrInsufficientFunds,
		},
		"all of the balance": {
			payer: rich,
			n:     10,
		},
		"above the balance": {
			payer: rich,
			n:     11,
			want:  errors.ErrInsufficientFunds,
		},
		"debit from another account": {
			payer:  rich,
			n:      2,
			debit:  richGold,
			amount: 100,
		},
		"debit from the deposit account": {
			payer:  rich,
			n:      2,
			debit:  richFee,
			amount: 80,
		},
		"debit from the deposit account above the balance": {
			payer:  rich,
			n:      2,
			debit:  richFee,
			amount: 81,
			want:   errors.ErrInsufficientFunds,
		},
		"overflow": {
			payer:  rich,
			n:      1,
			debit:  richFee,
			amount: ^uint64(0),
			want:   errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := ctrl.CheckDeposits(db, tc.payer, tc.n, tc.debit, tc.amount)
			assert.IsErr(t, tc.want, err)
		})
	}
}
