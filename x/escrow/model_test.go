package escrow

import (
	"testing"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/bartertest"
	"github.com/iov-one/barter/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressDeterminism(t *testing.T) {
	Convey("Given a maker", t, func() {
		maker := bartertest.SeededKey("maker").PublicKey().Address()

		Convey("the same nonce always gives the same addresses", func() {
			e1, v1, err := Addresses(maker, 123)
			So(err, ShouldBeNil)
			e2, v2, err := Addresses(maker, 123)
			So(err, ShouldBeNil)
			So(e1, ShouldResemble, e2)
			So(v1, ShouldResemble, v2)
			So(e1, ShouldNotResemble, v1)
		})

		Convey("another nonce gives other addresses", func() {
			e1, v1, err := Addresses(maker, 1)
			So(err, ShouldBeNil)
			e2, v2, err := Addresses(maker, 2)
			So(err, ShouldBeNil)
			So(e1, ShouldNotResemble, e2)
			So(v1, ShouldNotResemble, v2)
		})

		Convey("another maker gives other addresses", func() {
			other := bartertest.SeededKey("other").PublicKey().Address()
			e1, _, err := Addresses(maker, 9)
			So(err, ShouldBeNil)
			e2, _, err := Addresses(other, 9)
			So(err, ShouldBeNil)
			So(e1, ShouldNotResemble, e2)
		})

		Convey("the stored bump recomputes the record address", func() {
			d, err := Derivation(maker, 77)
			So(err, ShouldBeNil)
			record := Escrow{Bump: d.Bump, Owner: maker, Nonce: 77}
			addr, err := record.Derivation().Address()
			So(err, ShouldBeNil)
			So(addr, ShouldResemble, d.MustAddress())
		})
	})
}

func TestRecordLayout(t *testing.T) {
	record := Escrow{
		Bump:            254,
		Owner:           bartertest.NewAddress(),
		OfferedAsset:    bartertest.NewAddress(),
		RequestedAsset:  bartertest.NewAddress(),
		Nonce:           0x0102030405060708,
		RequestedAmount: 500,
	}
	bz, err := record.Marshal()
	require.NoError(t, err)
	require.Len(t, bz, 114)
	assert.Equal(t, byte(1), bz[0])
	assert.Equal(t, byte(254), bz[1])
	assert.Equal(t, []byte(record.Owner), bz[2:34])
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, bz[98:106])
	assert.Equal(t, []byte{0xf4, 1, 0, 0, 0, 0, 0, 0}, bz[106:114])

	var loaded Escrow
	require.NoError(t, loaded.Unmarshal(bz))
	assert.Equal(t, record, loaded)

	cases := map[string][]byte{
		"too short":       bz[:113],
		"too long":        append(append([]byte(nil), bz...), 0),
		"unknown version": append([]byte{2}, bz[1:]...),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var e Escrow
			err := e.Unmarshal(raw)
			assert.True(t, errors.ErrInvalidModel.Is(err), "got %+v", err)
		})
	}

	_, err = (&Escrow{Owner: barter.Address{1, 2}}).Marshal()
	assert.Error(t, err)
}
