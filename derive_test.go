package barter

import (
	"bytes"
	"testing"

	"github.com/iov-one/barter/errors"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/ed25519"
)

func TestFindDerivation(t *testing.T) {
	owner := bytes.Repeat([]byte{7}, AddressLength)

	Convey("Given an owner and a nonce", t, func() {
		d, err := FindDerivation("escrow", owner, Uint64Seed(1))
		So(err, ShouldBeNil)
		addr, err := d.Address()
		So(err, ShouldBeNil)

		Convey("The address is a pure function of the seeds", func() {
			again, bump, err := DeriveAddress("escrow", owner, Uint64Seed(1))
			So(err, ShouldBeNil)
			So(bump, ShouldEqual, d.Bump)
			So(again, ShouldResemble, addr)
		})

		Convey("A different nonce gives a different address", func() {
			other, _, err := DeriveAddress("escrow", owner, Uint64Seed(2))
			So(err, ShouldBeNil)
			So(other.Equals(addr), ShouldBeFalse)
		})

		Convey("A different namespace gives a different address", func() {
			other, _, err := DeriveAddress("ledger", owner, Uint64Seed(1))
			So(err, ShouldBeNil)
			So(other.Equals(addr), ShouldBeFalse)
		})

		Convey("The address is never a curve point", func() {
			So(isOnCurve(addr), ShouldBeFalse)
			So(addr.Validate(), ShouldBeNil)
		})

		Convey("A wrong bump does not reproduce the address", func() {
			other, err := CreateDerivedAddress("escrow", d.Bump-1, owner, Uint64Seed(1))
			if err == nil {
				So(other.Equals(addr), ShouldBeFalse)
			} else {
				So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
			}
		})
	})
}

func TestDerivationSeedSplit(t *testing.T) {
	a, _, err := DeriveAddress("ns", []byte("ab"), []byte("c"))
	if err != nil {
		t.Fatalf("derive: %s", err)
	}
	b, _, err := DeriveAddress("ns", []byte("a"), []byte("bc"))
	if err != nil {
		t.Fatalf("derive: %s", err)
	}
	if a.Equals(b) {
		t.Fatal("seed boundaries must be part of the derivation")
	}
}

func TestDerivationLimits(t *testing.T) {
	cases := map[string]struct {
		namespace string
		seeds     [][]byte
		wantErr   *errors.Error
	}{
		"no seeds": {
			namespace: "ns",
		},
		"max seeds": {
			namespace: "ns",
			seeds:     make([][]byte, MaxSeeds),
		},
		"too many seeds": {
			namespace: "ns",
			seeds:     make([][]byte, MaxSeeds+1),
			wantErr:   errors.ErrInvalidInput,
		},
		"max seed length": {
			namespace: "ns",
			seeds:     [][]byte{make([]byte, MaxSeedLength)},
		},
		"seed too long": {
			namespace: "ns",
			seeds:     [][]byte{make([]byte, MaxSeedLength+1)},
			wantErr:   errors.ErrInvalidInput,
		},
		"missing namespace": {
			seeds:   [][]byte{[]byte("x")},
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := FindDerivation(tc.namespace, tc.seeds...)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %v error, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestPublicKeyIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate: %s", err)
	}
	if !isOnCurve(pub) {
		t.Fatal("ed25519 public key must be a curve point")
	}
}
