package crypto

import (
	"bytes"
	"testing"

	"github.com/iov-one/barter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519Signing(t *testing.T) {
	private := GenPrivKeyEd25519()
	public := private.PublicKey()
	require.NoError(t, public.Validate())

	msg := []byte("foobar")
	msg2 := []byte("dingbooms")

	sig, err := private.Sign(msg)
	require.NoError(t, err)
	sig2, err := private.Sign(msg2)
	require.NoError(t, err)

	if bytes.Equal(sig, sig2) {
		t.Fatal("different messages produce the same signature")
	}

	assert.True(t, public.Verify(msg, sig))
	assert.True(t, public.Verify(msg2, sig2))
	assert.False(t, public.Verify(msg, sig2))
	assert.False(t, public.Verify(msg2, sig))

	other := GenPrivKeyEd25519().PublicKey()
	assert.False(t, other.Verify(msg, sig))
	assert.False(t, (*PublicKey)(nil).Verify(msg, sig))
}

func TestEd25519Address(t *testing.T) {
	seed := bytes.Repeat([]byte{3}, 32)
	a := PrivKeyEd25519FromSeed(seed)
	b := PrivKeyEd25519FromSeed(seed)

	assert.Equal(t, seed, a.Seed())
	addr := a.PublicKey().Address()
	require.NoError(t, addr.Validate())
	assert.Len(t, addr, barter.AddressLength)
	assert.True(t, addr.Equals(b.PublicKey().Address()))
	assert.False(t, addr.Equals(GenPrivKeyEd25519().PublicKey().Address()))
}
