package barter

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/barter/crypto/bech32"
	"github.com/iov-one/barter/errors"
)

const (
	// AddressLength is the length of all addresses. Key controlled
	// addresses are ed25519 public keys, derived addresses are sha256
	// digests that are not valid curve points.
	AddressLength = 32

	// Bech32Prefix is the human readable part of bech32 encoded addresses.
	Bech32Prefix = "barter"
)

// Address identifies an account holder, an asset or a stored object.
type Address []byte

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Clone returns a copy that does not share memory with a.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	return append(Address(nil), a...)
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInvalidInput, "address length %d", len(a))
	}
	return nil
}

// String returns a human readable string.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32 returns the bech32 representation of the address.
func (a Address) Bech32() (string, error) {
	return bech32.Encode(Bech32Prefix, a)
}

// MarshalJSON provides a hex representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

// UnmarshalJSON accepts any format supported by ParseAddress.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	if enc == "" {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes an address given either as hex (optionally
// prefixed with "hex:") or as bech32 (prefixed with "bech32:" or starting
// with the barter human readable part).
func ParseAddress(s string) (Address, error) {
	format := "hex"
	if chunks := strings.SplitN(s, ":", 2); len(chunks) == 2 {
		format, s = chunks[0], chunks[1]
	} else if strings.HasPrefix(s, Bech32Prefix+"1") {
		format = "bech32"
	}

	var addr Address
	switch format {
	case "hex":
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "cannot decode hex")
		}
		addr = raw
	case "bech32":
		hrp, raw, err := bech32.Decode(s)
		if err != nil {
			return nil, err
		}
		if hrp != Bech32Prefix {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unexpected prefix %q", hrp)
		}
		addr = raw
	default:
		return nil, errors.Wrapf(errors.ErrInvalidType, "unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
