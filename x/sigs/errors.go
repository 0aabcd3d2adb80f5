package sigs

import "github.com/iov-one/barter/errors"

// x/sigs reserves 20 ~ 29.
var (
	// ErrInvalidSequence is returned when a signature carries a
	// sequence that is not the next one expected for the signer.
	ErrInvalidSequence = errors.Register(20, "invalid sequence")
)
