package bartertest

import "github.com/iov-one/barter"

// Tx represents a transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg barter.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ barter.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (barter.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg is a message routed by path that can be told to fail validation.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by Validate.
	Err error
}

var _ barter.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
