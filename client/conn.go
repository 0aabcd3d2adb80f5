package client

import (
	"strings"

	nm "github.com/tendermint/tendermint/node"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
)

// websocketEndpoint is where tendermint serves event subscriptions.
const websocketEndpoint = "/websocket"

// NewLocalConnection talks to a node running in the same process.
func NewLocalConnection(node *nm.Node) rpcclient.Client {
	return rpcclient.NewLocal(node)
}

// NewHTTPConnection talks to the rpc server of a remote node. An address
// without a scheme, like "localhost:26657", is dialed over tcp.
func NewHTTPConnection(remote string) rpcclient.Client {
	return rpcclient.NewHTTP(rpcAddress(remote), websocketEndpoint)
}

func rpcAddress(remote string) string {
	if strings.Contains(remote, "://") {
		return remote
	}
	return "tcp://" + remote
}
