/*
bartercli is a command line client for a barter node: it manages a local
signing key, derives the addresses used by the ledger and escrow modules,
and signs and submits transactions.
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultNode).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
