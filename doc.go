/*
Package barter defines the common interfaces that tie together the
settlement application: stores, handlers, decorators, transactions and
the deterministic addresses that let contract logic hold funds without a
private key.

We pass context through context.Context between app, middleware, and
handlers. There is one pair of functions for every value kept there:

  WithXYZ(context.Context, T) context.Context
  GetXYZ(context.Context) (val T, ok bool)

The escrow state machine itself lives in x/escrow, the asset ledger it
settles against in x/ledger.
*/
package barter
