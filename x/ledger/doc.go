/*
Package ledger keeps balances of fungible assets.

Every asset is identified by an address derived from its ticker. Balances
are held in accounts; each account holds a single asset and is controlled
by an authority address. The authority is either a key (the account owner
signs the transaction) or a derived address, in which case only code that
can recompute the derivation may move the funds. This is how the escrow
vaults are kept out of reach of any private key.

Opening an account locks a storage deposit, configured in genesis. The
deposit is returned to a chosen recipient when the account is closed.
*/
package ledger
