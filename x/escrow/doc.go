/*
Package escrow implements a two party exchange of one fungible asset for
another, without trusting a third party.

A maker opens an offer: the offered funds are moved into a vault account,
and a record stores what the maker wants in exchange. The record and the
vault live at addresses derived from the maker address and a nonce, so
anybody can find them. The vault authority is the record address, which
has no private key. Funds can only leave the vault when this package
recomputes the derivation while handling a fulfill or a cancel message.

Any taker can fulfill an open offer by paying the requested amount. The
maker receives the payment, the taker receives the vault balance and both
the vault and the record are removed. The maker can instead cancel the
offer and take the vault balance back. Either way the storage deposits
are returned to the maker.
*/
package escrow
