/*
Package sigs provides basic authentication
middleware to verify the signatures on the transaction,
and maintain nonces for replay protection.

A signer is identified by its ed25519 public key, which is also
the address of every account the signer controls.
*/
package sigs
