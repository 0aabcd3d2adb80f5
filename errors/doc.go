/*
Package errors implements the error handling used across barter.

Every failure returned to a client wraps one of the root errors declared in
this package. Root errors carry an ABCI code so that a client can tell a
missing offer (ErrNotFound) from a spoofed vault reference
(ErrDerivationMismatch) without parsing log messages.

Create errors with ErrXyz.New/Newf or errors.Wrap(err, "...") at the point of
failure so that a stacktrace is attached. Only the most inner wrap records
the stack.

	%s is just the error message
	%+v is the full stack trace
*/
package errors
