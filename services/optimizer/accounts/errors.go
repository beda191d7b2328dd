package accounts

import "errors"

// ErrNilQueryExecutor signals that a nil query executor was provided
var ErrNilQueryExecutor = errors.New("nil query executor")

// ErrNilSelectHandler signals that a nil select handler was provided
var ErrNilSelectHandler = errors.New("nil select handler")

// ErrUnknownAccount signals that the account is not in the loaded account list
var ErrUnknownAccount = errors.New("unknown account")

var errAccountsNotFound = errors.New("accounts not found in response")
