package auth

import "errors"

// Error strings double as wire responses, so they stay deliberately
// vague towards the caller.
var (
	ErrMalformedRequest   = errors.New("Incorrect data sent")
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrAccountNotReady    = errors.New("Account is not ready yet, try again")
	ErrUnauthorized       = errors.New("Incorrect credentials")
)
