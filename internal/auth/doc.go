// Package auth verifies credentials, finalizes freshly registered
// user rows, and gates publish operations on the realtime transport.
//
// A registration lands in the store as a plaintext placeholder; the
// finalizer hook rewrites it into a bcrypt hash plus a channel token
// derived from username and hash. The hashing cost escalates with
// calendar time (see the workfactor package), so accounts registered
// later are more expensive to brute force.
//
// Login never reveals whether a username exists: unknown users and
// wrong passwords both surface as ErrInvalidCredentials.
package auth
