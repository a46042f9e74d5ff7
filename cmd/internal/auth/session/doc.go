// Package session persists device-bound login sessions.
//
// A session is created unactivated at login and carries the hash of a short
// numeric activation code. The bearer token itself is never stored; rows are
// keyed by its digest (see cmd/security/token). Activation flips the row to
// activated once and clears the code hash.
//
// This package holds no authentication decisions. Those live in auth/core.
package session
