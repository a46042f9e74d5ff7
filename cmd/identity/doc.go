// Package identity implements the credential side of web-sec-api.
//
// It owns the User model, the UserRepository persistence boundary (Postgres and
// in-memory), phone normalization, argon2id password hashing and opaque session
// token primitives used by the auth core.
//
// Session persistence lives in cmd/internal/auth/session.
package identity
