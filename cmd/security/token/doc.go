// Package token provides the keyed digests used to store bearer secrets at rest.
//
// Session tokens and activation codes are never persisted in plaintext. The
// stored value is a 64-char hex digest:
//   - HMAC-SHA256(value, WEBSEC_TOKEN_HMAC_KEY) when the key is configured
//   - SHA-256(value) otherwise (dev only; production policy requires the key)
package token
