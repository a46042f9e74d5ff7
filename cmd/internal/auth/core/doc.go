// Package core is the authentication state machine.
//
// It owns every decision: who may register, when a login issues a session,
// how a session is activated with its code, and whether a presented token is
// allowed through. Storage, delivery and transport are injected.
//
// Request authentication is an ordered pipeline of pure checks (see policy.go);
// the first denial wins and nothing is cached between calls.
package core
