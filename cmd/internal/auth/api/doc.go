// Package authapi exposes the authentication core over HTTP.
//
// The bearer token travels in the "session" cookie or, failing that, the
// "session" header. Device identity comes from the DeviceId and DeviceName
// headers on every request.
//
// Errors use the shape {"error":{"code":"...","message":"..."}}.
package authapi
