// Package client talks to the auth server's JSON API.
//
// HTTPClient keeps the current token pair in a TokenStore, attaches the
// access token to protected calls and, when the server answers 401, rotates
// the pair once with the stored refresh token and retries.
//
// Transport failures wrap ErrUnavailable; error responses surface as
// *APIError, which matches ErrUnauthorized for 401s.
package client
