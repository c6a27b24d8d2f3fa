package common

const (
	// AuthorizationHeaderName carries the bearer access token on protected requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "
)
