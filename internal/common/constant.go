package common

// AuthHeaderName is the HTTP header that carries the bearer access token
// on authenticated requests.
const AuthHeaderName = "Authorization"

// BearerPrefix precedes the token value in AuthHeaderName.
const BearerPrefix = "Bearer "
