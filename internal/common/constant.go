package common

const (
	// AuthCookieName is the cookie consulted when a request carries no
	// Authorization header.
	AuthCookieName = "token"

	// RequestIDHeader and CorrelationIDHeader carry the request identifier.
	RequestIDHeader     = "X-Request-ID"
	CorrelationIDHeader = "X-Correlation-ID"
)
