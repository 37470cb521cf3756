package middleware

// Context keys set by the middleware chain.
const (
	ContextKeyOperator  = "operator"
	ContextKeyRole      = "role"
	ContextKeyRequestID = "request_id"
)

// HeaderRequestID is read from callers and echoed on every response.
const HeaderRequestID = "X-Request-ID"
