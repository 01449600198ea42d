package http

const (
	HeaderContentType   = "Content-Type"
	HeaderValueJson     = "application/json"
	HeaderRequestID     = "X-Request-Id"
	HeaderSessionID     = "X-Session-Id"
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	StatusFailed        = "failed"
	StatusSuccess       = "success"
)
