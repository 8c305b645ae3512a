// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// ViewerKey is the context key for the authenticated domain.Viewer
	ViewerKey = "viewer"
	// RequestIDKey holds the per-request correlation id
	RequestIDKey = "requestID"
	// RequestIDHeader carries the correlation id in and out of the service
	RequestIDHeader = "X-Request-ID"
	LoggerKey       = "logger"
)
