package errors

const (
	HttpInternalError          = "internal_error"
	HttpNotSupportedError      = "not_supported"
	HttpInvalidRequestError    = "invalid_request"
	HttpAuthorizationError     = "authorization_failed"
	HttpQueryFailedError       = "query_failed"
	HttpUnsupportedSampleError = "unsupported_sample_type"
	HttpStoreUnavailableError  = "store_unavailable"
)

// ErrorResponse is the error response body for all boundary operations.
// Failures are resolved at their point of origin and surfaced as exactly one
// structured error; no partial results accompany an error.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
