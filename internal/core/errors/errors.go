package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidQueryError    = "invalid_query"
	HttpUnsupportedTypeError = "unsupported_type"
	HttpImportError          = "import_failed"
)

// ErrorResponse is the error response body for all API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
