package errors

// Error codes returned in the API error envelope.
const (
	ErrCodeInternalError = "internal_error"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotFound      = "not_found"
	ErrCodeUnknownLevel  = "unknown_level"
	ErrCodeEncodeFailed  = "quiz_encode_failed"
)
