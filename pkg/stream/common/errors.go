package common

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// StreamError represents stream-related errors
type StreamError struct {
	Source  Source `json:"source"`
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeConnection  = "CONNECTION_FAILED"
	ErrCodeTimeout     = "TIMEOUT"
	ErrCodeParse       = "PARSE_ERROR"
	ErrCodeMetadata    = "METADATA_ERROR"
	ErrCodeInvalidURL  = "INVALID_URL"
	ErrCodeTooManyHops = "TOO_MANY_HOPS"
	ErrCodeUnsupported = "UNSUPPORTED_STREAM"
)

// NewStreamError creates a new stream error
func NewStreamError(source Source, url, code, message string, cause error) *StreamError {
	return &StreamError{
		Source:  source,
		URL:     url,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
