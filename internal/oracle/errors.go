package oracle

import "fmt"

// Error codes for oracle failures. Every failure mode maps to a code so the
// cascade can log and count them without string matching.
const (
	ErrCodeTimeout     = "timeout"
	ErrCodeHTTP        = "http_error"
	ErrCodeDecode      = "decode_error"
	ErrCodeCircuitOpen = "circuit_open"
	ErrCodeRateLimit   = "rate_limited"
	ErrCodeEmpty       = "empty_result"
)

// OracleError is the typed failure returned by the ranking client. It never
// escapes the cascade boundary: every OracleError is recovered locally by
// falling back to the heuristic ranker.
type OracleError struct {
	Code      string
	Message   string
	Temporary bool
	Cause     error
}

func (e *OracleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("oracle %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("oracle %s: %s", e.Code, e.Message)
}

func (e *OracleError) Unwrap() error {
	return e.Cause
}

func newError(code, message string, cause error) *OracleError {
	return &OracleError{
		Code:      code,
		Message:   message,
		Temporary: code != ErrCodeDecode,
		Cause:     cause,
	}
}
