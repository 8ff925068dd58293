package docpipe

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Application error codes.
const (
	ECLASSIFY     = "classify"
	ECORRUPT      = "corrupt"
	EEMPTY        = "empty"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EPRECONDITION = "precondition"
	ETIMEOUT      = "timeout"
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code and message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("docpipe error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorDetail returns the message of an application error, or the full text
// of any other error so the underlying cause is kept.
func ErrorDetail(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsExtractionFailure reports whether err means the source file could not
// yield usable text.
func IsExtractionFailure(err error) bool {
	switch ErrorCode(err) {
	case ENOTFOUND, ECORRUPT, EEMPTY:
		return true
	}
	return false
}

// Truncate shortens s to at most n runes, appending an ellipsis when text was
// dropped. Collaborator output passes through here before it reaches logs or
// persisted error messages.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
