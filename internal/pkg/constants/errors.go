package constants

import "net/http"

type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrValidation          = NewCodedError("validation error", http.StatusBadRequest)
	ErrInvalidInput        = NewCodedError("invalid input", http.StatusUnprocessableEntity)
	ErrDataUnavailable     = NewCodedError("data unavailable", http.StatusServiceUnavailable)
	ErrPermissionDenied    = NewCodedError("location permission denied", http.StatusForbidden)
	ErrLocationUnavailable = NewCodedError("location unavailable", http.StatusServiceUnavailable)
	ErrAnalysis            = NewCodedError("analysis failed", http.StatusBadGateway)
	ErrBranchNotFound      = NewCodedError("branch not found", http.StatusNotFound)
	ErrSessionNotFound     = NewCodedError("session not found", http.StatusNotFound)
	ErrDBNotFound          = NewCodedError("not found", http.StatusNotFound)
	ErrInvalidTransition   = NewCodedError("operation not allowed in current state", http.StatusConflict)
	ErrSessionFinalized    = NewCodedError("session already finalized", http.StatusConflict)
	ErrUnauthorized        = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrMissingAuthCookie   = NewCodedError("missing auth cookie", http.StatusUnauthorized)
	ErrForbidden           = NewCodedError("forbidden", http.StatusForbidden)
	ErrCacheMiss           = NewCodedError("cache miss", http.StatusNotFound)
)
