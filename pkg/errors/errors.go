// Package errors implements the order-book service's error taxonomy: a
// small, closed set of behaviors (not a type per failure) that the HTTP
// layer maps directly to status codes.
package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Code is one of the taxonomy's behaviors (§7). It is also the symbolic
// "code" field of the JSON error body clients see.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeChallengeMissing Code = "CHALLENGE_MISSING"
	CodeChallengeExpired Code = "CHALLENGE_EXPIRED"
	CodeBookError        Code = "BOOK_ERROR"
	CodeNotFound         Code = "NOT_FOUND"
	CodeStorageError     Code = "STORAGE_ERROR"
	CodeInternalError    Code = "INTERNAL_ERROR"
	CodeRateLimited      Code = "RATE_LIMITED"
)

var httpStatus = map[Code]int{
	CodeValidation:       http.StatusBadRequest,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeChallengeMissing: http.StatusBadRequest,
	CodeChallengeExpired: http.StatusBadRequest,
	CodeBookError:        http.StatusConflict,
	CodeNotFound:         http.StatusNotFound,
	CodeStorageError:     http.StatusInternalServerError,
	CodeInternalError:    http.StatusInternalServerError,
	CodeRateLimited:      http.StatusTooManyRequests,
}

// ServiceError is the error type every handler-facing layer returns.
// Message is the short, stable, user-visible string (§7); diagnostic detail
// belongs in the logged Cause, not in Message.
type ServiceError struct {
	Code      Code
	Message   string
	Cause     error
	File      string
	Line      int
	Function  string
	Timestamp time.Time
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code the HTTP layer should respond with.
func (e *ServiceError) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds a ServiceError, capturing the call site for logs.
func New(code Code, message string) *ServiceError {
	return newAt(1, code, message, nil)
}

// Newf builds a ServiceError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *ServiceError {
	return newAt(1, code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code and a user-visible message to an underlying cause,
// keeping the cause available via errors.Unwrap for logging.
func Wrap(cause error, code Code, message string) *ServiceError {
	if cause == nil {
		return nil
	}
	return newAt(1, code, message, cause)
}

func newAt(skip int, code Code, message string, cause error) *ServiceError {
	pc, file, line, _ := runtime.Caller(skip + 1)
	fn := runtime.FuncForPC(pc)
	funcName := ""
	if fn != nil {
		funcName = fn.Name()
	}
	return &ServiceError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		File:      file,
		Line:      line,
		Function:  funcName,
		Timestamp: time.Now(),
	}
}

// Is reports whether err is a ServiceError of the given code.
func Is(err error, code Code) bool {
	se, ok := err.(*ServiceError)
	if !ok {
		return false
	}
	return se.Code == code
}

// As extracts the first ServiceError in err's chain, if any.
func As(err error) (*ServiceError, bool) {
	for err != nil {
		if se, ok := err.(*ServiceError); ok {
			return se, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
