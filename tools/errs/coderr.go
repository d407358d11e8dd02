package errs

import (
	goerrors "errors"
	"strconv"
	"strings"
)

// CodeError is the error shape surfaced to clients over REST and the
// socket error events. Code is stable; Detail is free-form.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{Code: code, Msg: msg}
}

func (e *CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !goerrors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Stable error codes for the gateway surface.
var (
	ErrTokenInvalid  = NewCodeError(1101, "invalid or expired token")
	ErrTokenMissing  = NewCodeError(1102, "no token provided")
	ErrUserNotFound  = NewCodeError(1103, "user not found")
	ErrNotAuthorized = NewCodeError(1104, "not authenticated")
	ErrNotFriends    = NewCodeError(1201, "not friends")
	ErrEmptyContent  = NewCodeError(1202, "message content is required")
	ErrStoreFailure  = NewCodeError(1301, "store unavailable")
)
