package rpc

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Error is the error object of a JSON-RPC response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string  { return e.Message }
func (e *Error) ErrorCode() int { return e.Code }
func (e *Error) ErrorData() any { return e.Data }

type codedError interface {
	error
	ErrorCode() int
}

type dataError interface {
	error
	ErrorData() any
}

// ToError converts err into a response error. Codes and data exposed
// anywhere in err's chain are kept, everything else becomes an internal
// error carrying err's message.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	out := &Error{Code: CodeInternalError, Message: err.Error()}
	var coded codedError
	if errors.As(err, &coded) {
		out.Code = coded.ErrorCode()
	}
	var withData dataError
	if errors.As(err, &withData) {
		out.Data = withData.ErrorData()
	}
	return out
}
