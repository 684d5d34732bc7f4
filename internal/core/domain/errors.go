package domain

import (
	"errors"
	"fmt"
)

// DomainError is a client-visible failure. Error() renders it as the
// error reply body: the code word ("ERR", "WRONGTYPE") followed by the
// message and, when present, a detail suffix.
type DomainError struct {
	Code    string
	Message string
	Details string
}

func (e *DomainError) Error() string {
	if e.Details == "" {
		return e.Code + " " + e.Message
	}
	return fmt.Sprintf("%s %s: %s", e.Code, e.Message, e.Details)
}

// Is matches on code and message, so a detailed copy still matches the
// sentinel it came from.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// Reply returns e as an error Return.
func (e *DomainError) Reply() Return {
	return Error{Msg: e.Error()}
}

// ReplyFor converts any error into an error Return. Errors that are not
// a DomainError are reported under ERR.
func ReplyFor(err error) Return {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reply()
	}
	return Error{Msg: CodeErr + " " + err.Error()}
}

// Reply codes.
const (
	CodeErr       = "ERR"
	CodeWrongType = "WRONGTYPE"
)

var (
	// ErrWrongType indicates the key holds a different Value variant.
	ErrWrongType = NewDomainError(CodeWrongType, "Operation against a key holding the wrong kind of value")

	// ErrNotInteger indicates the stored or supplied value is not a 64-bit integer.
	ErrNotInteger = NewDomainError(CodeErr, "value is not an integer or out of range")

	// ErrOverflow indicates an increment would overflow int64.
	ErrOverflow = NewDomainError(CodeErr, "increment or decrement would overflow")

	// ErrNotFloat indicates an increment produced NaN or Infinity.
	ErrNotFloat = NewDomainError(CodeErr, "increment would produce NaN or Infinity")
)

var (
	// ErrListEmpty indicates a pop against an empty or absent list.
	ErrListEmpty = NewDomainError(CodeErr, "list is empty")

	// ErrIndexOutOfRange indicates a resolved list index outside [0, length).
	ErrIndexOutOfRange = NewDomainError(CodeErr, "index out of range")
)

var (
	// ErrDBIndexOutOfRange indicates a SELECT/SWAPDB target beyond the configured count.
	ErrDBIndexOutOfRange = NewDomainError(CodeErr, "DB index is out of range")

	// ErrRateLimited indicates the connection exceeded its command rate.
	ErrRateLimited = NewDomainError(CodeErr, "rate limit exceeded")

	// ErrProtocol indicates an unrecoverable framing error on the connection.
	ErrProtocol = NewDomainError(CodeErr, "Protocol error")
)
