package domain

import "errors"

// Store-level sentinels. Adapters return these; the account service turns them
// into classified errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
	ErrInvalidToken  = errors.New("invalid token")
)

// ErrorKind classifies a failure for the transport boundary.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindAuthentication ErrorKind = "authentication"
	KindNotFound       ErrorKind = "not_found"
	KindDependency     ErrorKind = "dependency"
	KindUnknown        ErrorKind = "unknown"
)

// Error is a classified failure. Message is safe to show to clients; Err is
// the internal cause and is only logged.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Validation(msg string) *Error { return NewError(KindValidation, msg, nil) }

func Conflict(msg string, cause error) *Error { return NewError(KindConflict, msg, cause) }

func Authentication(msg string, cause error) *Error {
	return NewError(KindAuthentication, msg, cause)
}

func NotFound(msg string, cause error) *Error { return NewError(KindNotFound, msg, cause) }

func Dependency(msg string, cause error) *Error { return NewError(KindDependency, msg, cause) }

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// MessageOf returns the client-facing message of a classified error.
func MessageOf(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
