package services

import "errors"

// ErrorCode is the machine-readable reason carried by an AuthError.
type ErrorCode string

const (
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUserLocked         ErrorCode = "USER_LOCKED"
	CodeUserInactive       ErrorCode = "USER_INACTIVE"
	CodeUserExists         ErrorCode = "USER_EXISTS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AuthError is the only error kind AuthService returns to callers. Store,
// hashing and signing failures are logged and surface as ErrInternal.
type AuthError struct {
	Code    ErrorCode
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is matches any AuthError with the same code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidCredentials = &AuthError{Code: CodeInvalidCredentials, Message: "Invalid username or password"}
	ErrUserLocked         = &AuthError{Code: CodeUserLocked, Message: "Account temporarily locked due to too many failed login attempts. Try again later."}
	ErrUserInactive       = &AuthError{Code: CodeUserInactive, Message: "Account is deactivated"}
	ErrUserExists         = &AuthError{Code: CodeUserExists, Message: "Username already exists"}
	ErrUnauthorized       = &AuthError{Code: CodeUnauthorized, Message: "Unauthorized"}
	ErrUserLimitReached   = &AuthError{Code: CodeUnauthorized, Message: "Maximum number of users reached"}
	ErrInvalidToken       = &AuthError{Code: CodeInvalidToken, Message: "Invalid or expired session"}
	ErrNotFound           = &AuthError{Code: CodeNotFound, Message: "User not found"}
	ErrInternal           = &AuthError{Code: CodeInternal, Message: "Internal server error"}
)

func validationError(msg string) *AuthError {
	return &AuthError{Code: CodeValidation, Message: msg}
}

// CodeOf extracts the code of err, treating anything that is not an
// AuthError as internal.
func CodeOf(err error) ErrorCode {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}
