// Package common defines sentinel errors and constants shared by the
// repository, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

// Repository-level errors.
var (
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
)
