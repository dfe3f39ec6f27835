/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// APIError is an error reported by the server in the errno/message fields of a response.
type APIError struct {
	Errno   int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Errno, e.Message)
}

// Is lets callers test remote errors against the local sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Errno {
	case ErrnoInvalidInput:
		return target == ErrInvalidInput
	case ErrnoNotFound:
		return target == ErrNotFound
	case ErrnoUnauthorized:
		return target == ErrUnauthorized
	case ErrnoUnknownMethod:
		return target == ErrUnknownMethod
	case ErrnoUnsupported:
		return target == ErrUnsupported
	case ErrnoConditionFailed:
		return target == ErrConditionFailed
	case ErrnoAlreadyExists:
		return target == ErrAlreadyExists
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(errno int, message string) error {
	return &APIError{Errno: errno, Message: message}
}

// Errno maps an error onto its wire error number.
func Errno(err error) int {
	if err == nil {
		return ErrnoOK
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Errno
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return ErrnoInvalidInput
	case errors.Is(err, ErrNotFound):
		return ErrnoNotFound
	case errors.Is(err, ErrUnauthorized):
		return ErrnoUnauthorized
	case errors.Is(err, ErrUnknownMethod):
		return ErrnoUnknownMethod
	case errors.Is(err, ErrUnsupported):
		return ErrnoUnsupported
	case errors.Is(err, ErrConditionFailed):
		return ErrnoConditionFailed
	case errors.Is(err, ErrAlreadyExists):
		return ErrnoAlreadyExists
	}
	return ErrnoGeneric
}
