/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a record or table is not found
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when attempting to create a record that already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrUnsupported is returned when a backend cannot serve an operation
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnauthorized is returned when a request cannot be authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownMethod is returned when no business handler is registered for a method
	ErrUnknownMethod = errors.New("unknown method")
)

// Wire error numbers carried in the errno field of API responses.
const (
	ErrnoOK              = 0
	ErrnoGeneric         = -1
	ErrnoInvalidInput    = 1001
	ErrnoNotFound        = 1002
	ErrnoUnauthorized    = 1003
	ErrnoUnknownMethod   = 1004
	ErrnoUnsupported     = 1005
	ErrnoConditionFailed = 1006
	ErrnoAlreadyExists   = 1007
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a record already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// UnsupportedError is returned by backends that have no way to run an operation
type UnsupportedError struct {
	Backend   string
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s backend does not support %s", e.Backend, e.Operation)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// UnauthorizedError describes why a request was rejected
type UnauthorizedError struct {
	AppKey string
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.AppKey == "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return fmt.Sprintf("unauthorized appkey %q: %s", e.AppKey, e.Reason)
}

func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// UnknownMethodError names the method nobody handles
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q", e.Method)
}

func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(recordType, key string) error {
	return &NotFoundError{Type: recordType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(recordType, key string) error {
	return &AlreadyExistsError{Type: recordType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewUnsupportedError creates a new UnsupportedError
func NewUnsupportedError(backend, operation string) error {
	return &UnsupportedError{Backend: backend, Operation: operation}
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(appKey, reason string) error {
	return &UnauthorizedError{AppKey: appKey, Reason: reason}
}

// NewUnknownMethodError creates a new UnknownMethodError
func NewUnknownMethodError(method string) error {
	return &UnknownMethodError{Method: method}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsUnsupported checks if an error is an unsupported operation error
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsUnauthorized checks if an error is an authentication error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
