/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("fake", "110")

	expected := `fake with key "110" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("fake", "abc")

	expected := `fake with key "abc" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "table",
			message:  "required",
			expected: `validation failed for field "table": required`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "empty update",
			expected: "validation failed: empty update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestConditionFailedError(t *testing.T) {
	err := NewConditionFailedError("create", "attribute_not_exists(id)")

	expected := "condition check failed for create operation: attribute_not_exists(id)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsConditionFailed(err) {
		t.Error("IsConditionFailed should return true for ConditionFailedError")
	}
}

func TestUnsupportedAndUnauthorized(t *testing.T) {
	err := NewUnsupportedError("dynamodb", "transaction")
	if err.Error() != "dynamodb backend does not support transaction" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsUnsupported(err) {
		t.Error("IsUnsupported should return true for UnsupportedError")
	}

	err = NewUnauthorizedError("123123", "bad signature")
	if err.Error() != `unauthorized appkey "123123": bad signature` {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized should return true for UnauthorizedError")
	}
	if NewUnauthorizedError("", "missing appkey").Error() != "unauthorized: missing appkey" {
		t.Error("unauthorized error without appkey should omit it")
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("fake", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrConditionFailed,
		ErrUnsupported,
		ErrUnauthorized,
		ErrUnknownMethod,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}

func TestErrnoRoundTrip(t *testing.T) {
	tests := []struct {
		err      error
		errno    int
		sentinel error
	}{
		{NewValidationError("row", "empty"), ErrnoInvalidInput, ErrInvalidInput},
		{NewNotFoundError("fake", "1"), ErrnoNotFound, ErrNotFound},
		{NewUnauthorizedError("k", "bad signature"), ErrnoUnauthorized, ErrUnauthorized},
		{NewUnknownMethodError("common.nope"), ErrnoUnknownMethod, ErrUnknownMethod},
		{NewUnsupportedError("dynamodb", "transaction"), ErrnoUnsupported, ErrUnsupported},
		{NewConditionFailedError("create", "x"), ErrnoConditionFailed, ErrConditionFailed},
		{NewAlreadyExistsError("fake", "1"), ErrnoAlreadyExists, ErrAlreadyExists},
	}

	for _, tt := range tests {
		errno := Errno(fmt.Errorf("wrapped: %w", tt.err))
		if errno != tt.errno {
			t.Errorf("Errno(%v) = %d, want %d", tt.err, errno, tt.errno)
		}
		remote := NewAPIError(errno, tt.err.Error())
		if !errors.Is(remote, tt.sentinel) {
			t.Errorf("APIError %d should match %v", errno, tt.sentinel)
		}
	}

	if Errno(nil) != ErrnoOK {
		t.Error("nil error should map to ErrnoOK")
	}
	if Errno(errors.New("boom")) != ErrnoGeneric {
		t.Error("unclassified error should map to ErrnoGeneric")
	}
	if errors.Is(NewAPIError(ErrnoGeneric, "boom"), ErrNotFound) {
		t.Error("generic APIError should not match any sentinel")
	}
}
