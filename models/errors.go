// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a user-facing failure
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindNotFound         ErrorKind = "not_found"
	KindAuth             ErrorKind = "auth"
	KindConflict         ErrorKind = "conflict"
	KindInvalidSelection ErrorKind = "invalid_selection"
	KindCooldown         ErrorKind = "cooldown"
)

// Error is a recoverable error surfaced to the screen that caused it
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AuthError(format string, args ...any) *Error {
	return &Error{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidSelectionError(ordinal int) *Error {
	return &Error{Kind: KindInvalidSelection, Message: fmt.Sprintf("ordinal %d is not on the ballot", ordinal)}
}

// KindOf returns the kind of a wrapped *Error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err wraps an *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
