// Package errs defines the error taxonomy every service operation resolves
// to. Each failure carries a stable machine-checkable kind plus a readable
// message; handlers map kinds to HTTP statuses without inspecting text.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation   Kind = "validation_failed"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindNoChange     Kind = "no_change"
	KindUpstream     Kind = "upstream"
)

// Reasons refine Conflict and InvalidState without adding kinds.
const (
	ReasonUsernameTaken    = "username_taken"
	ReasonEmailTaken       = "email_taken"
	ReasonAlreadyLiked     = "already_liked"
	ReasonSelfReference    = "self_reference"
	ReasonAlreadyFollowing = "already_following"
)

type Error struct {
	Kind   Kind
	Reason string   // optional, set for Conflict/InvalidState
	Fields []string // optional, set for ValidationFailed
	Msg    string
	Cause  error // optional, set for Upstream
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf reports the kind of err, or "" when err is not a taxonomy error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf reports the refined reason of err, if any.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func Validation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Fields: fields, Msg: msg}
}

// MissingFields builds the canonical validation error for absent required
// fields.
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:   KindValidation,
		Fields: fields,
		Msg:    fmt.Sprintf("You need to provide the %s.", strings.Join(fields, ", ")),
	}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s not found (id %s).", entity, id)}
}

func NotFoundMsg(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func Conflict(reason, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Msg: msg}
}

func InvalidState(reason, msg string) *Error {
	return &Error{Kind: KindInvalidState, Reason: reason, Msg: msg}
}

func NoChange(entity string) *Error {
	return &Error{Kind: KindNoChange, Msg: fmt.Sprintf("No changes were made on the %s.", entity)}
}

// Upstream wraps a collaborator failure (store, media, mail) so it is never
// conflated with a validation or authorization outcome.
func Upstream(collaborator string, cause error) *Error {
	return &Error{
		Kind:  KindUpstream,
		Msg:   fmt.Sprintf("%s request failed", collaborator),
		Cause: cause,
	}
}
