package services

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrInFlight is returned when the same action on the same target is already
// awaiting the server. Nothing was applied and no request was sent.
var ErrInFlight = errors.New("action already in flight")

// ErrNotFound is wrapped by the ValidationError returned when the target of an
// action is not loaded locally.
var ErrNotFound = errors.New("not found")

type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Field) > 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type PermissionDenied struct {
	Action string
	Reason string
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("you are not allowed to %s: %s", e.Action, e.Reason)
}

type NetworkFailure struct {
	Status int
	Err    error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkFailure) Unwrap() error {
	return e.Err
}

// ApplicationFailure carries the server-supplied message verbatim.
type ApplicationFailure struct {
	Message string
}

func (e *ApplicationFailure) Error() string {
	return e.Message
}

// SourceFailure is a group whose recipes could not be loaded during a refresh.
// The rest of the feed was still rebuilt without it.
type SourceFailure struct {
	GroupID string
	Err     error
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("recipes of group %s could not be loaded: %v", e.GroupID, e.Err)
}

func (e *SourceFailure) Unwrap() error {
	return e.Err
}

// IsPartialRefresh reports whether err only carries SourceFailures, meaning
// the refreshed feed is usable but incomplete.
func IsPartialRefresh(err error) bool {
	if err == nil {
		return false
	}
	isSource := func(item error) bool {
		var source *SourceFailure
		return errors.As(item, &source)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return lo.EveryBy(joined.Unwrap(), isSource)
	}
	return isSource(err)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func denied(action, reason string) error {
	return &PermissionDenied{Action: action, Reason: reason}
}

func notFound(kind, id string) error {
	return &ValidationError{Field: kind, Message: fmt.Sprintf("%s %q is not loaded", kind, id), Err: ErrNotFound}
}

// IsRollbackError reports whether err came back from the network step,
// meaning an optimistic change was undone.
func IsRollbackError(err error) bool {
	var network *NetworkFailure
	var application *ApplicationFailure
	return errors.As(err, &network) || errors.As(err, &application)
}
