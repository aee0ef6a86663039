// Package errors provides error handling for the compliance review pipeline.
//
// It re-exports github.com/cockroachdb/errors so the rest of the module gets
// stack traces, wrapping and hints from a single import, and it defines the
// failure taxonomy shared by every stage that talks to an external service:
//
//	ErrConfigurationAbsent  dependency not configured, skip to the next channel
//	ErrTransient            worth a bounded number of retries on the same channel
//	ErrPermission           credentials rejected, recorded and skipped
//	ErrNotFound             input document does not exist
//	ErrUnsupportedFormat    channel cannot read this kind of document
//	ErrRejected             request refused as malformed, retrying will not help
//
// Collaborators mark their failures with errors.Mark(err, ErrTransient) (or use
// the Transient/Permission/... helpers) and the fallback resolver calls Classify.
package errors

import (
	"context"
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Taxonomy sentinels. Compare with Is, never with ==.
var (
	ErrConfigurationAbsent = New("configuration absent")
	ErrTransient           = New("transient service error")
	ErrPermission          = New("permission denied")
	ErrNotFound            = New("not found")
	ErrUnsupportedFormat   = New("unsupported format")
	ErrRejected            = New("request rejected")
	ErrChainExhausted      = New("every channel in the fallback chain failed")
)

// Class is the resolver-facing classification of a channel failure.
type Class string

const (
	ClassConfigurationAbsent Class = "configuration_absent"
	ClassTransient           Class = "transient"
	ClassPermission          Class = "permission"
	ClassRejected            Class = "rejected"
	ClassCanceled            Class = "canceled"
)

// Classify maps an error to its resolver class. Unmarked errors are treated as
// transient: a remote that failed for an unknown reason may succeed on retry.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ""
	case IsAny(err, context.Canceled, context.DeadlineExceeded):
		return ClassCanceled
	case Is(err, ErrConfigurationAbsent):
		return ClassConfigurationAbsent
	case Is(err, ErrPermission):
		return ClassPermission
	case IsAny(err, ErrNotFound, ErrUnsupportedFormat, ErrRejected):
		return ClassRejected
	default:
		return ClassTransient
	}
}

// NotConfigured reports that a channel has no usable configuration.
func NotConfigured(channel, missing string) error {
	err := Mark(Newf("%s: %s is not configured", channel, missing), ErrConfigurationAbsent)
	return WithHintf(err, "set %s in the config file or environment to enable %s", missing, channel)
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return Mark(err, ErrTransient)
}

// Permission marks err as a credentials/permission failure.
func Permission(err error) error {
	if err == nil {
		return nil
	}
	return Mark(err, ErrPermission)
}

// Rejected marks err as a request the channel will never accept, so retrying
// it is pointless.
func Rejected(err error) error {
	if err == nil {
		return nil
	}
	return Mark(err, ErrRejected)
}

// UnrecoverableStageError is returned when a stage exhausted its fallback chain
// (or hit an error no channel can recover from) and the pipeline moved to failed.
type UnrecoverableStageError struct {
	Stage string
	Cause error
}

func (e *UnrecoverableStageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *UnrecoverableStageError) Unwrap() error { return e.Cause }

// Unrecoverable wraps cause as an UnrecoverableStageError for stage.
func Unrecoverable(stage string, cause error) error {
	return &UnrecoverableStageError{Stage: stage, Cause: cause}
}

// FailedStage returns the stage name carried by err, if any.
func FailedStage(err error) (string, bool) {
	var stageErr *UnrecoverableStageError
	if As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
