package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers branch on.
var (
	// ErrConflict indicates a sync run is already in progress for the merchant.
	ErrConflict = errors.New("sync already in progress")

	// ErrSignatureInvalid indicates a webhook payload failed signature verification.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrRunTimeout indicates a run exceeded its maximum duration.
	ErrRunTimeout = errors.New("sync run exceeded maximum duration")
)

// ValidationError indicates bad configure input. The caller must fix the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates a requested entity does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NotFound builds a NotFoundError.
func NotFound(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// RetryableSourceError indicates a transient source failure (network error,
// 5xx response). The executor retries these with backoff; permanent source
// failures are returned as plain errors and fail the run immediately.
type RetryableSourceError struct {
	Cause error
}

func (e *RetryableSourceError) Error() string {
	return fmt.Sprintf("retryable source error: %v", e.Cause)
}

func (e *RetryableSourceError) Unwrap() error { return e.Cause }

// Retryable wraps err as a RetryableSourceError.
func Retryable(err error) *RetryableSourceError {
	return &RetryableSourceError{Cause: err}
}

// IsRetryable reports whether err is a RetryableSourceError.
func IsRetryable(err error) bool {
	var re *RetryableSourceError
	return errors.As(err, &re)
}

// RecordError captures a single record failing mapping, validation, or
// store application. Record errors are collected during a run, never
// raised mid-run, and become part of the finalized run report.
type RecordError struct {
	SKU     string `json:"sku"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q failed at %s: %s", e.SKU, e.Stage, e.Message)
}

// Record stages.
const (
	StageParse   = "parse"
	StageMapping = "mapping"
	StageApply   = "apply"
)

// Record builds a RecordError for the given stage.
func Record(sku, stage, message string) *RecordError {
	return &RecordError{SKU: sku, Stage: stage, Message: message}
}
