package services

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrReviewNotFound       = errors.New("admin review not found")
	ErrArtworkNotFound      = errors.New("artwork not found")
	ErrMissingMetadata      = errors.New("order metadata missing")
	ErrReviewAlreadyDecided = errors.New("admin review already decided")
	ErrOrderCancelled       = errors.New("order is cancelled")
	ErrOrderNotRetryable    = errors.New("order is not in a retryable state")
	ErrWorkflowBusy         = errors.New("another workflow run holds this order")
	ErrUpscaleInProgress    = errors.New("upscale already in progress")
)

// ValidationError is a bad fulfillment input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
