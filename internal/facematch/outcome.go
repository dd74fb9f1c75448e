package facematch

import (
	"errors"
	"fmt"
)

// RejectionKind says why a submission produced no results.
type RejectionKind string

const (
	NoClaimsProvided      RejectionKind = "no_claims_provided"
	IncompleteBoundingBox RejectionKind = "incomplete_bounding_box"
	NoDetectionsReturned  RejectionKind = "no_detections_returned"
	ProviderFailure       RejectionKind = "provider_failure"
)

// Sentinel errors, one per rejection kind, for use with errors.Is.
var (
	ErrNoClaims              = errors.New("no faces provided by user")
	ErrIncompleteBoundingBox = errors.New("missing bounding box values")
	ErrNoDetections          = errors.New("no faces found")
	ErrProviderFailure       = errors.New("detection provider failed")
)

func (k RejectionKind) sentinel() error {
	switch k {
	case NoClaimsProvided:
		return ErrNoClaims
	case IncompleteBoundingBox:
		return ErrIncompleteBoundingBox
	case NoDetectionsReturned:
		return ErrNoDetections
	case ProviderFailure:
		return ErrProviderFailure
	}
	return nil
}

// RejectionError is returned when a submission cannot be reconciled.
type RejectionError struct {
	Kind RejectionKind
	// ClaimIndex is the offending claim for IncompleteBoundingBox, -1 otherwise.
	ClaimIndex int
	// Err is the underlying cause, if any.
	Err error
}

func (e *RejectionError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Kind == IncompleteBoundingBox && e.ClaimIndex >= 0 {
		msg = fmt.Sprintf("%s (claim %d)", msg, e.ClaimIndex)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind's sentinel and the underlying cause.
func (e *RejectionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func reject(kind RejectionKind) *RejectionError {
	return &RejectionError{Kind: kind, ClaimIndex: -1}
}

// RejectionKindOf returns the rejection kind carried by err, or "" if err is not a rejection.
func RejectionKindOf(err error) RejectionKind {
	var rerr *RejectionError
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}

// Status is the coarse result of processing one submission.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusRejected Status = "rejected"
	// StatusUndelivered means the rows were reconciled but the sink refused them.
	StatusUndelivered Status = "undelivered"
)

// Outcome is the typed result of processing one submission. Rejected outcomes never
// carry results.
type Outcome struct {
	Status  Status
	Kind    RejectionKind
	Results []MatchResult
	Err     error
}

// Matched builds a successful outcome.
func Matched(results []MatchResult) Outcome {
	return Outcome{Status: StatusMatched, Results: results}
}

// Rejected builds a rejected outcome from a reconciliation or provider error.
func Rejected(err error) Outcome {
	kind := RejectionKindOf(err)
	if kind == "" {
		kind = ProviderFailure
	}
	return Outcome{Status: StatusRejected, Kind: kind, Err: err}
}

// Undelivered keeps the reconciled rows of a submission whose delivery failed.
func Undelivered(results []MatchResult, err error) Outcome {
	return Outcome{Status: StatusUndelivered, Results: results, Err: err}
}

// IsMatched reports whether results were produced and delivered.
func (o Outcome) IsMatched() bool {
	return o.Status == StatusMatched
}

// Retryable reports whether the failure came from outside the matching policy, so the
// same input may succeed later.
func (o Outcome) Retryable() bool {
	return o.Status == StatusUndelivered || (o.Status == StatusRejected && o.Kind == ProviderFailure)
}
