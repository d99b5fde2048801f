package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := error(&ValidationError{Reasons: []ValidationReason{ReasonNoItems, ReasonEmailInvalid}})

	if !IsValidation(err) {
		t.Fatal("expected IsValidation to match")
	}
	if !IsValidation(fmt.Errorf("submit: %w", err)) {
		t.Fatal("expected wrapped validation error to match")
	}
	if got := err.Error(); got != "validation failed: no-items, email-invalid" {
		t.Fatalf("unexpected message %q", got)
	}

	reasons := ValidationReasons(fmt.Errorf("wrap: %w", err))
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %v", reasons)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has(ReasonNoItems) || verr.Has(ReasonEmailMissing) {
		t.Fatalf("unexpected Has results for %v", verr)
	}
}

func TestIsPaymentRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "declined", err: ErrPaymentDeclined, want: false},
		{name: "circuit open", err: ErrCircuitOpen, want: false},
		{name: "temporary", err: ErrPaymentTemporary, want: true},
		{name: "wrapped timeout", err: errors.Join(ErrPaymentTimeout, context.DeadlineExceeded), want: true},
		{name: "unknown", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPaymentRetryable(tt.err); got != tt.want {
				t.Errorf("IsPaymentRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListingInputValidate(t *testing.T) {
	if errs := (ListingInput{Title: "T", Author: "A", Price: 3}).Validate(); len(errs) != 0 {
		t.Fatalf("expected valid listing, got %v", errs)
	}
	errs := (ListingInput{Price: -1}).Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
}
