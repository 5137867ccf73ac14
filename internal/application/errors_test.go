package application

import "testing"

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_AddMergeAndErrOrNil(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	if base.errOrNil() != nil {
		t.Fatalf("expected nil error for empty validation error")
	}

	base.add("first", "value")
	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	base.merge(nil)

	if len(base.FieldErrors) != 2 || base.FieldErrors["second"] != "another" {
		t.Fatalf("unexpected field errors %#v", base.FieldErrors)
	}
	if base.errOrNil() == nil {
		t.Fatalf("expected populated validation error to surface")
	}
}
