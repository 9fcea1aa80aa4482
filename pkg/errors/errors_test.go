package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeNotFound)
	if meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected status for not found: %d", meta.HTTPStatus)
	}

	meta = MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal: %d", meta.HTTPStatus)
	}

	meta = MetadataFor(CodeInvariant)
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("invariant violations must not surface as client errors: %d", meta.HTTPStatus)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("row missing")
	err := Wrap(CodeNotFound, cause, "loan not found")

	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatal("cause should be preserved")
	}
	if got := err.Error(); got != "NOT_FOUND: loan not found" {
		t.Fatalf("unexpected error string: %q", got)
	}
}

func TestAsTraversesChain(t *testing.T) {
	inner := New(CodeConflict, "book already on loan")
	wrapped := fmt.Errorf("checkout: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
	if !IsCode(wrapped, CodeConflict) {
		t.Fatal("IsCode should match through wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatal("IsCode should not match other codes")
	}
	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("plain errors should not convert")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "invalid payload").WithDetails(map[string]any{"field": "isbn"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["field"] != "isbn" {
		t.Fatalf("details not preserved: %#v", err.Details())
	}
}
