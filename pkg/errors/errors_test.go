package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeInternal:      http.StatusInternalServerError,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d, got %d", code, status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("db down")
	err := Wrap(CodeDependency, cause, "load order")
	if err.Unwrap() != cause {
		t.Fatalf("expected cause preserved")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestAsReturnsNilForPlainError(t *testing.T) {
	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "insufficient stock").WithDetails(map[string]any{"product_id": "abc"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["product_id"] != "abc" {
		t.Fatalf("unexpected details: %#v", err.Details())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("expected empty code for nil, got %s", got)
	}
	if got := CodeOf(New(CodeConflict, "duplicate")); got != CodeConflict {
		t.Fatalf("expected conflict, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}
