package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForMapsCodesToStatuses(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeIdempotency:  http.StatusConflict,
		CodeInternal:     http.StatusInternalServerError,
		CodeDependency:   http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Errorf("MetadataFor(%s).HTTPStatus = %d, want %d", code, got, want)
		}
	}
}

func TestMetadataRetryableAndDetails(t *testing.T) {
	if !MetadataFor(CodeDependency).Retryable {
		t.Error("dependency errors should be retryable")
	}
	if !MetadataFor(CodeInternal).Retryable {
		t.Error("internal errors should be retryable")
	}
	if MetadataFor(CodeValidation).Retryable {
		t.Error("validation errors must not be retryable")
	}
	if !MetadataFor(CodeValidation).DetailsAllowed {
		t.Error("validation errors should expose details")
	}
	if MetadataFor(CodeForbidden).DetailsAllowed {
		t.Error("forbidden errors must not expose details")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor("NO_SUCH_CODE")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code mapped to %d, want 500", meta.HTTPStatus)
	}
}

func TestNewAndWithDetails(t *testing.T) {
	err := New(CodeValidation, "mealType must be one of breakfast, lunch, dinner, snack")
	if err.Code() != CodeValidation {
		t.Fatalf("code = %s", err.Code())
	}
	if err.Details() != nil {
		t.Fatal("fresh error should carry no details")
	}

	err.WithDetails(map[string]string{"field": "mealType"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["field"] != "mealType" {
		t.Fatalf("details = %v", err.Details())
	}

	want := "VALIDATION_ERROR: mealType must be one of breakfast, lunch, dinner, snack"
	if err.Error() != want {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("dial tcp: connection refused")
	err := Wrap(CodeDependency, cause, "query postgres")

	if !stdErrors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("code = %s", err.Code())
	}

	if got := Wrap(CodeNotFound, nil, "missing"); got.Unwrap() != nil {
		t.Fatal("Wrap(nil) should have no cause")
	}
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodeForbidden, "not a member of this group")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeForbidden {
		t.Fatalf("As(wrapped) = %v", typed)
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As(plain) should be nil")
	}
}

func TestNilReceiverSafety(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal {
		t.Fatalf("nil receiver code = %s, want internal", e.Code())
	}
	if e.Error() != "" || e.Message() != "" {
		t.Fatal("nil receiver should stringify empty")
	}
	if e.WithDetails("x") != nil || e.Details() != nil {
		t.Fatal("nil receiver details should be nil")
	}
}
