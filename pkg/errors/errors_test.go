package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
	want := "INTERNAL_ERROR: internal error (caused by: database connection failed)"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Meeting"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad json"), CodeInvalidInput, http.StatusBadRequest},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"link invalid", LinkInvalid(), CodeLinkInvalid, http.StatusNotFound},
		{"link used", LinkAlreadyUsed(), CodeLinkAlreadyUsed, http.StatusConflict},
		{"link expired", LinkExpired(), CodeLinkExpired, http.StatusGone},
		{"slot taken", SlotNoLongerAvailable(), CodeSlotUnavailable, http.StatusConflict},
		{"transition", IllegalTransition("completed", "confirmed"), CodeIllegalTransition, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking link", "12345")

	if err.Details["id"] != "12345" {
		t.Errorf("expected id '12345', got %v", err.Details["id"])
	}
	if err.Message != "Booking link not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestIllegalTransitionDetails(t *testing.T) {
	err := IllegalTransition("completed", "confirmed")
	if err.Details["from"] != "completed" || err.Details["to"] != "confirmed" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", LinkExpired())

	if !HasCode(wrapped, CodeLinkExpired) {
		t.Errorf("HasCode() should see through fmt wrapping")
	}
	if HasCode(wrapped, CodeLinkInvalid) {
		t.Errorf("HasCode() matched the wrong code")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("HasCode() should be false for non-AppError")
	}
	if HasCode(nil, CodeInternal) {
		t.Errorf("HasCode() should be false for nil")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Meeting")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}
	if AsAppError(fmt.Errorf("ctx: %w", appErr)) != appErr {
		t.Errorf("AsAppError() should unwrap")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Meeting", "12345").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "12345") {
		t.Errorf("ToJSON() should contain details")
	}
}
