package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"slotbook/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
)

func TestFromValidationError(t *testing.T) {
	type request struct {
		ProviderID *int   `json:"provider_id" validate:"required"`
		Date       string `json:"date" validate:"required,iso8601"`
	}

	err := validators.New().Struct(request{Date: "yesterday"})
	resp := FromValidationError(err)

	if resp.Code() != http.StatusBadRequest || resp.Error() != "Validation fails." {
		t.Errorf("unexpected response %d %s", resp.Code(), resp.Error())
	}
	if resp.Fields["provider_id"] != "is required" {
		t.Errorf("unexpected provider_id message %q", resp.Fields["provider_id"])
	}
	if resp.Fields["date"] != "must be an ISO 8601 date" {
		t.Errorf("unexpected date message %q", resp.Fields["date"])
	}

	plain := FromValidationError(errors.New("boom"))
	if plain.Fields != nil || plain.Code() != http.StatusBadRequest {
		t.Errorf("expected bare validation error, got %+v", plain)
	}
}

func TestSimpleErrorJSON(t *testing.T) {
	raw, err := json.Marshal(SlotUnavailableError)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"error":"Appointment date is not available."}` {
		t.Errorf("unexpected body %s", raw)
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"service error", AlreadyCanceledError, http.StatusBadRequest, "Appointment already canceled."},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"unexpected", errors.New("nil pointer"), http.StatusInternalServerError, "Internal server error."},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			HTTPErrorHandler(tt.err, c)

			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["error"] != tt.msg {
				t.Errorf("expected %q, got %v", tt.msg, body["error"])
			}
		})
	}
}
