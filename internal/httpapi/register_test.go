package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evamarketing/hand-rest-6/internal/store"
)

func postRegistration(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/register-customer", strings.NewReader(body))
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)
	return resp
}

func TestRegisterCustomerSuccess(t *testing.T) {
	var got store.RegisterCustomerInput
	st := fakeStore{
		registerFn: func(ctx context.Context, input store.RegisterCustomerInput) (string, error) {
			got = input
			return customerID, nil
		},
	}
	h := NewHandler(st, Options{})

	resp := postRegistration(h, `{"name":"Asha","mobile":"98765 43210","panchayath_id":"`+packageID+`","ward_number":"7"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body registerCustomerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.UserID != customerID {
		t.Fatalf("unexpected response: %+v", body)
	}
	if got.WardNumber != 7 || got.PanchayathID != packageID || got.Mobile != "98765 43210" {
		t.Fatalf("unexpected register input: %+v", got)
	}
	if origin := resp.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected CORS origin header, got %q", origin)
	}
}

func TestRegisterCustomerNumericWard(t *testing.T) {
	var got store.RegisterCustomerInput
	st := fakeStore{
		registerFn: func(ctx context.Context, input store.RegisterCustomerInput) (string, error) {
			got = input
			return customerID, nil
		},
	}
	h := NewHandler(st, Options{})

	resp := postRegistration(h, `{"name":"Asha","mobile":"9876543210","panchayath_id":"`+packageID+`","ward_number":12}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got.WardNumber != 12 {
		t.Fatalf("expected ward 12, got %d", got.WardNumber)
	}
}

func TestRegisterCustomerErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing fields", store.Validation("register customer", "All fields are required"), http.StatusBadRequest, "All fields are required"},
		{"short mobile", store.Validation("register customer", "Invalid mobile number"), http.StatusBadRequest, "Invalid mobile number"},
		{"duplicate", store.DuplicateMobile(), http.StatusConflict, "An account with this mobile number already exists"},
		{"storage", store.Storage("register customer", errors.New("boom")), http.StatusInternalServerError, "Registration failed"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			st := fakeStore{
				registerFn: func(ctx context.Context, input store.RegisterCustomerInput) (string, error) {
					return "", tt.err
				},
			}
			h := NewHandler(st, Options{})

			resp := postRegistration(h, `{"name":"Asha","mobile":"123","panchayath_id":"`+packageID+`","ward_number":1}`)

			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			var body functionError
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Error != tt.message {
				t.Fatalf("expected error %q, got %q", tt.message, body.Error)
			}
		})
	}
}

func TestRegisterCustomerMalformedBody(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	resp := postRegistration(h, `{"ward_number":"seven"}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestRegisterCustomerPreflight(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/register-customer", nil)
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if methods := resp.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(methods, "POST") {
		t.Fatalf("expected POST in allowed methods, got %q", methods)
	}
}

func TestRegisterCustomerRejectsGet(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/functions/v1/register-customer", nil)
	resp := httptest.NewRecorder()
	h.Routes().ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", resp.Code)
	}
}
