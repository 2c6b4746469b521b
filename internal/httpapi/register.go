package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/evamarketing/hand-rest-6/internal/store"

	"go.uber.org/zap"
)

// The registration function keeps its own wire format: a flat {"error"}
// body and permissive CORS, as browsers call it directly.

type registerCustomerRequest struct {
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	PanchayathID string    `json:"panchayath_id"`
	WardNumber   wardValue `json:"ward_number"`
}

type registerCustomerResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
}

type functionError struct {
	Error string `json:"error"`
}

// wardValue accepts a ward number sent either as a JSON number or a string.
type wardValue int

func (v *wardValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*v = wardValue(n)
	return nil
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

func (h *Handler) handleRegisterCustomer(w http.ResponseWriter, r *http.Request) {
	for key, value := range corsHeaders {
		w.Header().Set(key, value)
	}
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerCustomerRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, functionError{Error: "All fields are required"})
		return
	}

	userID, err := h.store.RegisterCustomer(r.Context(), store.RegisterCustomerInput{
		Name:         req.Name,
		Mobile:       req.Mobile,
		PanchayathID: strings.TrimSpace(req.PanchayathID),
		WardNumber:   int(req.WardNumber),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			writeJSON(w, http.StatusBadRequest, functionError{Error: store.Message(err)})
		case errors.Is(err, store.ErrConflict):
			writeJSON(w, http.StatusConflict, functionError{Error: store.Message(err)})
		default:
			h.logger.Error("customer registration failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, functionError{Error: "Registration failed"})
		}
		return
	}
	h.logger.Info("customer registered", zap.String("user_id", userID))
	writeJSON(w, http.StatusOK, registerCustomerResponse{Success: true, UserID: userID})
}
