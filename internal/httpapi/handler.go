package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
}

type errorResponse struct {
	RequestID string        `json:"request_id"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(st store.Store, options Options) *Handler {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := options.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Handler{
		store:  st,
		logger: logger,
		now:    now,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/api/catalog/packages", h.handleListPackages)
	mux.HandleFunc("/api/catalog/addons", h.handleListAddons)
	mux.HandleFunc("/api/catalog/custom-features", h.handleListCustomFeatures)
	mux.HandleFunc("/api/catalog/panchayaths", h.handleListPanchayaths)
	mux.HandleFunc("/functions/v1/register-customer", h.handleRegisterCustomer)
	mux.HandleFunc("/api/bookings", h.handleBookings)
	mux.HandleFunc("/api/bookings/", h.handleBookingRoutes)
	mux.HandleFunc("/api/staff/jobs", h.handleStaffJobs)
	mux.HandleFunc("/api/staff/earnings", h.handleStaffEarnings)
	mux.HandleFunc("/api/staff/summary", h.handleStaffSummary)
	mux.HandleFunc("/api/me/permissions", h.handleMyPermissions)
	mux.HandleFunc("/api/admin/permission-keys", h.handlePermissionKeys)
	mux.HandleFunc("/api/admin/users/", h.handleAdminUsers)
	mux.HandleFunc("/api/admin/dashboard", h.handleDashboard)
	mux.HandleFunc("/api/admin/bookings/export", h.handleExportBookings)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	packages, err := h.store.ListPackages(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

func (h *Handler) handleListAddons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	addons, err := h.store.ListAddons(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addons)
}

func (h *Handler) handleListCustomFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	features, err := h.store.ListCustomFeatures(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, features)
}

func (h *Handler) handleListPanchayaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	panchayaths, err := h.store.ListPanchayaths(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panchayaths)
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

// decodeRequest decodes a JSON body into target. With allowEmpty an absent
// body leaves target untouched.
func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}, allowEmpty bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, "invalid_request", store.Message(err)
	case errors.Is(err, store.ErrPrecondition):
		return http.StatusUnprocessableEntity, "precondition_failed", store.Message(err)
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "invalid_state", store.Message(err)
	case errors.Is(err, store.ErrAuthorization):
		return http.StatusForbidden, "access_denied", store.Message(err)
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found", store.Message(err)
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromRequest(r)),
			zap.Error(err),
		)
	}
	writeError(w, requestIDFromRequest(r), status, code, message)
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func requestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-ID"))
}
