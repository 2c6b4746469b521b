package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"go.uber.org/zap"
)

type createBookingRequest struct {
	PackageID        string   `json:"package_id"`
	AddonIDs         []string `json:"addon_ids"`
	CustomFeatureIDs []string `json:"custom_feature_ids"`
	CustomerName     string   `json:"customer_name"`
	CustomerPhone    string   `json:"customer_phone"`
	CustomerEmail    string   `json:"customer_email"`
	AddressLine1     string   `json:"address_line1"`
	City             string   `json:"city"`
	ScheduledDate    string   `json:"scheduled_date"`
	ScheduledTime    string   `json:"scheduled_time"`
}

type confirmRequest struct {
	PanchayathID       string `json:"panchayath_id"`
	ReportBefore       string `json:"report_before"`
	RequiredStaffCount int    `json:"required_staff_count"`
}

type assignRequest struct {
	StaffUserIDs []string `json:"staff_user_ids"`
}

type finalizeRequest struct {
	EarningPerStaff float64 `json:"earning_per_staff"`
	BonusPerStaff   float64 `json:"bonus_per_staff"`
}

func (h *Handler) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListBookings(w, r)
	case http.MethodPost:
		h.handleCreateBooking(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleListBookings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePermission(w, r, access.TabBookings, access.ActionView); !ok {
		return
	}
	filter := store.ListBookingsFilter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	bookings, err := h.store.ListBookings(r.Context(), filter)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireRole(w, r, access.RoleCustomer)
	if !ok {
		return
	}
	var req createBookingRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	req.PackageID = strings.TrimSpace(req.PackageID)
	if !isValidUUID(req.PackageID) {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "package_id must be a UUID")
		return
	}
	for _, id := range append(append([]string{}, req.AddonIDs...), req.CustomFeatureIDs...) {
		if !isValidUUID(strings.TrimSpace(id)) {
			writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "addon_ids and custom_feature_ids must be UUIDs")
			return
		}
	}

	booking, err := h.store.CreateBooking(r.Context(), store.CreateBookingInput{
		CustomerUserID:   principal.UserID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		AddressLine1:     req.AddressLine1,
		City:             req.City,
		PackageID:        req.PackageID,
		AddonIDs:         req.AddonIDs,
		CustomFeatureIDs: req.CustomFeatureIDs,
		ScheduledDate:    req.ScheduledDate,
		ScheduledTime:    req.ScheduledTime,
		CreatedAt:        h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, "create", booking)
	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingRoutes serves /api/bookings/{id}, /api/bookings/{id}/events,
// /api/bookings/{id}/eligible-staff and /api/bookings/{id}/actions/{action}.
func (h *Handler) handleBookingRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	bookingID := parts[0]
	if !isValidUUID(bookingID) {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "booking_id must be a UUID")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleGetBooking(w, r, bookingID)
	case len(parts) == 2 && parts[1] == "events":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleBookingEvents(w, r, bookingID)
	case len(parts) == 2 && parts[1] == "eligible-staff":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleEligibleStaff(w, r, bookingID)
	case len(parts) == 3 && parts[1] == "actions":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleBookingAction(w, r, bookingID, parts[2])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleBookingAction(w http.ResponseWriter, r *http.Request, bookingID, action string) {
	switch action {
	case "confirm":
		h.handleConfirm(w, r, bookingID)
	case "assign":
		h.handleAssign(w, r, bookingID)
	case "finalize":
		h.handleFinalize(w, r, bookingID)
	case "cancel":
		h.handleCancel(w, r, bookingID)
	case "accept":
		h.handleStaffAction(w, r, bookingID, action, h.store.AcceptJob)
	case "reject":
		h.handleStaffAction(w, r, bookingID, action, h.store.RejectJob)
	case "start":
		h.handleStaffAction(w, r, bookingID, action, h.store.StartJob)
	case "complete":
		h.handleStaffAction(w, r, bookingID, action, h.store.CompleteJob)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// handleGetBooking allows admins with bookings.view, the owning customer and
// staff holding an assignment row for the booking.
func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request, bookingID string) {
	principal, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	booking, err := h.store.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !canViewBooking(principal, booking) {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "booking access denied")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func canViewBooking(principal access.Principal, booking models.Booking) bool {
	if principal.HasPermission(access.TabBookings, access.ActionView) {
		return true
	}
	switch principal.Role {
	case access.RoleCustomer:
		return booking.CustomerUserID == principal.UserID
	case access.RoleStaff:
		for _, a := range booking.Assignments {
			if a.StaffUserID == principal.UserID {
				return true
			}
		}
	}
	return false
}

func (h *Handler) handleBookingEvents(w http.ResponseWriter, r *http.Request, bookingID string) {
	if _, ok := requirePermission(w, r, access.TabBookings, access.ActionView); !ok {
		return
	}
	events, err := h.store.ListBookingEvents(r.Context(), bookingID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if events == nil {
		events = []models.BookingEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleEligibleStaff(w http.ResponseWriter, r *http.Request, bookingID string) {
	if _, ok := requirePermission(w, r, access.TabStaff, access.ActionView); !ok {
		return
	}
	staff, err := h.store.ListEligibleStaff(r.Context(), bookingID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request, bookingID string) {
	principal, ok := requirePermission(w, r, access.TabBookings, access.ActionEdit)
	if !ok {
		return
	}
	var req confirmRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	req.PanchayathID = strings.TrimSpace(req.PanchayathID)
	req.ReportBefore = strings.TrimSpace(req.ReportBefore)
	if req.PanchayathID != "" && !isValidUUID(req.PanchayathID) {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "panchayath_id must be a UUID")
		return
	}
	var reportBefore *time.Time
	if req.ReportBefore != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReportBefore)
		if err != nil {
			writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "report_before must be an RFC 3339 timestamp")
			return
		}
		reportBefore = &parsed
	}

	booking, err := h.store.ConfirmBooking(r.Context(), store.ConfirmInput{
		BookingID:          bookingID,
		ActorUserID:        principal.UserID,
		PanchayathID:       req.PanchayathID,
		ReportBefore:       reportBefore,
		RequiredStaffCount: req.RequiredStaffCount,
		OccurredAt:         h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, "confirm", booking)
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request, bookingID string) {
	principal, ok := requirePermission(w, r, access.TabBookings, access.ActionEdit)
	if !ok {
		return
	}
	var req assignRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	booking, err := h.store.AssignStaff(r.Context(), store.AssignInput{
		BookingID:    bookingID,
		ActorUserID:  principal.UserID,
		StaffUserIDs: req.StaffUserIDs,
		OccurredAt:   h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, "assign", booking)
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request, bookingID string) {
	principal, ok := requirePermission(w, r, access.TabBookings, access.ActionEdit)
	if !ok {
		return
	}
	var req finalizeRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	result, err := h.store.FinalizeBooking(r.Context(), store.FinalizeInput{
		BookingID:       bookingID,
		ActorUserID:     principal.UserID,
		EarningPerStaff: req.EarningPerStaff,
		BonusPerStaff:   req.BonusPerStaff,
		OccurredAt:      h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, "finalize", result.Booking, zap.Int("earnings", len(result.Earnings)))
	writeJSON(w, http.StatusOK, result)
}

// handleCancel accepts admins with bookings.edit and customers cancelling
// their own booking; ownership is checked under the booking lock.
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request, bookingID string) {
	principal, ok := principalFromRequest(w, r)
	if !ok {
		return
	}
	asAdmin := principal.HasPermission(access.TabBookings, access.ActionEdit)
	if !asAdmin && principal.Role != access.RoleCustomer {
		writeError(w, requestIDFromRequest(r), http.StatusForbidden, "access_denied", "missing permission "+access.Key(access.TabBookings, access.ActionEdit))
		return
	}
	var req struct{}
	if !decodeRequest(w, r, &req, true) {
		return
	}
	booking, err := h.store.CancelBooking(r.Context(), store.CancelInput{
		BookingID:   bookingID,
		ActorUserID: principal.UserID,
		AsAdmin:     asAdmin,
		OccurredAt:  h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, "cancel", booking)
	writeJSON(w, http.StatusOK, booking)
}

type staffActionFunc func(ctx context.Context, input store.StaffActionInput) (models.Booking, error)

func (h *Handler) handleStaffAction(w http.ResponseWriter, r *http.Request, bookingID, action string, fn staffActionFunc) {
	principal, ok := requireRole(w, r, access.RoleStaff)
	if !ok {
		return
	}
	var req struct{}
	if !decodeRequest(w, r, &req, true) {
		return
	}
	booking, err := fn(r.Context(), store.StaffActionInput{
		BookingID:   bookingID,
		StaffUserID: principal.UserID,
		OccurredAt:  h.now(),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.logTransition(r, action, booking)
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleStaffJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	principal, ok := requireRole(w, r, access.RoleStaff)
	if !ok {
		return
	}
	jobs, err := h.store.ListStaffJobs(r.Context(), principal.UserID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) handleStaffEarnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	principal, ok := requireRole(w, r, access.RoleStaff)
	if !ok {
		return
	}
	earnings, err := h.store.ListStaffEarnings(r.Context(), principal.UserID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

func (h *Handler) logTransition(r *http.Request, action string, booking models.Booking, fields ...zap.Field) {
	bookingTransitions.Add(action, 1)
	principal, _ := access.FromContext(r.Context())
	h.logger.Info("booking updated", append([]zap.Field{
		zap.String("action", action),
		zap.String("booking_id", booking.BookingID),
		zap.String("status", booking.Status),
		zap.String("actor_id", principal.UserID),
		zap.String("request_id", requestIDFromRequest(r)),
	}, fields...)...)
}
