package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/store"
)

var exportHeader = []string{
	"booking_number", "status", "customer_name", "customer_phone", "city",
	"scheduled_date", "scheduled_time", "required_staff_count", "total_price",
	"created_at", "finalized_at",
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requirePermission(w, r, access.TabDashboard, access.ActionView); !ok {
		return
	}
	window, ok := h.parseReportRange(w, r)
	if !ok {
		return
	}
	summary, err := h.store.SummarizeBookings(r.Context(), window)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requirePermission(w, r, access.TabBookings, access.ActionView); !ok {
		return
	}
	window, ok := h.parseReportRange(w, r)
	if !ok {
		return
	}
	bookings, err := h.store.ExportBookings(r.Context(), window)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=bookings.csv")
	writer := csv.NewWriter(w)
	_ = writer.Write(exportHeader)
	for _, b := range bookings {
		_ = writer.Write([]string{
			b.BookingNumber,
			b.Status,
			b.CustomerName,
			b.CustomerPhone,
			b.City,
			b.ScheduledDate,
			b.ScheduledTime,
			strconv.Itoa(b.RequiredStaffCount),
			strconv.FormatFloat(b.TotalPrice, 'f', 2, 64),
			b.CreatedAt.Format(time.RFC3339),
			formatTime(b.FinalizedAt),
		})
	}
	writer.Flush()
}

func (h *Handler) handleStaffSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	principal, ok := requireRole(w, r, access.RoleStaff)
	if !ok {
		return
	}
	summary, err := h.store.SummarizeStaff(r.Context(), principal.UserID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) parseReportRange(w http.ResponseWriter, r *http.Request) (store.ReportRange, bool) {
	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return store.ReportRange{}, false
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return store.ReportRange{}, false
	}
	window, err := store.NewReportRange(from, to, h.now())
	if err != nil {
		h.writeStoreError(w, r, err)
		return store.ReportRange{}, false
	}
	return window, true
}

func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", name+" must be RFC3339")
		return nil, false
	}
	return &parsed, true
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(time.RFC3339)
}
