package models

import (
	"encoding/json"
	"time"
)

type Booking struct {
	BookingID          string     `json:"booking_id"`
	BookingNumber      string     `json:"booking_number"`
	CustomerUserID     string     `json:"customer_user_id"`
	CustomerName       string     `json:"customer_name"`
	CustomerPhone      string     `json:"customer_phone"`
	CustomerEmail      string     `json:"customer_email,omitempty"`
	AddressLine1       string     `json:"address_line1"`
	City               string     `json:"city"`
	PackageID          string     `json:"package_id"`
	AddonIDs           []string   `json:"addon_ids"`
	CustomFeatureIDs   []string   `json:"custom_feature_ids"`
	ScheduledDate      string     `json:"scheduled_date"`
	ScheduledTime      string     `json:"scheduled_time"`
	ReportBefore       *time.Time `json:"report_before,omitempty"`
	PanchayathID       *string    `json:"panchayath_id,omitempty"`
	RequiredStaffCount int        `json:"required_staff_count"`
	Status             string     `json:"status"`
	TotalPrice         float64    `json:"total_price"`
	FinalizedAt        *time.Time `json:"finalized_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Assignments []StaffAssignment `json:"assignments,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	DefaultRequiredStaffCount = 2
	MinRequiredStaffCount     = 1
	MaxRequiredStaffCount     = 10
)

// AcceptedStaff returns the ids of staff whose assignment is accepted.
func (b Booking) AcceptedStaff() []string {
	var ids []string
	for _, a := range b.Assignments {
		if a.Status == AssignmentAccepted {
			ids = append(ids, a.StaffUserID)
		}
	}
	return ids
}

type BookingEvent struct {
	EventID     string          `json:"event_id"`
	BookingID   string          `json:"booking_id"`
	Type        string          `json:"type"`
	ActorUserID string          `json:"actor_user_id,omitempty"`
	FromStatus  string          `json:"from_status,omitempty"`
	ToStatus    string          `json:"to_status,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
