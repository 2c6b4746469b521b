package models

import "time"

type StaffAssignment struct {
	BookingID   string    `json:"booking_id"`
	StaffUserID string    `json:"staff_user_id"`
	Status      string    `json:"status"`
	AssignedAt  time.Time `json:"assigned_at"`
}

const (
	AssignmentPending  = "pending"
	AssignmentAccepted = "accepted"
	AssignmentRejected = "rejected"
)

// StaffJob is a staff member's view of one booking: either an assignment
// row they hold or an open job visible through their panchayath.
type StaffJob struct {
	Booking          Booking `json:"booking"`
	AssignmentStatus string  `json:"assignment_status,omitempty"`
	Open             bool    `json:"open"`
}

type StaffMember struct {
	UserID       string  `json:"user_id"`
	FullName     string  `json:"full_name"`
	Phone        string  `json:"phone,omitempty"`
	PanchayathID string  `json:"panchayath_id"`
	WardNumbers  []int32 `json:"ward_numbers,omitempty"`
}
