package models

import "time"

type StaffEarning struct {
	EarningID   string    `json:"earning_id"`
	BookingID   string    `json:"booking_id"`
	StaffUserID string    `json:"staff_user_id"`
	BaseAmount  float64   `json:"base_amount"`
	BonusAmount float64   `json:"bonus_amount"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const EarningPending = "pending"
