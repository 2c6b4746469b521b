package models

import "time"

type Profile struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PanchayathID string    `json:"panchayath_id,omitempty"`
	WardNumber   int       `json:"ward_number,omitempty"`
	Created      time.Time `json:"created_at"`
}

type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UserRole struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
