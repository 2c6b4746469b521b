package store

import (
	"context"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/models"
)

type CreateBookingInput struct {
	CustomerUserID   string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	AddressLine1     string
	City             string
	PackageID        string
	AddonIDs         []string
	CustomFeatureIDs []string
	ScheduledDate    string
	ScheduledTime    string
	CreatedAt        time.Time
}

type ListBookingsFilter struct {
	Status string
	Limit  int
}

type ConfirmInput struct {
	BookingID          string
	ActorUserID        string
	PanchayathID       string
	ReportBefore       *time.Time
	RequiredStaffCount int
	OccurredAt         time.Time
}

type AssignInput struct {
	BookingID    string
	ActorUserID  string
	StaffUserIDs []string
	OccurredAt   time.Time
}

type StaffActionInput struct {
	BookingID   string
	StaffUserID string
	OccurredAt  time.Time
}

type CancelInput struct {
	BookingID   string
	ActorUserID string
	AsAdmin     bool
	OccurredAt  time.Time
}

type FinalizeInput struct {
	BookingID       string
	ActorUserID     string
	EarningPerStaff float64
	BonusPerStaff   float64
	OccurredAt      time.Time
}

type FinalizeResult struct {
	Booking  models.Booking        `json:"booking"`
	Earnings []models.StaffEarning `json:"earnings"`
}

type RegisterCustomerInput struct {
	Name         string
	Mobile       string
	PanchayathID string
	WardNumber   int
}

type BookingStore interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (models.Booking, error)
	ListBookings(ctx context.Context, filter ListBookingsFilter) ([]models.Booking, error)
	ListBookingEvents(ctx context.Context, bookingID string) ([]models.BookingEvent, error)
	ConfirmBooking(ctx context.Context, input ConfirmInput) (models.Booking, error)
	AssignStaff(ctx context.Context, input AssignInput) (models.Booking, error)
	AcceptJob(ctx context.Context, input StaffActionInput) (models.Booking, error)
	RejectJob(ctx context.Context, input StaffActionInput) (models.Booking, error)
	StartJob(ctx context.Context, input StaffActionInput) (models.Booking, error)
	CompleteJob(ctx context.Context, input StaffActionInput) (models.Booking, error)
	CancelBooking(ctx context.Context, input CancelInput) (models.Booking, error)
	FinalizeBooking(ctx context.Context, input FinalizeInput) (FinalizeResult, error)
	ListEligibleStaff(ctx context.Context, bookingID string) ([]models.StaffMember, error)
	ListStaffJobs(ctx context.Context, staffUserID string) ([]models.StaffJob, error)
	ListStaffEarnings(ctx context.Context, staffUserID string) ([]models.StaffEarning, error)
}

type AccessStore interface {
	GetSession(ctx context.Context, sessionID string) (models.Session, error)
	GetRole(ctx context.Context, userID string) (access.Role, error)
	ListPermissions(ctx context.Context, userID string) ([]string, error)
	SetPermissions(ctx context.Context, userID string, keys []string) error
	UpdateUserRole(ctx context.Context, userID string, role access.Role) error
	RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (string, error)
}

type CatalogStore interface {
	ListPackages(ctx context.Context) ([]models.Package, error)
	ListAddons(ctx context.Context) ([]models.Addon, error)
	ListCustomFeatures(ctx context.Context) ([]models.CustomFeature, error)
	ListPanchayaths(ctx context.Context) ([]models.Panchayath, error)
}

type Store interface {
	BookingStore
	AccessStore
	CatalogStore
	ReportStore
}
