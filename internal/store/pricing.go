package store

import (
	"strings"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
)

const scheduledDateLayout = "2006-01-02"

// TotalPrice is the package price plus every selected add-on and custom
// feature. It is computed once when the booking is created.
func TotalPrice(pkg models.Package, addons []models.Addon, features []models.CustomFeature) float64 {
	total := pkg.Price
	for _, addon := range addons {
		total += addon.Price
	}
	for _, feature := range features {
		total += feature.Price
	}
	return roundMoney(total)
}

// ValidateCreate checks the customer snapshot and schedule of a new booking
// and returns the input with trimmed fields and de-duplicated selections.
func ValidateCreate(input CreateBookingInput) (CreateBookingInput, error) {
	const op = "create booking"
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerPhone = strings.TrimSpace(input.CustomerPhone)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	input.AddressLine1 = strings.TrimSpace(input.AddressLine1)
	input.City = strings.TrimSpace(input.City)
	input.PackageID = strings.TrimSpace(input.PackageID)
	input.ScheduledDate = strings.TrimSpace(input.ScheduledDate)
	input.ScheduledTime = strings.TrimSpace(input.ScheduledTime)
	input.AddonIDs = NormalizeIDs(input.AddonIDs)
	input.CustomFeatureIDs = NormalizeIDs(input.CustomFeatureIDs)

	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"customer_user_id", input.CustomerUserID},
		{"customer_name", input.CustomerName},
		{"customer_phone", input.CustomerPhone},
		{"address_line1", input.AddressLine1},
		{"city", input.City},
		{"package_id", input.PackageID},
		{"scheduled_date", input.ScheduledDate},
		{"scheduled_time", input.ScheduledTime},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return CreateBookingInput{}, Validation(op, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if _, err := time.Parse(scheduledDateLayout, input.ScheduledDate); err != nil {
		return CreateBookingInput{}, Validation(op, "scheduled_date must be YYYY-MM-DD")
	}
	return input, nil
}
