package store

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const minMobileDigits = 10

const (
	msgRegistrationFieldsRequired = "All fields are required"
	msgRegistrationInvalidMobile  = "Invalid mobile number"
	msgRegistrationDuplicate      = "An account with this mobile number already exists"
	msgRegistrationPanchayath     = "Invalid panchayath"
)

// ValidateRegistration checks a self-registration request and returns it
// with the mobile number reduced to its digits.
func ValidateRegistration(input RegisterCustomerInput) (RegisterCustomerInput, error) {
	const op = "register customer"
	input.Name = strings.TrimSpace(input.Name)
	input.PanchayathID = strings.TrimSpace(input.PanchayathID)
	if input.Name == "" || strings.TrimSpace(input.Mobile) == "" || input.PanchayathID == "" || input.WardNumber == 0 {
		return RegisterCustomerInput{}, Validation(op, msgRegistrationFieldsRequired)
	}
	input.Mobile = digitsOnly(input.Mobile)
	if len(input.Mobile) < minMobileDigits {
		return RegisterCustomerInput{}, Validation(op, msgRegistrationInvalidMobile)
	}
	if _, err := uuid.Parse(input.PanchayathID); err != nil || input.WardNumber < 1 {
		return RegisterCustomerInput{}, UnknownPanchayath()
	}
	return input, nil
}

func UnknownPanchayath() error {
	return Validation("register customer", msgRegistrationPanchayath)
}

// WardInPanchayath reports whether ward is one of the panchayath's numbered
// wards. A ward count of zero means the wards were never configured.
func WardInPanchayath(ward, wardCount int) bool {
	if ward < 1 {
		return false
	}
	return wardCount == 0 || ward <= wardCount
}

// DuplicateMobile is the conflict returned when a profile already owns the
// mobile number.
func DuplicateMobile() error {
	return Conflict("register customer", msgRegistrationDuplicate)
}

// CustomerEmail and CustomerPassword derive the placeholder credentials of a
// self-registered customer from the normalized mobile number.
func CustomerEmail(mobile string) string {
	return mobile + "@customer.handrest.local"
}

func CustomerPassword(mobile string) string {
	return "hr_" + mobile + "_auto"
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
