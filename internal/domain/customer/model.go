package customer

import (
	"html"
	"regexp"
	"strings"

	"curapharm/internal/domain/validation"
)

// Field names reported by Validate.
const (
	FieldName      = "name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldInsurance = "insurance"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10,}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Customer is one registered customer record. The JSON tags match the
// persisted shape.
type Customer struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Insurance string `json:"insurance"`
}

// Input holds the raw form field values before validation and normalization.
type Input struct {
	Name      string
	Phone     string
	Email     string
	Insurance string
}

// Validate checks the raw input.
// POST: Returns the set of failing fields; empty means valid
func Validate(in Input) validation.FieldErrors {
	errs := validation.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add(FieldName)
	}
	if !phonePattern.MatchString(strings.TrimSpace(in.Phone)) {
		errs.Add(FieldPhone)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		errs.Add(FieldEmail)
	}
	if strings.TrimSpace(in.Insurance) == "" {
		errs.Add(FieldInsurance)
	}
	return errs
}

// FromInput builds the normalized record: fields are trimmed, free text is
// escaped as plain text, and the email is lowercased.
// PRE: Validate(in) returned no errors
func FromInput(in Input) Customer {
	return Customer{
		Name:      html.EscapeString(strings.TrimSpace(in.Name)),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Insurance: html.EscapeString(strings.TrimSpace(in.Insurance)),
	}
}

// Conflicts reports whether two records collide on phone or email, the pair
// of unique fields within the collection.
func Conflicts(candidate, existing Customer) bool {
	return candidate.Phone == existing.Phone || candidate.Email == existing.Email
}

// DisplayInsurance returns the insurance text, or "-" when absent.
func (c Customer) DisplayInsurance() string {
	if c.Insurance == "" {
		return "-"
	}
	return c.Insurance
}

// Seeds returns the two default records used when no persisted data exists.
func Seeds() []Customer {
	return []Customer{
		{Name: "Ahmed Mohamed", Phone: "0123456789", Email: "ahmed@example.com", Insurance: "HealthPlus Insurance"},
		{Name: "Fatima Ali", Phone: "0987654321", Email: "fatima@example.com", Insurance: "National Insurance"},
	}
}
