package medicine

import (
	"html"
	"strconv"
	"strings"
	"time"

	"curapharm/internal/domain/validation"
)

// Field names reported by Validate.
const (
	FieldName     = "name"
	FieldCode     = "code"
	FieldExpiry   = "expiry"
	FieldQuantity = "quantity"
)

// LowStockThreshold is the quantity below which a medicine counts as low stock.
const LowStockThreshold = 10

// DateLayout is the fixed-width expiry date format. Because it is fixed-width
// ISO, lexicographic comparison orders dates correctly.
const DateLayout = "2006-01-02"

// Medicine is one inventory record. The JSON tags match the persisted shape.
type Medicine struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Expiry   string `json:"expiry"` // YYYY-MM-DD
	Quantity int    `json:"quantity"`
}

// Input holds the raw form field values before validation and normalization.
type Input struct {
	Name     string
	Code     string
	Expiry   string
	Quantity string
}

// Validate checks the raw input against today's date (YYYY-MM-DD).
// PRE: today is a fixed-width ISO date
// POST: Returns the set of failing fields; empty means valid
func Validate(in Input, today string) validation.FieldErrors {
	errs := validation.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add(FieldName)
	}
	if strings.TrimSpace(in.Code) == "" {
		errs.Add(FieldCode)
	}
	if in.Expiry == "" || in.Expiry < today {
		errs.Add(FieldExpiry)
	}
	if q, err := strconv.Atoi(strings.TrimSpace(in.Quantity)); err != nil || q < 1 {
		errs.Add(FieldQuantity)
	}
	return errs
}

// FromInput builds the normalized record: fields are trimmed, free text is
// escaped as plain text, and the code is uppercased.
// PRE: Validate(in, today) returned no errors
func FromInput(in Input) Medicine {
	q, _ := strconv.Atoi(strings.TrimSpace(in.Quantity))
	return Medicine{
		Name:     html.EscapeString(strings.TrimSpace(in.Name)),
		Code:     html.EscapeString(strings.ToUpper(strings.TrimSpace(in.Code))),
		Expiry:   in.Expiry,
		Quantity: q,
	}
}

// Conflicts reports whether two records collide on the unique code.
func Conflicts(candidate, existing Medicine) bool {
	return candidate.Code == existing.Code
}

// Expired reports whether the record's expiry date is before today.
func (m Medicine) Expired(today string) bool {
	return m.Expiry < today
}

// LowStock reports whether the quantity is below the low-stock threshold.
func (m Medicine) LowStock() bool {
	return m.Quantity < LowStockThreshold
}

// Today returns the current UTC calendar date in the fixed ISO layout.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// Seeds returns the two default records used when no persisted data exists.
func Seeds() []Medicine {
	return []Medicine{
		{Name: "Paracetamol", Code: "MED001", Expiry: "2026-12-31", Quantity: 100},
		{Name: "Amoxicillin", Code: "MED002", Expiry: "2025-06-30", Quantity: 50},
	}
}
