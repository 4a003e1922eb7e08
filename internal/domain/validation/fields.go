// Package validation carries the field-level validation result shared by the
// record form validators.
package validation

// FieldErrors is the set of field names that failed validation.
type FieldErrors map[string]bool

// Add marks a field as failed.
func (fe FieldErrors) Add(field string) {
	fe[field] = true
}

// Has reports whether the given field failed.
func (fe FieldErrors) Has(field string) bool {
	return fe[field]
}

// OK reports whether validation passed with no field errors.
func (fe FieldErrors) OK() bool {
	return len(fe) == 0
}
