package contact

import (
	"html"
	"regexp"
	"strings"
	"time"

	"curapharm/internal/domain/validation"
)

// Field names reported by Validate.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Message is a contact form submission.
type Message struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}

// Input holds the raw contact form fields.
type Input struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Validate checks the raw input.
// POST: Returns the set of failing fields; empty means valid
func Validate(in Input) validation.FieldErrors {
	errs := validation.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add(FieldName)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		errs.Add(FieldEmail)
	}
	if strings.TrimSpace(in.Subject) == "" {
		errs.Add(FieldSubject)
	}
	if strings.TrimSpace(in.Message) == "" {
		errs.Add(FieldMessage)
	}
	return errs
}

// FromInput builds the normalized message. The caller assigns ID and CreatedAt.
// PRE: Validate(in) returned no errors
func FromInput(in Input) Message {
	return Message{
		Name:    html.EscapeString(strings.TrimSpace(in.Name)),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Subject: html.EscapeString(strings.TrimSpace(in.Subject)),
		Body:    html.EscapeString(strings.TrimSpace(in.Message)),
	}
}
