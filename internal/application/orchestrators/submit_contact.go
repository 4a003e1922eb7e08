package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"curapharm/internal/adapters/email"
	"curapharm/internal/domain/contact"
	"curapharm/internal/domain/validation"
)

// ContactStoreForOrchestrator defines the store interface needed by the
// contact orchestrator.
type ContactStoreForOrchestrator interface {
	Save(ctx context.Context, m contact.Message) error
}

// SubmitContactDeps holds dependencies for SubmitContact.
type SubmitContactDeps struct {
	ContactStore ContactStoreForOrchestrator
	Sender       email.Sender
	RecipientTo  string // pharmacy inbox that receives the notification
	FromAddress  string
	GenerateID   func() string
	Now          func() time.Time
}

// SubmitContactResult carries the outcome back to the form.
type SubmitContactResult struct {
	FieldErrors validation.FieldErrors
	Message     contact.Message
}

// ExecuteSubmitContact validates a contact submission, persists it, and
// sends a notification email. A failed email send does not fail the
// submission; the message is already stored.
// PRE: deps are fully wired
// POST: On success the message is persisted with a generated ID
func ExecuteSubmitContact(ctx context.Context, in contact.Input, deps SubmitContactDeps) (SubmitContactResult, error) {
	if errs := contact.Validate(in); !errs.OK() {
		return SubmitContactResult{FieldErrors: errs}, nil
	}

	m := contact.FromInput(in)
	m.ID = deps.GenerateID()
	m.CreatedAt = deps.Now()

	if err := deps.ContactStore.Save(ctx, m); err != nil {
		return SubmitContactResult{}, fmt.Errorf("saving contact message: %w", err)
	}

	body := fmt.Sprintf("<p><strong>%s</strong> (%s)</p><p>%s</p>", m.Name, m.Email, m.Body)
	_, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{deps.RecipientTo},
		From:    deps.FromAddress,
		Subject: "Contact form: " + m.Subject,
		HTML:    body,
		ReplyTo: m.Email,
	})
	if err != nil {
		slog.Warn("contact_email_failed", "message_id", m.ID, "error", err)
	}

	slog.Info("contact_event", "event", "message_received", "message_id", m.ID, "subject", m.Subject)
	return SubmitContactResult{Message: m}, nil
}
