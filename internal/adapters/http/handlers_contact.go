package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"curapharm/internal/application/orchestrators"
	"curapharm/internal/domain/contact"
)

// contactView carries the contact form's render state.
type contactView struct {
	Values  map[string]string
	Errors  map[string]bool
	Error   string
	Success string
}

// handleContact serves the contact page and accepts submissions.
func handleContact(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, "contact.html", map[string]any{"Form": contactView{}})
	case http.MethodPost:
		handleContactSubmit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	in := contact.Input{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Subject: r.FormValue("subject"),
		Message: r.FormValue("message"),
	}

	deps := orchestrators.SubmitContactDeps{
		ContactStore: stores.Contacts,
		Sender:       emailSender,
		RecipientTo:  siteCfg.ContactTo,
		FromAddress:  emailFromAddress,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	}

	res, err := orchestrators.ExecuteSubmitContact(r.Context(), in, deps)
	view := contactView{}
	switch {
	case err != nil:
		view.Error = "sending failed, try again"
		view.Values = map[string]string{"name": in.Name, "email": in.Email, "subject": in.Subject, "message": in.Message}
	case !res.FieldErrors.OK():
		view.Errors = res.FieldErrors
		view.Values = map[string]string{"name": in.Name, "email": in.Email, "subject": in.Subject, "message": in.Message}
	default:
		view.Success = "your message has been sent, we will contact you soon"
	}
	renderTemplate(w, r, "contact.html", map[string]any{"Form": view})
}
