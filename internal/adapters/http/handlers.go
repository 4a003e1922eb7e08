package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"curapharm/internal/adapters/storage/localstore"
	"curapharm/internal/application/forms"
	"curapharm/internal/application/projections"
	customerDomain "curapharm/internal/domain/customer"
	medicineDomain "curapharm/internal/domain/medicine"
	"curapharm/internal/domain/validation"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts markdown to HTML, falling back to escaped text.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTMLEscapeString(md)
	}
	return buf.String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// renderTemplate executes the named page inside the layout.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"siteName":  func() string { return siteCfg.SiteName },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		slog.Error("template_render_failed", "template", templateName, "error", err)
	}
}

// formView carries one form's render state to the template.
type formView struct {
	Title   string
	Editing bool
	Values  map[string]string
	Errors  validation.FieldErrors
	Error   string // duplicate or storage failure message
	Success string
	Warning string // one-time corrupt-load warning
}

// viewFromResult fills a form view from a submit outcome. Raw values are kept
// in the form unless the submission succeeded.
func viewFromResult(res forms.Result, raw map[string]string) formView {
	v := formView{
		Errors:  res.FieldErrors,
		Error:   res.Error,
		Success: res.Success,
	}
	if res.Success == "" {
		v.Values = raw
	}
	return v
}

// medicineView completes a medicine form view: title, edit state, prefill
// when entering the page mid-edit, and the pending corruption warning.
func medicineView(v formView) formView {
	v.Title = medForm.FormTitle()
	editing, index := medForm.State()
	v.Editing = editing
	if editing && v.Values == nil {
		if rec, err := stores.Medicines.Get(index); err == nil {
			v.Values = map[string]string{
				"name":     rec.Name,
				"code":     rec.Code,
				"expiry":   rec.Expiry,
				"quantity": strconv.Itoa(rec.Quantity),
			}
		}
	}
	if v.Warning == "" {
		v.Warning = stores.Medicines.CorruptWarning()
	}
	return v
}

// customerView completes a customer form view.
func customerView(v formView) formView {
	v.Title = custForm.FormTitle()
	editing, index := custForm.State()
	v.Editing = editing
	if editing && v.Values == nil {
		if rec, err := stores.Customers.Get(index); err == nil {
			v.Values = map[string]string{
				"name":      rec.Name,
				"phone":     rec.Phone,
				"email":     rec.Email,
				"insurance": rec.Insurance,
			}
		}
	}
	if v.Warning == "" {
		v.Warning = stores.Customers.CorruptWarning()
	}
	return v
}

// renderRegistration draws the full registration page: both forms, both
// tables and the recomputed analytics counters.
func renderRegistration(w http.ResponseWriter, r *http.Request, medView, custView formView) {
	analytics := projections.QueryGetInventoryAnalytics(
		projections.GetInventoryAnalyticsDeps{MedicineStore: stores.Medicines},
		medicineDomain.Today())

	renderTemplate(w, r, "registration.html", map[string]any{
		"Medicines":    stores.Medicines.All(),
		"Customers":    stores.Customers.All(),
		"Analytics":    analytics,
		"MedicineForm": medicineView(medView),
		"CustomerForm": custView,
	})
}

// handleHome serves the marketing page.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	renderTemplate(w, r, "home.html", map[string]any{
		"Content": template.HTML(homeHTML),
	})
}

// handleRegistration serves the demo page with both collections.
func handleRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	renderRegistration(w, r, formView{}, customerView(formView{}))
}

// --- Medicine form ---

func medicineInput(r *http.Request) medicineDomain.Input {
	return medicineDomain.Input{
		Name:     r.FormValue("name"),
		Code:     r.FormValue("code"),
		Expiry:   r.FormValue("expiry"),
		Quantity: r.FormValue("quantity"),
	}
}

// handleMedicineSubmit handles create-or-edit submits for medicines.
func handleMedicineSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	in := medicineInput(r)
	res := medForm.Submit(r.Context(), in)
	raw := map[string]string{"name": in.Name, "code": in.Code, "expiry": in.Expiry, "quantity": in.Quantity}
	renderRegistration(w, r, viewFromResult(res, raw), customerView(formView{}))
}

// handleMedicineEdit enters edit mode for the indexed medicine. POST so the
// state change sits behind CSRF protection like every other mutation.
func handleMedicineEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if _, err := medForm.EnterEdit(index); err != nil {
		http.Redirect(w, r, "/registration", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/registration#medicine-form", http.StatusSeeOther)
}

// handleMedicineCancel leaves edit mode.
func handleMedicineCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	medForm.CancelEdit()
	http.Redirect(w, r, "/registration", http.StatusSeeOther)
}

// handleMedicineDelete removes the indexed medicine. The confirmation step
// happens client-side before the form posts.
func handleMedicineDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	view := formView{}
	if err := stores.Medicines.Remove(r.Context(), index); err != nil {
		view.Error = localstore.FailureMessage(err)
	} else {
		view.Success = "medicine deleted successfully"
		slog.Info("medicine_event", "event", "medicine_deleted", "index", index)
	}
	renderRegistration(w, r, view, customerView(formView{}))
}

// --- Customer form ---

func customerInput(r *http.Request) customerDomain.Input {
	return customerDomain.Input{
		Name:      r.FormValue("name"),
		Phone:     r.FormValue("phone"),
		Email:     r.FormValue("email"),
		Insurance: r.FormValue("insurance"),
	}
}

// handleCustomerSubmit handles create-or-edit submits for customers.
func handleCustomerSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	in := customerInput(r)
	res := custForm.Submit(r.Context(), in)
	raw := map[string]string{"name": in.Name, "phone": in.Phone, "email": in.Email, "insurance": in.Insurance}
	renderRegistration(w, r, formView{}, customerView(viewFromResult(res, raw)))
}

// handleCustomerEdit enters edit mode for the indexed customer.
func handleCustomerEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if _, err := custForm.EnterEdit(index); err != nil {
		http.Redirect(w, r, "/registration", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/registration#customer-form", http.StatusSeeOther)
}

// handleCustomerCancel leaves edit mode.
func handleCustomerCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	custForm.CancelEdit()
	http.Redirect(w, r, "/registration", http.StatusSeeOther)
}

// handleCustomerDelete removes the indexed customer.
func handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	view := formView{}
	if err := stores.Customers.Remove(r.Context(), index); err != nil {
		view.Error = localstore.FailureMessage(err)
	} else {
		view.Success = "customer deleted successfully"
		slog.Info("customer_event", "event", "customer_deleted", "index", index)
	}
	renderRegistration(w, r, formView{}, customerView(view))
}

// handleAnalyticsAPI returns the medicine counters as JSON.
func handleAnalyticsAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	analytics := projections.QueryGetInventoryAnalytics(
		projections.GetInventoryAnalyticsDeps{MedicineStore: stores.Medicines},
		medicineDomain.Today())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analytics)
}
