package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"curapharm/internal/adapters/email"
	customerStore "curapharm/internal/adapters/storage/customer"
	"curapharm/internal/adapters/storage/localstore"
	medicineStore "curapharm/internal/adapters/storage/medicine"
	"curapharm/internal/application/projections"
	"curapharm/internal/config"
	contactDomain "curapharm/internal/domain/contact"
)

// memKV is an in-memory storage adapter for handler tests. Setting saveErr
// makes every write fail with that error.
type memKV struct {
	data    map[string][]byte
	saveErr error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) LoadList(_ context.Context, key string) ([]json.RawMessage, bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (m *memKV) SaveList(_ context.Context, key string, v any) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

// mockContactStore collects saved contact messages.
type mockContactStore struct {
	saved []contactDomain.Message
}

func (m *mockContactStore) Save(_ context.Context, msg contactDomain.Message) error {
	m.saved = append(m.saved, msg)
	return nil
}

func (m *mockContactStore) List(_ context.Context, limit int) ([]contactDomain.Message, error) {
	if limit > len(m.saved) {
		limit = len(m.saved)
	}
	return m.saved[:limit], nil
}

// setupTestApp wires the package globals with seeded in-memory stores and
// returns the contact mock and the storage fake for assertions.
func setupTestApp(t *testing.T) (*mockContactStore, *memKV) {
	t.Helper()

	kv := newMemKV()
	medicines := medicineStore.NewStore(kv)
	customers := customerStore.NewStore(kv)
	ctx := context.Background()
	if err := medicines.Initialize(ctx); err != nil {
		t.Fatalf("failed to initialize medicines: %v", err)
	}
	if err := customers.Initialize(ctx); err != nil {
		t.Fatalf("failed to initialize customers: %v", err)
	}

	contacts := &mockContactStore{}
	cfg := &config.Config{
		SiteName:  "CuraPharm",
		ContactTo: "info@curapharm.example",
	}
	initApp(cfg, &Stores{Medicines: medicines, Customers: customers, Contacts: contacts}, "# Welcome to CuraPharm")
	SetEmailSender(email.NewNoopSender(), "CuraPharm <noreply@curapharm.example>")
	return contacts, kv
}

func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// TestGetHome tests the marketing page.
func TestGetHome(t *testing.T) {
	setupTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handleHome(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Welcome to CuraPharm") {
		t.Errorf("body missing rendered markdown content")
	}

	// Unknown paths under the catch-all route are 404s.
	req = httptest.NewRequest("GET", "/no-such-page", nil)
	rec = httptest.NewRecorder()
	handleHome(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestGetRegistration tests the seeded registration page.
func TestGetRegistration(t *testing.T) {
	setupTestApp(t)

	req := httptest.NewRequest("GET", "/registration", nil)
	rec := httptest.NewRecorder()
	handleRegistration(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"Paracetamol", "MED002", "Ahmed Mohamed", "Add New Medicine", "Add New Customer"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

// TestPostMedicines tests create submissions for the medicine form.
func TestPostMedicines(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantBody  string
		wantCount int
	}{
		{
			name: "valid medicine is added",
			form: url.Values{
				"name":     []string{"Ibuprofen"},
				"code":     []string{"MED003"},
				"expiry":   []string{"2099-01-01"},
				"quantity": []string{"30"},
			},
			wantBody:  "medicine added successfully",
			wantCount: 3,
		},
		{
			name: "duplicate code is rejected",
			form: url.Values{
				"name":     []string{"Other Paracetamol"},
				"code":     []string{"MED001"},
				"expiry":   []string{"2099-01-01"},
				"quantity": []string{"30"},
			},
			wantBody:  "medicine code already exists",
			wantCount: 2,
		},
		{
			name: "duplicate code matches case-insensitively",
			form: url.Values{
				"name":     []string{"Other Paracetamol"},
				"code":     []string{"med001"},
				"expiry":   []string{"2099-01-01"},
				"quantity": []string{"30"},
			},
			wantBody:  "medicine code already exists",
			wantCount: 2,
		},
		{
			name: "missing name shows a field error",
			form: url.Values{
				"name":     []string{"   "},
				"code":     []string{"MED003"},
				"expiry":   []string{"2099-01-01"},
				"quantity": []string{"30"},
			},
			wantBody:  "medicine name is required",
			wantCount: 2,
		},
		{
			name: "zero quantity shows a field error",
			form: url.Values{
				"name":     []string{"Ibuprofen"},
				"code":     []string{"MED003"},
				"expiry":   []string{"2099-01-01"},
				"quantity": []string{"0"},
			},
			wantBody:  "quantity must be at least 1",
			wantCount: 2,
		},
		{
			name: "past expiry shows a field error",
			form: url.Values{
				"name":     []string{"Ibuprofen"},
				"code":     []string{"MED003"},
				"expiry":   []string{"2001-01-01"},
				"quantity": []string{"30"},
			},
			wantBody:  "expiry date must be today or later",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestApp(t)
			rec := postForm(handleMedicineSubmit, "/medicines", tt.form)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
			if got := stores.Medicines.Len(); got != tt.wantCount {
				t.Errorf("medicine count = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

// TestMedicineEditFlow tests enter-edit, update submit, and cancel.
func TestMedicineEditFlow(t *testing.T) {
	setupTestApp(t)

	// Entering edit mode is a mutation; GET is refused
	req := httptest.NewRequest("GET", "/medicines/edit?index=0", nil)
	rec := httptest.NewRecorder()
	handleMedicineEdit(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET edit status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	// Enter edit mode for the first seed
	rec = postForm(handleMedicineEdit, "/medicines/edit", url.Values{"index": []string{"0"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	// The registration page now shows the edit form prefilled
	req = httptest.NewRequest("GET", "/registration", nil)
	rec = httptest.NewRecorder()
	handleRegistration(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body, "Edit Medicine") {
		t.Errorf("body missing edit title")
	}
	if !strings.Contains(body, `value="Paracetamol"`) {
		t.Errorf("form not prefilled with record under edit")
	}

	// Submitting replaces the record in place and returns to create mode
	rec = postForm(handleMedicineSubmit, "/medicines", url.Values{
		"name":     []string{"Paracetamol Extra"},
		"code":     []string{"MED001"},
		"expiry":   []string{"2099-06-30"},
		"quantity": []string{"75"},
	})
	if !strings.Contains(rec.Body.String(), "medicine updated successfully") {
		t.Errorf("body missing update confirmation")
	}
	got, err := stores.Medicines.Get(0)
	if err != nil {
		t.Fatalf("Get(0) error: %v", err)
	}
	if got.Name != "Paracetamol Extra" || got.Quantity != 75 {
		t.Errorf("record not updated: %+v", got)
	}
	if editing, _ := medForm.State(); editing {
		t.Errorf("controller still editing after successful update")
	}

	// Cancel from a fresh edit returns to create mode without changes
	if _, err := medForm.EnterEdit(1); err != nil {
		t.Fatalf("EnterEdit(1) error: %v", err)
	}
	rec = postForm(handleMedicineCancel, "/medicines/cancel", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("cancel status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if editing, _ := medForm.State(); editing {
		t.Errorf("controller still editing after cancel")
	}
}

// TestPostMedicineDelete tests row deletion.
func TestPostMedicineDelete(t *testing.T) {
	setupTestApp(t)

	rec := postForm(handleMedicineDelete, "/medicines/delete", url.Values{"index": []string{"0"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "medicine deleted successfully") {
		t.Errorf("body missing delete confirmation")
	}
	if got := stores.Medicines.Len(); got != 1 {
		t.Errorf("medicine count = %d, want 1", got)
	}
	// The second seed shifted into slot 0
	first, _ := stores.Medicines.Get(0)
	if first.Code != "MED002" {
		t.Errorf("remaining record code = %q, want MED002", first.Code)
	}

	rec = postForm(handleMedicineDelete, "/medicines/delete", url.Values{"index": []string{"notanumber"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad index status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestPostMedicineDeletePersistFailure tests that a failed storage write on
// delete surfaces the storage-specific message, not raw error text.
func TestPostMedicineDeletePersistFailure(t *testing.T) {
	tests := []struct {
		name     string
		saveErr  error
		wantBody string
	}{
		{
			name:     "quota exceeded keeps its specific message",
			saveErr:  localstore.ErrQuotaExceeded,
			wantBody: "storage capacity exceeded, delete some records",
		},
		{
			name:     "other failures get the generic retry message",
			saveErr:  errors.New("disk I/O error"),
			wantBody: "saving failed, try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kv := setupTestApp(t)
			kv.saveErr = tt.saveErr

			rec := postForm(handleMedicineDelete, "/medicines/delete", url.Values{"index": []string{"0"}})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
			if strings.Contains(rec.Body.String(), "disk I/O error") {
				t.Errorf("internal error text leaked to the page")
			}
		})
	}
}

// TestPostCustomers tests create submissions for the customer form.
func TestPostCustomers(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantBody  string
		wantCount int
	}{
		{
			name: "valid customer is added",
			form: url.Values{
				"name":      []string{"Omar Hassan"},
				"phone":     []string{"0111222333444"},
				"email":     []string{"Omar@Example.com"},
				"insurance": []string{"MediCare Plus"},
			},
			wantBody:  "customer added successfully",
			wantCount: 3,
		},
		{
			name: "duplicate phone is rejected",
			form: url.Values{
				"name":      []string{"Omar Hassan"},
				"phone":     []string{"0123456789"},
				"email":     []string{"omar@example.com"},
				"insurance": []string{"MediCare Plus"},
			},
			wantBody:  "phone number or email already exists",
			wantCount: 2,
		},
		{
			name: "duplicate email is rejected",
			form: url.Values{
				"name":      []string{"Omar Hassan"},
				"phone":     []string{"0111222333444"},
				"email":     []string{"ahmed@example.com"},
				"insurance": []string{"MediCare Plus"},
			},
			wantBody:  "phone number or email already exists",
			wantCount: 2,
		},
		{
			name: "short phone shows a field error",
			form: url.Values{
				"name":      []string{"Omar Hassan"},
				"phone":     []string{"12345"},
				"email":     []string{"omar@example.com"},
				"insurance": []string{"MediCare Plus"},
			},
			wantBody:  "phone number must be at least 10 digits",
			wantCount: 2,
		},
		{
			name: "invalid email shows a field error",
			form: url.Values{
				"name":      []string{"Omar Hassan"},
				"phone":     []string{"0111222333444"},
				"email":     []string{"not-an-email"},
				"insurance": []string{"MediCare Plus"},
			},
			wantBody:  "enter a valid email address",
			wantCount: 2,
		},
		{
			name: "missing insurance shows a field error",
			form: url.Values{
				"name":  []string{"Omar Hassan"},
				"phone": []string{"0111222333444"},
				"email": []string{"omar@example.com"},
			},
			wantBody:  "insurance company is required",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestApp(t)
			rec := postForm(handleCustomerSubmit, "/customers", tt.form)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
			if got := stores.Customers.Len(); got != tt.wantCount {
				t.Errorf("customer count = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

// TestGetAnalyticsAPI tests the JSON counters endpoint.
func TestGetAnalyticsAPI(t *testing.T) {
	setupTestApp(t)

	req := httptest.NewRequest("GET", "/api/analytics", nil)
	rec := httptest.NewRecorder()
	handleAnalyticsAPI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got projections.InventoryAnalytics
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	// Both seeds count; Amoxicillin's 2025 expiry has passed.
	if got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
	if got.Expired != 1 {
		t.Errorf("expired = %d, want 1", got.Expired)
	}
}

// TestContactForm tests the contact page and submissions.
func TestContactForm(t *testing.T) {
	t.Run("GET renders the form", func(t *testing.T) {
		setupTestApp(t)
		req := httptest.NewRequest("GET", "/contact", nil)
		rec := httptest.NewRecorder()
		handleContact(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "Send Message") {
			t.Errorf("body missing contact form")
		}
	})

	t.Run("valid submission is stored", func(t *testing.T) {
		contacts, _ := setupTestApp(t)
		rec := postForm(handleContact, "/contact", url.Values{
			"name":    []string{"Sara"},
			"email":   []string{"sara@example.com"},
			"subject": []string{"Opening hours"},
			"message": []string{"Are you open on Friday?"},
		})
		if !strings.Contains(rec.Body.String(), "your message has been sent") {
			t.Errorf("body missing success message")
		}
		if len(contacts.saved) != 1 {
			t.Fatalf("saved messages = %d, want 1", len(contacts.saved))
		}
		if contacts.saved[0].ID == "" {
			t.Errorf("saved message has no generated ID")
		}
	})

	t.Run("invalid email shows a field error", func(t *testing.T) {
		contacts, _ := setupTestApp(t)
		rec := postForm(handleContact, "/contact", url.Values{
			"name":    []string{"Sara"},
			"email":   []string{"nope"},
			"subject": []string{"Opening hours"},
			"message": []string{"Are you open on Friday?"},
		})
		if !strings.Contains(rec.Body.String(), "enter a valid email address") {
			t.Errorf("body missing email field error")
		}
		if len(contacts.saved) != 0 {
			t.Errorf("invalid submission was stored")
		}
	})
}
