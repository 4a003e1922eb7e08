// Package web wires the HTTP surface: marketing pages, the registration
// demo (medicine and customer collections), and the contact form.
package web

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"curapharm/internal/adapters/email"
	"curapharm/internal/adapters/http/middleware"
	contactStore "curapharm/internal/adapters/storage/contact"
	customerStore "curapharm/internal/adapters/storage/customer"
	medicineStore "curapharm/internal/adapters/storage/medicine"
	"curapharm/internal/application/forms"
	"curapharm/internal/config"
	customerDomain "curapharm/internal/domain/customer"
	medicineDomain "curapharm/internal/domain/medicine"
	"curapharm/internal/domain/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	Medicines *medicineStore.Store
	Customers *customerStore.Store
	Contacts  contactStore.Store
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global site configuration (set by NewMux)
var siteCfg *config.Config

// homeHTML is the marketing page body, rendered from markdown at startup.
var homeHTML string

// Form controllers, one per collection (set by NewMux)
var (
	medForm  *forms.Controller[medicineDomain.Input, medicineDomain.Medicine]
	custForm *forms.Controller[customerDomain.Input, customerDomain.Customer]
)

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from string) {
	emailSender = sender
	emailFromAddress = from
}

// loadCSRFKey decodes the configured CSRF secret (hex-encoded, 32 bytes).
// In production the key MUST be set. In development a random key is
// generated per startup.
func loadCSRFKey(cfg *config.Config) []byte {
	if cfg.CSRFKey != "" {
		key, err := hex.DecodeString(cfg.CSRFKey)
		if err != nil || len(key) != 32 {
			log.Fatal("CURAPHARM_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if cfg.IsProduction() {
		log.Fatal("CURAPHARM_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set CURAPHARM_CSRF_KEY for production.")
	return key
}

// initApp sets the package globals and builds both form controllers.
// Split out from NewMux so handler tests can wire the app without the
// middleware stack.
func initApp(cfg *config.Config, s *Stores, homeMarkdown string) {
	stores = s
	siteCfg = cfg
	homeHTML = renderMarkdown(homeMarkdown)

	medForm = forms.New(stores.Medicines,
		func(in medicineDomain.Input) validation.FieldErrors {
			return medicineDomain.Validate(in, medicineDomain.Today())
		},
		medicineDomain.FromInput,
		forms.Messages{
			CreateTitle: "Add New Medicine",
			EditTitle:   "Edit Medicine",
			Added:       "medicine added successfully",
			Updated:     "medicine updated successfully",
			Duplicate:   "medicine code already exists",
		})
	custForm = forms.New(stores.Customers,
		customerDomain.Validate,
		customerDomain.FromInput,
		forms.Messages{
			CreateTitle: "Add New Customer",
			EditTitle:   "Edit Customer",
			Added:       "customer added successfully",
			Updated:     "customer updated successfully",
			Duplicate:   "phone number or email already exists",
		})
}

// NewMux wires HTTP handlers for the app. homeMarkdown is the marketing page
// content; it is rendered once.
func NewMux(cfg *config.Config, s *Stores, homeMarkdown string) http.Handler {
	initApp(cfg, s, homeMarkdown)

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey(cfg)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	trusted := append([]string{"localhost:8080", "127.0.0.1:8080"}, middleware.ExtraTrustedOrigins...)

	// Apply middleware: RequestLog -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.RequestLog,
		middleware.CSRF(csrfKey, trusted, cfg.IsProduction()),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
	)
}

// registerRoutes binds all paths on the mux.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/registration", handleRegistration)

	mux.HandleFunc("/medicines", handleMedicineSubmit)
	mux.HandleFunc("/medicines/edit", handleMedicineEdit)
	mux.HandleFunc("/medicines/cancel", handleMedicineCancel)
	mux.HandleFunc("/medicines/delete", handleMedicineDelete)

	mux.HandleFunc("/customers", handleCustomerSubmit)
	mux.HandleFunc("/customers/edit", handleCustomerEdit)
	mux.HandleFunc("/customers/cancel", handleCustomerCancel)
	mux.HandleFunc("/customers/delete", handleCustomerDelete)

	mux.HandleFunc("/contact", handleContact)

	mux.HandleFunc("/api/analytics", handleAnalyticsAPI)
}
