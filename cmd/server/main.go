package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	_ "modernc.org/sqlite"

	emailPkg "curapharm/internal/adapters/email"
	web "curapharm/internal/adapters/http"
	"curapharm/internal/adapters/storage"
	contactStorePkg "curapharm/internal/adapters/storage/contact"
	customerStorePkg "curapharm/internal/adapters/storage/customer"
	"curapharm/internal/adapters/storage/localstore"
	medicineStorePkg "curapharm/internal/adapters/storage/medicine"
	"curapharm/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load(envOrDefault("CURAPHARM_CONFIG", "site.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database with WAL mode and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	kv := localstore.New(db, cfg.QuotaBytes)
	medicines := medicineStorePkg.NewStore(kv)
	customers := customerStorePkg.NewStore(kv)
	stores := &web.Stores{
		Medicines: medicines,
		Customers: customers,
		Contacts:  contactStorePkg.NewSQLiteStore(db),
	}

	// Seed both collections on first run; corrupt persisted data also falls
	// back to seeds and surfaces a one-time warning on the page.
	ctx := context.Background()
	if err := medicines.Initialize(ctx); err != nil {
		log.Fatalf("failed to load medicines: %v", err)
	}
	if err := customers.Initialize(ctx); err != nil {
		log.Fatalf("failed to load customers: %v", err)
	}

	homeMarkdown, err := os.ReadFile(cfg.ContentPath)
	if err != nil {
		log.Fatalf("failed to read content file %s: %v", cfg.ContentPath, err)
	}

	// Configure email sender
	emailFrom := envOrDefault("CURAPHARM_RESEND_FROM", "CuraPharm <noreply@curapharm.example>")
	if cfg.ResendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(cfg.ResendKey, emailFrom), emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), emailFrom)
		if cfg.IsProduction() {
			log.Println("WARNING: CURAPHARM_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set CURAPHARM_RESEND_KEY for real delivery)")
		}
	}

	handler := web.NewMux(cfg, stores, string(homeMarkdown))

	log.Printf("%s %s listening on %s", cfg.SiteName, version, cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
