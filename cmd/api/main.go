package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/shopspring/decimal"

	"claimflow/auth"
	"claimflow/claim"
	"claimflow/db"
	"claimflow/docstore"
)

func main() {
	ctx := context.Background()

	var store claim.Store
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		pool, err := db.NewPool(ctx, connString)
		if err != nil {
			log.Fatalf("bootstrap database pool: %v", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		store = claim.NewPGStore(pool)
	} else {
		log.Printf("DATABASE_URL not set; claims are kept in memory only")
		store = claim.NewMemoryStore()
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	docs := docstore.NewDir(uploadDir)

	limits := claim.DefaultLimits()
	limits.MaxHours = envDecimal("CLAIM_MAX_HOURS", limits.MaxHours)
	limits.MaxRate = envDecimal("CLAIM_MAX_RATE", limits.MaxRate)

	claimService := claim.NewService(store, docs, limits)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret"
		log.Printf("JWT_SECRET not set; using insecure development secret")
	}
	sessionService, err := auth.NewService(jwtSecret, os.Getenv("REVIEWER_PASSPHRASE"))
	if err != nil {
		log.Fatalf("bootstrap session service: %v", err)
	}

	server := NewServer(claimService, sessionService)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("claim api listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, server.Handler()))
}

func envDecimal(name string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatalf("parse %s: %v", name, err)
	}
	return d
}
