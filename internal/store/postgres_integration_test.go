//go:build postgres_integration

package store

import (
	"os"
	"testing"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.Migrate(t.Context()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Try simple calls
	if _, _, err := p.ListRuns(t.Context(), "", "", 1); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if _, err := p.LatestRun(t.Context(), "ward-does-not-exist"); err != ErrNotFound && err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
}
