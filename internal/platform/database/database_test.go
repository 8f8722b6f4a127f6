package database

import (
	"context"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/sbmwhylt/wlt-team-space/internal/config"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
	if _, err := Open(context.Background(), config.DatabaseConfig{DSN: "postgres://localhost/x"}); err == nil {
		t.Fatal("expected error for empty driver")
	}
}

func TestConfigureAppliesPoolLimits(t *testing.T) {
	raw, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	Configure(db, config.DatabaseConfig{MaxOpenConns: 7})
	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("max open = %d, want 7", got)
	}
}

func TestOpenIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres", DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()
}
