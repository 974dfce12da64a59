// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the single point where the database schema is loaded for
// tests. Setup uses db.GetSchemaSQL() so tests run against the authoritative
// schema. Do not declare tables in test files; use setupTestDB() and the
// seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/pinpoint/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedTarget inserts a straight-down target and returns its ID.
func seedTarget(t *testing.T, db *sql.DB, id string, ap, ml, dv float64) string {
	t.Helper()
	if id == "" {
		id = "TGT-001"
	}
	_, err := db.Exec("INSERT INTO targets (id, name, ap, ml, dv, yaw, pitch, roll) VALUES (?, ?, ?, ?, ?, 0, 90, 0)",
		id, "Test Target", ap, ml, dv)
	if err != nil {
		t.Fatalf("failed to seed target: %v", err)
	}
	return id
}

// seedProbe inserts a probe with an empty data document and returns its ID.
func seedProbe(t *testing.T, db *sql.DB, id, manipulatorID string) string {
	t.Helper()
	if id == "" {
		id = "PROBE-001"
	}
	if manipulatorID == "" {
		manipulatorID = "1"
	}
	_, err := db.Exec("INSERT INTO probes (id, name, manipulator_id, data) VALUES (?, ?, ?, ?)",
		id, "Test Probe", manipulatorID, "{}")
	if err != nil {
		t.Fatalf("failed to seed probe: %v", err)
	}
	return id
}
