// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// TestIdentitySalt salts voter identities in tests
const TestIdentitySalt = "test-identity-salt"

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory"
	conn, err := db.Open(context.Background(), cliparse.DatabaseSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// NewTestStore returns a SQLStore over a fresh test database
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.NewSQLStore(SetupTestDB(t), cliparse.DatabaseSQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         5000,
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  "file:test?mode=memory",
		IdentitySalt: TestIdentitySalt,
	}
}

// CreateTestPoll creates a poll with the given options, defaulting to Red/Blue
func CreateTestPoll(t *testing.T, s store.Store, question string, options ...string) *models.Poll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Red", "Blue"}
	}
	poll, err := s.CreatePoll(context.Background(), question, options)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return poll
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
