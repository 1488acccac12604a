package tms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testBaseURL = "https://api.trainingmanager.test"

func TestNew(t *testing.T) {
	client := New(testBaseURL)

	if client.BaseURL != testBaseURL {
		t.Errorf("Expected BaseURL to be %q, got %q", testBaseURL, client.BaseURL)
	}
	if client.HTTP == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.BearerToken != "" {
		t.Errorf("Expected BearerToken to be empty, got %q", client.BearerToken)
	}
}

func TestListRegistrationsValidation(t *testing.T) {
	client := New(testBaseURL)

	_, err := client.ListRegistrations(context.Background(), "", 10)
	if err == nil {
		t.Fatal("Expected error when BearerToken is empty, got nil")
	}

	expectedErr := "tms: missing bearer token (call Authenticate first)"
	if err.Error() != expectedErr {
		t.Errorf("Expected error message %q, got %q", expectedErr, err.Error())
	}
}

func TestUpdateRegistrationValidation(t *testing.T) {
	client := New(testBaseURL)
	client.BearerToken = "test-token"

	if err := client.UpdateRegistration(context.Background(), "", "<diff></diff>"); err == nil {
		t.Error("Expected error for missing registration id, got nil")
	}
	if err := client.UpdateRegistration(context.Background(), "reg-1", "  "); err == nil {
		t.Error("Expected error for empty patch, got nil")
	}
}

func TestAuthenticateWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/v1/token" {
			t.Errorf("Expected request to '/oauth/v1/token', got %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Basic dGVzdC1iYXNpYw==" {
			t.Errorf("Expected Authorization header 'Basic dGVzdC1iYXNpYw==', got %q", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"data": {
				"access_token": "test-token",
				"expires_in": 3600,
				"scope": "all",
				"token_type": "Bearer"
			}
		}`))
	}))
	defer server.Close()

	client := New(server.URL)

	err := client.Authenticate(context.Background(), "dGVzdC1iYXNpYw==", AuthRequest{
		GrantType: "password",
		Username:  "test-user",
		Password:  "test-pass",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.BearerToken != "test-token" {
		t.Errorf("Expected BearerToken to be 'test-token', got %q", client.BearerToken)
	}
}

func TestListRegistrationsPageWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/registrations" {
			t.Errorf("Expected request to '/api/v1/registrations', got %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("courseRef"); got != "SAFE101" {
			t.Errorf("Expected courseRef=SAFE101, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"registrationId": "reg-1", "lmsCourseId": 7, "lmsUserId": 3, "grade": "80"}
			],
			"meta": {"pageStartIndex": 0, "pageTotalCount": 1, "totalCount": 1}
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	client.BearerToken = "test-token"

	rows, meta, err := client.ListRegistrationsPage(context.Background(), "SAFE101", 0, 50)
	if err != nil {
		t.Fatalf("ListRegistrationsPage() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["registrationId"] != "reg-1" {
		t.Errorf("registrationId = %v, want reg-1", rows[0]["registrationId"])
	}
	if meta.TotalCount != 1 {
		t.Errorf("meta.TotalCount = %d, want 1", meta.TotalCount)
	}
}

func TestUpdateRegistrationWithMockServer(t *testing.T) {
	const patch = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<diff><add sel="Registration"><Grade>80</Grade></add></diff>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/registrations/reg-1" {
			t.Errorf("Expected path '/api/v1/registrations/reg-1', got %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/xml-patch+xml" {
			t.Errorf("Expected xml-patch content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<Grade>80</Grade>") {
			t.Errorf("Expected patch body, got %q", string(body))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)
	client.BearerToken = "test-token"

	if err := client.UpdateRegistration(context.Background(), "reg-1", patch); err != nil {
		t.Fatalf("UpdateRegistration() error = %v", err)
	}
}
