package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateIntentDefaultsToManualCapture(t *testing.T) {
	var received ProviderIntentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ProviderIntent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret",
			Status:       "requires_capture",
		})
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, server.URL, server.URL)
	intent, err := client.CreateIntent(context.Background(), ProviderIntentRequest{
		Amount:   5000,
		Currency: "xof",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ID != "pi_123" {
		t.Errorf("intent id = %q, want pi_123", intent.ID)
	}
	if received.Capture != "manual" {
		t.Errorf("capture method = %q, want manual", received.Capture)
	}
}

func TestCreateIntentProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ProviderIntent{Error: "card_declined"})
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, server.URL, server.URL)
	_, err := client.CreateIntent(context.Background(), ProviderIntentRequest{Amount: 100, Currency: "xof"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCategory(err, CategoryProvider) {
		t.Errorf("category = %q, want provider", ErrorCategory(err))
	}
}

func TestCreateIntentHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, server.URL, server.URL)
	_, err := client.CreateIntent(context.Background(), ProviderIntentRequest{Amount: 100, Currency: "xof"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCategory(err, CategoryProvider) {
		t.Errorf("category = %q, want provider", ErrorCategory(err))
	}
}

func TestCreateIntentUnreachableEndpoint(t *testing.T) {
	client := NewStripeClient("http://127.0.0.1:1", "http://127.0.0.1:1", "http://127.0.0.1:1")
	_, err := client.CreateIntent(context.Background(), ProviderIntentRequest{Amount: 100, Currency: "xof"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCategory(err, CategoryNetwork) {
		t.Errorf("category = %q, want network", ErrorCategory(err))
	}
}

func TestCaptureAndCancel(t *testing.T) {
	var lastBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, server.URL, server.URL)

	if err := client.Capture(context.Background(), "pi_123"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if lastBody["payment_intent_id"] != "pi_123" {
		t.Errorf("capture body = %v", lastBody)
	}

	if err := client.Cancel(context.Background(), "pi_123", "listing_rejected"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if lastBody["reason"] != "listing_rejected" {
		t.Errorf("cancel body = %v", lastBody)
	}
}

func TestReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, server.URL, server.URL)
	if !client.Reachable(context.Background()) {
		t.Error("expected endpoint returning a response to count as reachable")
	}

	down := NewStripeClient("http://127.0.0.1:1", "", "")
	if down.Reachable(context.Background()) {
		t.Error("expected closed port to be unreachable")
	}
}
