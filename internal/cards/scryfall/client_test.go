package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(Options{BaseURL: url, RateLimit: 1000, Backoff: time.Millisecond})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("userAgent = %q, want %q", client.userAgent, DefaultUserAgent)
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}
}

func TestClient_GetCardByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("exact"); got != "Thassa's Oracle" {
			t.Errorf("exact = %q", got)
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "a1",
			"name": "Thassa's Oracle",
			"mana_cost": "{U}{U}",
			"cmc": 2.0,
			"type_line": "Creature — Merfolk Wizard"
		}`))
	}))
	defer server.Close()

	card, err := newTestClient(server.URL).GetCardByName(context.Background(), "Thassa's Oracle")
	if err != nil {
		t.Fatalf("GetCardByName() error = %v", err)
	}
	if card.ManaCost != "{U}{U}" {
		t.Errorf("ManaCost = %q, want {U}{U}", card.ManaCost)
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"object":"error","code":"not_found","status":404,"details":"No card found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCardByName(context.Background(), "Nonexistent")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","code":"bad_request","status":400,"details":"Invalid query"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCardByName(context.Background(), "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != 400 {
		t.Errorf("Status = %d, want 400", apiErr.Status)
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"name":"Brainstorm","mana_cost":"{U}"}`))
	}))
	defer server.Close()

	card, err := newTestClient(server.URL).GetCardByName(context.Background(), "Brainstorm")
	if err != nil {
		t.Fatalf("GetCardByName() error = %v", err)
	}
	if card.Name != "Brainstorm" {
		t.Errorf("Name = %q", card.Name)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetCardByName(context.Background(), "Brainstorm")
	if err == nil {
		t.Fatal("Expected error after retries")
	}
	if calls.Load() != maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls.Load(), maxRetries+1)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(server.URL).GetCardByName(ctx, "Brainstorm"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestClient_GetCardsByNames(t *testing.T) {
	var batches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cards/collection" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		batches.Add(1)

		var req collectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Identifiers) > MaxBatchSize {
			t.Errorf("batch of %d identifiers", len(req.Identifiers))
		}

		var resp collectionResponse
		for _, id := range req.Identifiers {
			if id.Name == "Missing Card" {
				resp.NotFound = append(resp.NotFound, id)
				continue
			}
			resp.Data = append(resp.Data, Card{Name: id.Name, ManaCost: "{U}"})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	names := make([]string, 0, 80)
	for i := 0; i < 79; i++ {
		names = append(names, "Card")
	}
	names = append(names, "Missing Card")

	cards, notFound, err := newTestClient(server.URL).GetCardsByNames(context.Background(), names)
	if err != nil {
		t.Fatalf("GetCardsByNames() error = %v", err)
	}
	if len(cards) != 79 {
		t.Errorf("cards = %d, want 79", len(cards))
	}
	if len(notFound) != 1 || notFound[0] != "Missing Card" {
		t.Errorf("notFound = %v", notFound)
	}
	if batches.Load() != 2 {
		t.Errorf("batches = %d, want 2", batches.Load())
	}
}

func TestCard_CastCost(t *testing.T) {
	tests := []struct {
		name string
		card Card
		want string
	}{
		{"printed", Card{ManaCost: "{B}{B}{B}"}, "{B}{B}{B}"},
		{"first face", Card{Faces: []CardFace{{ManaCost: "{1}{U}"}, {ManaCost: "{2}{R}"}}}, "{1}{U}"},
		{"land", Card{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.CastCost(); got != tt.want {
				t.Errorf("CastCost() = %q, want %q", got, tt.want)
			}
		})
	}
}
