package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/signroute/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func seedDecisions(t *testing.T, s *store.Store, labels ...string) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, l := range labels {
		d := &store.Decision{Label: l, LabelIndex: i, Confidence: 0.9, Hands: 1, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := s.Decisions().Create(d); err != nil {
			t.Fatalf("failed to seed decision: %v", err)
		}
	}
}

func TestDecisionsHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewDecisionsHandler(s)

	t.Run("returns empty list when no decisions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response listDecisionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Decisions == nil || len(response.Decisions) != 0 {
			t.Errorf("expected empty decisions array, got %v", response.Decisions)
		}
	})

	seedDecisions(t, s, "hello", "thanks", "yes")

	t.Run("returns newest first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		var response listDecisionsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Decisions) != 3 {
			t.Fatalf("expected 3 decisions, got %d", len(response.Decisions))
		}
		if response.Decisions[0].Label != "yes" {
			t.Errorf("first decision = %q, want yes", response.Decisions[0].Label)
		}
		if response.Decisions[0].CreatedAt != "2026-03-01T12:00:02Z" {
			t.Errorf("created_at = %q", response.Decisions[0].CreatedAt)
		}
	})

	t.Run("honours limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/decisions?limit=2", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		var response listDecisionsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Decisions) != 2 {
			t.Errorf("expected 2 decisions, got %d", len(response.Decisions))
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		for _, q := range []string{"abc", "-1"} {
			req := httptest.NewRequest(http.MethodGet, "/api/decisions?limit="+q, nil)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected status %d, got %d", q, http.StatusBadRequest, rec.Code)
			}
		}
	})
}

func TestTranscriptsHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewTranscriptsHandler(s)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, tr := range []store.Transcript{
		{SessionID: "s1", Text: "good morning"},
		{SessionID: "s2", Text: "see you"},
		{SessionID: "s1", Text: "thank you"},
	} {
		tr.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.Transcripts().Create(&tr); err != nil {
			t.Fatalf("failed to seed transcript: %v", err)
		}
	}

	t.Run("all sessions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transcripts", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		var response listTranscriptsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Transcripts) != 3 {
			t.Fatalf("expected 3 transcripts, got %d", len(response.Transcripts))
		}
	})

	t.Run("filtered by session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transcripts?session=s1&limit=1", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		var response listTranscriptsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Transcripts) != 1 || response.Transcripts[0].Text != "thank you" {
			t.Errorf("transcripts = %+v, want newest of s1", response.Transcripts)
		}
	})
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	s := newTestStore(t)

	for name, h := range map[string]http.Handler{
		"/api/decisions":   NewDecisionsHandler(s),
		"/api/transcripts": NewTranscriptsHandler(s),
	} {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, name, nil)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: expected status %d, got %d", method, name, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	}
}
