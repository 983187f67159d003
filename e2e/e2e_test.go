package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/signroute/internal/app"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/fixtures"
	"github.com/ayusman/signroute/internal/server"
	"github.com/ayusman/signroute/internal/store"
)

type recognition struct {
	Prediction *string `json:"prediction"`
	Reason     string  `json:"reason"`
}

func setup(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cls, err := fixtures.Adapter()
	if err != nil {
		t.Fatalf("fixtures.Adapter() error = %v", err)
	}

	a, err := app.New(app.Config{
		Classifier: cls,
		Detector:   detector.NewMockDetector(),
		Store:      st,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(a.Stop)

	ts := httptest.NewServer(server.New(server.Config{App: a, Store: st}))
	t.Cleanup(ts.Close)
	return ts, st
}

func postLandmarks(t *testing.T, ts *httptest.Server, body []byte) recognition {
	t.Helper()

	resp, err := ts.Client().Post(ts.URL+"/api/landmarks", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/landmarks error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var r recognition
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return r
}

func TestE2E_SessionOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	ts, st := setup(t)

	frames, err := fixtures.SessionFrames("hello.jsonl")
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, hands := range frames {
		body, err := detector.EncodeHands(hands)
		if err != nil {
			t.Fatal(err)
		}
		r := postLandmarks(t, ts, body)
		if r.Prediction == nil {
			got = append(got, "-")
		} else {
			got = append(got, *r.Prediction)
		}
	}

	want := []string{"-", "-", "A", "-", "-", "A", "A", "A", "B"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("predictions mismatch (-want +got):\n%s", diff)
	}

	t.Run("HistoryRecordsLabelChanges", func(t *testing.T) {
		decisions, err := st.Decisions().List(10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		var labels []string
		for _, d := range decisions {
			labels = append(labels, d.Label)
		}
		// Newest first. The empty frame re-arms recording, so A is stored twice.
		if diff := cmp.Diff([]string{"B", "A", "A"}, labels); diff != "" {
			t.Errorf("stored labels mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ResetClearsWindow", func(t *testing.T) {
		resp, err := ts.Client().Post(ts.URL+"/api/reset", "application/json", nil)
		if err != nil {
			t.Fatalf("POST /api/reset error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("reset status = %d", resp.StatusCode)
		}

		body, _ := detector.EncodeHands([]detector.HandLandmarks{fixtures.Hand(fixtures.WristC)})
		if r := postLandmarks(t, ts, body); r.Prediction != nil || r.Reason != "no_majority" {
			t.Errorf("first frame after reset = %+v, want no_majority", r)
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after recognition")
		}
	})
}
