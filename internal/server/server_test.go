package server

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *Hub) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	hub := NewHub()
	return New(Config{Store: s, Hub: hub}), s, hub
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body error = %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestServer_Runs(t *testing.T) {
	srv, s, _ := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	run := &store.Run{
		ID:        uuid.NewString(),
		VideoPath: "videos/sample.mp4",
		Methods:   []string{"template", "csrt"},
		ROI:       image.Rect(10, 20, 40, 60),
	}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	score := 0.9
	if err := s.Runs().SaveMethodResult(run.ID, &store.MethodResult{
		Method: "template", FramesSurvived: 42, MeanScore: &score,
	}); err != nil {
		t.Fatalf("SaveMethodResult() error = %v", err)
	}

	t.Run("List", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/runs")
		if err != nil {
			t.Fatalf("GET /api/runs error = %v", err)
		}
		defer resp.Body.Close()

		var runs []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("got %d runs, want 1", len(runs))
		}
		if runs[0]["id"] != run.ID {
			t.Errorf("id = %v, want %v", runs[0]["id"], run.ID)
		}
	})

	t.Run("Get", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/runs/" + run.ID)
		if err != nil {
			t.Fatalf("GET run error = %v", err)
		}
		defer resp.Body.Close()

		var got map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		roi, ok := got["roi"].(map[string]any)
		if !ok {
			t.Fatalf("roi missing in response: %v", got)
		}
		if roi["x"] != float64(10) || roi["w"] != float64(30) {
			t.Errorf("roi = %v, want x=10 w=30", roi)
		}
	})

	t.Run("Results", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/runs/" + run.ID + "/results")
		if err != nil {
			t.Fatalf("GET results error = %v", err)
		}
		defer resp.Body.Close()

		var results []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if len(results) != 1 || results[0]["method"] != "template" {
			t.Fatalf("results = %v, want one template row", results)
		}
		if results[0]["frames_survived"] != float64(42) {
			t.Errorf("frames_survived = %v, want 42", results[0]["frames_survived"])
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/api/runs/" + uuid.NewString())
		if err != nil {
			t.Fatalf("GET unknown run error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		resp, err := ts.Client().Post(ts.URL+"/api/runs", "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("POST /api/runs error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})
}

func TestServer_ResultsFeed(t *testing.T) {
	srv, _, hub := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/results"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	// The upgrade handshake completes asynchronously on the server.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() == 0 {
		t.Fatal("client registration did not complete in time")
	}

	score := 0.77
	hub.PublishUpdate(FrameUpdate{
		Frame: 3,
		Results: map[string]BoxUpdate{
			"template": {X: 1, Y: 2, W: 3, H: 4, Score: &score},
		},
	})

	var update FrameUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update error = %v", err)
	}
	if update.Frame != 3 {
		t.Errorf("frame = %d, want 3", update.Frame)
	}
	box, ok := update.Results["template"]
	if !ok {
		t.Fatalf("template result missing: %v", update.Results)
	}
	if box.Score == nil || *box.Score != 0.77 {
		t.Errorf("score = %v, want 0.77", box.Score)
	}
}
