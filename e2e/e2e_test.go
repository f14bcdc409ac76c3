// Package e2e exercises the full pipeline: synthetic video in, tracked
// boxes and persisted results out, served over the HTTP API.
package e2e

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/match"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/metric"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/run"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/server"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/track"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/video"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/testdata"
)

func TestFullPipeline(t *testing.T) {
	// A bright square drifting across black frames, followed with the
	// template method scored by plain NCC.
	frames := testdata.TargetSequence(8, image.Pt(40, 40), image.Pt(2, 1))
	defer testdata.CloseFrames(frames)

	s, err := store.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer s.Close()

	hub := server.NewHub()
	metrics := metric.New()

	tracker := track.NewTemplate(track.WithMetric(match.MetricNCC))
	runner := run.New(run.Config{
		VideoPath:  "synthetic.mp4",
		Source:     video.NewMockSource(frames, 30),
		Methods:    []track.Method{tracker},
		ROI:        image.Rect(40, 40, 40+testdata.TargetSize, 40+testdata.TargetSize),
		Store:      s,
		SaveFrames: true,
		Hub:        hub,
		Metrics:    metrics,
	})

	summary, err := runner.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.TotalFrames != 7 {
		t.Fatalf("TotalFrames = %d, want 7", summary.TotalFrames)
	}
	ms := summary.Methods[track.MethodTemplate]
	if ms.Survived != 7 {
		t.Errorf("Survived = %d, want 7", ms.Survived)
	}
	if ms.MeanScore == nil || *ms.MeanScore < 0.99 {
		t.Errorf("MeanScore = %v, want ~1", ms.MeanScore)
	}

	srv := httptest.NewServer(server.New(server.Config{
		Store:   s,
		Hub:     hub,
		Metrics: metrics.Handler(),
	}))
	defer srv.Close()

	t.Run("ListRuns", func(t *testing.T) {
		var runs []map[string]any
		getJSON(t, srv.URL+"/api/runs", &runs)
		if len(runs) != 1 {
			t.Fatalf("runs = %d, want 1", len(runs))
		}
		if runs[0]["id"] != summary.RunID {
			t.Errorf("id = %v, want %s", runs[0]["id"], summary.RunID)
		}
	})

	t.Run("RunResults", func(t *testing.T) {
		var results []map[string]any
		getJSON(t, fmt.Sprintf("%s/api/runs/%s/results", srv.URL, summary.RunID), &results)
		if len(results) != 1 {
			t.Fatalf("results = %d, want 1", len(results))
		}
		if results[0]["method"] != track.MethodTemplate {
			t.Errorf("method = %v", results[0]["method"])
		}
		if got := results[0]["frames_survived"].(float64); int(got) != 7 {
			t.Errorf("frames_survived = %v, want 7", got)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			t.Fatalf("GET /metrics: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	frameRows, err := s.Runs().FrameResults(summary.RunID)
	if err != nil {
		t.Fatalf("FrameResults: %v", err)
	}
	if len(frameRows) != 7 {
		t.Errorf("frame rows = %d, want 7", len(frameRows))
	}
	for _, fr := range frameRows {
		if fr.Lost {
			t.Errorf("frame %d marked lost", fr.FrameIndex)
		}
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
