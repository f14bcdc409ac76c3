// Command trackcmp compares tracking methods over a region of a video.
//
// The user selects a region of interest on the first frame (or passes it
// with --roi), and every requested method then follows that region
// through the rest of the video. Each frame shows all surviving methods'
// boxes in distinct colors, and the run ends with a survival report.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/config"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/match"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/metric"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/render"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/run"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/server"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/track"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/video"
)

func main() {
	var (
		videoPath  = flag.String("video", "", "path to the input video (required)")
		configPath = flag.String("config", "", "optional YAML config file")
		methods    = flag.String("methods", "", "comma-separated methods: template,csrt,kcf,mosse")
		roiSpec    = flag.String("roi", "", "region as x,y,w,h; empty opens interactive selection")
		metricName = flag.String("metric", "", "template similarity metric: ncc, zncc, ssd, sad")
		threshold  = flag.Float64("threshold", -1, "template loss threshold in the metric's range")
		smooth     = flag.Bool("smooth", false, "smooth the template method's boxes with a Kalman filter")
		dbPath     = flag.String("db", "", "SQLite database for run results; empty disables persistence")
		saveFrames = flag.Bool("save-frames", false, "persist per-frame boxes, not just run summaries")
		serveAddr  = flag.String("serve", "", "start the preview server on this address, e.g. :8080")
		headless   = flag.Bool("headless", false, "disable the on-screen window")
	)
	flag.Parse()

	if *videoPath == "" {
		fmt.Fprintln(os.Stderr, "usage: trackcmp --video <path> [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		cfg = loaded
	}
	applyFlags(&cfg, *methods, *metricName, *threshold, *smooth,
		*dbPath, *saveFrames, *serveAddr, *headless)

	fmt.Println("trackcmp starting...")

	source := video.NewFileSource(*videoPath)
	if err := source.Open(); err != nil {
		log.Fatalf("Video error: %v", err)
	}
	defer source.Close()

	trackers, err := buildMethods(cfg, smoothInterval(source.FPS()))
	if err != nil {
		log.Fatalf("Tracker setup error: %v", err)
	}
	defer func() {
		for _, tr := range trackers {
			tr.Close()
		}
	}()

	roi, err := parseROI(*roiSpec)
	if err != nil {
		log.Fatalf("Invalid --roi: %v", err)
	}

	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Store error: %v", err)
		}
		defer st.Close()
	}

	var hub *server.Hub
	var metrics *metric.Metrics
	if cfg.ServeAddr != "" {
		hub = server.NewHub()
		metrics = metric.New()
		srv := server.New(server.Config{
			Store:   st,
			Hub:     hub,
			Metrics: metrics.Handler(),
		})
		go func() {
			log.Printf("preview server listening on %s", cfg.ServeAddr)
			if err := srv.ListenAndServe(cfg.ServeAddr); err != nil {
				log.Printf("preview server stopped: %v", err)
			}
		}()
	}

	overlay := render.New(cfg.Display)
	defer overlay.Close()

	runner := run.New(run.Config{
		VideoPath:  *videoPath,
		Source:     source,
		Methods:    trackers,
		ROI:        roi,
		Overlay:    overlay,
		Store:      st,
		SaveFrames: cfg.SaveFrames,
		Hub:        hub,
		Metrics:    metrics,
	})

	summary, err := runner.Run()
	if err != nil {
		log.Fatalf("Run error: %v", err)
	}

	fmt.Print(summary.String())
}

// applyFlags layers non-empty flag values over the file config.
func applyFlags(cfg *config.Config, methods, metricName string, threshold float64,
	smooth bool, dbPath string, saveFrames bool, serveAddr string, headless bool) {
	if methods != "" {
		cfg.Methods = methods
	}
	if metricName != "" {
		cfg.Metric = metricName
	}
	if threshold >= 0 {
		cfg.LossThreshold = threshold
	}
	if smooth {
		cfg.Smooth = true
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if saveFrames {
		cfg.SaveFrames = true
	}
	if serveAddr != "" {
		cfg.ServeAddr = serveAddr
	}
	if headless {
		cfg.Display = false
	}
}

// smoothInterval converts a frame rate into the Kalman time step.
// Files that report no usable rate fall back to 30 fps.
func smoothInterval(fps float64) float64 {
	if fps <= 0 {
		fps = 30
	}
	return 1 / fps
}

// buildMethods turns the configured method list into trackers. dt is the
// frame interval used for box smoothing. An OpenCV tracker that fails to
// construct is skipped with a warning so the comparison can proceed with
// the rest.
func buildMethods(cfg config.Config, dt float64) ([]track.Method, error) {
	names, err := track.ParseMethods(cfg.Methods)
	if err != nil {
		return nil, err
	}

	m, err := match.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	var trackers []track.Method
	for _, name := range names {
		if name == track.MethodTemplate {
			opts := []track.TemplateOption{
				track.WithMetric(m),
				track.WithLossThreshold(cfg.LossThreshold),
			}
			if cfg.Smooth {
				opts = append(opts, track.WithSmoothing(dt))
			}
			trackers = append(trackers, track.NewTemplate(opts...))
			continue
		}

		tr, err := track.NewOpenCV(name)
		if err != nil {
			log.Printf("skipping tracker %q: %v", name, err)
			continue
		}
		trackers = append(trackers, tr)
	}

	if len(trackers) == 0 {
		return nil, fmt.Errorf("no usable trackers in %q", cfg.Methods)
	}
	return trackers, nil
}

// parseROI parses "x,y,w,h" into a rectangle. Empty input returns the
// zero rectangle, which triggers interactive selection.
func parseROI(spec string) (image.Rectangle, error) {
	if spec == "" {
		return image.Rectangle{}, nil
	}

	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("want x,y,w,h, got %q", spec)
	}

	vals := make([]int, 4)
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &vals[i]); err != nil {
			return image.Rectangle{}, fmt.Errorf("bad component %q: %w", p, err)
		}
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("width and height must be positive")
	}

	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), nil
}
