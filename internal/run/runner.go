// Package run drives the frame loop that compares tracking methods over
// a video.
package run

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/metric"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/render"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/server"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/track"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/video"
)

// ErrNoMethods is returned when no tracking method survives initialization.
var ErrNoMethods = errors.New("no valid trackers initialized")

// ErrEmptyROI is returned when region selection yields an empty rectangle.
var ErrEmptyROI = errors.New("empty region selected")

// Config wires a Runner. Source and Methods are required; everything
// else is optional.
type Config struct {
	VideoPath  string
	Source     video.Source
	Methods    []track.Method
	ROI        image.Rectangle // zero rectangle means interactive selection
	Overlay    *render.Overlay
	Store      *store.Store
	SaveFrames bool
	Hub        *server.Hub
	Metrics    *metric.Metrics
}

// Runner replays a video and records every method's estimate per frame.
type Runner struct {
	config Config

	runID       string
	totalFrames int
	survival    map[string]int
	scoreSum    map[string]float64
	scoreCount  map[string]int
	iouSum      map[string]float64
	iouCount    map[string]int
}

// New creates a Runner for the given configuration.
func New(config Config) *Runner {
	return &Runner{
		config:     config,
		survival:   make(map[string]int),
		scoreSum:   make(map[string]float64),
		scoreCount: make(map[string]int),
		iouSum:     make(map[string]float64),
		iouCount:   make(map[string]int),
	}
}

// Run executes the comparison: select a region on the first frame,
// initialize every method, then process frames until the video ends or
// the user quits. It returns the survival summary.
func (r *Runner) Run() (*Summary, error) {
	if len(r.config.Methods) == 0 {
		return nil, ErrNoMethods
	}
	if r.config.Source == nil {
		return nil, fmt.Errorf("no video source configured")
	}

	if !r.config.Source.IsOpen() {
		if err := r.config.Source.Open(); err != nil {
			return nil, err
		}
	}
	defer r.config.Source.Close()

	first, err := r.config.Source.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("could not read first frame: %w", err)
	}
	defer first.Close()

	roi := r.config.ROI
	if roi.Empty() && r.config.Overlay != nil {
		roi = r.config.Overlay.SelectROI(*first)
	}
	if roi.Empty() {
		return nil, ErrEmptyROI
	}

	active := r.initMethods(*first, roi)
	if len(active) == 0 {
		return nil, ErrNoMethods
	}

	// Method names are captured up front: a method that aborts mid-run
	// still appears in the summary with its partial counts.
	names := make([]string, 0, len(active))
	for _, m := range active {
		names = append(names, m.Name())
	}

	r.runID = uuid.NewString()
	if r.config.Store != nil {
		err := r.config.Store.Runs().Create(&store.Run{
			ID:        r.runID,
			VideoPath: r.config.VideoPath,
			Methods:   names,
			ROI:       roi,
		})
		if err != nil {
			return nil, fmt.Errorf("could not record run: %w", err)
		}
	}

	if err := r.loop(active); err != nil {
		return nil, err
	}

	summary := r.buildSummary(names)
	if err := r.persistSummary(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// initMethods initializes every method on the first frame. A method that
// rejects initialization is dropped with a warning, as the run can still
// compare the rest.
func (r *Runner) initMethods(first gocv.Mat, roi image.Rectangle) []track.Method {
	var active []track.Method
	for _, m := range r.config.Methods {
		if err := m.Init(first, roi); err != nil {
			log.Printf("could not initialize tracker %q: %v", m.Name(), err)
			m.Close()
			continue
		}
		log.Printf("initialized tracker: %s", m.Name())
		active = append(active, m)
	}
	return active
}

// loop processes frames until the stream ends or the user quits.
func (r *Runner) loop(active []track.Method) error {
	for {
		frame, err := r.config.Source.ReadFrame()
		if err != nil {
			if errors.Is(err, video.ErrEOF) {
				return nil
			}
			return err
		}

		r.totalFrames++
		start := time.Now()

		results := make(map[string]track.Result, len(active))
		next := make([]track.Method, 0, len(active))
		for _, m := range active {
			res, err := m.Update(*frame)
			if err != nil {
				// An invalid input aborts this method only; the run
				// continues with the remaining methods.
				log.Printf("tracker %q aborted: %v", m.Name(), err)
				continue
			}
			results[m.Name()] = res
			next = append(next, m)

			if !res.Lost {
				r.survival[m.Name()]++
				if res.HasScore {
					r.scoreSum[m.Name()] += res.Score
					r.scoreCount[m.Name()]++
				}
			}
		}
		active = next

		r.recordAgreement(results)
		quit := r.publish(*frame, results)
		r.observe(start, results)

		if r.config.Store != nil && r.config.SaveFrames {
			r.persistFrame(results)
		}

		frame.Close()

		if quit {
			return nil
		}
		if len(active) == 0 {
			return nil
		}
	}
}

// recordAgreement accumulates each method's IoU against the template
// method's box for frames where both hold a target.
func (r *Runner) recordAgreement(results map[string]track.Result) {
	ref, ok := results[track.MethodTemplate]
	if !ok || ref.Lost {
		return
	}

	for name, res := range results {
		if name == track.MethodTemplate || res.Lost {
			continue
		}
		r.iouSum[name] += IoU(ref.Box, res.Box)
		r.iouCount[name]++
	}
}

// publish renders the frame and fans it out to the window and the hub.
// It reports whether the user asked to quit.
func (r *Runner) publish(frame gocv.Mat, results map[string]track.Result) bool {
	if r.config.Overlay == nil && r.config.Hub == nil {
		return false
	}

	var annotated gocv.Mat
	if r.config.Overlay != nil {
		annotated = r.config.Overlay.Annotate(frame, results)
	} else {
		annotated = frame.Clone()
	}
	defer annotated.Close()

	if r.config.Hub != nil {
		r.config.Hub.PublishFrame(annotated)
		r.config.Hub.PublishUpdate(toFrameUpdate(r.totalFrames, results))
	}

	if r.config.Overlay != nil {
		return r.config.Overlay.Show(annotated)
	}
	return false
}

// observe feeds the prometheus collectors for the frame.
func (r *Runner) observe(start time.Time, results map[string]track.Result) {
	if r.config.Metrics == nil {
		return
	}

	r.config.Metrics.ObserveFrame(time.Since(start))

	lost := 0
	for name, res := range results {
		if res.Lost {
			lost++
			continue
		}
		r.config.Metrics.SetSurvival(name, r.survival[name])
		if res.HasScore {
			r.config.Metrics.SetScore(name, res.Score)
		}
	}
	r.config.Metrics.SetLost(lost)
}

// persistFrame stores every method's estimate for the current frame.
func (r *Runner) persistFrame(results map[string]track.Result) {
	for name, res := range results {
		fr := &store.FrameResult{
			FrameIndex: r.totalFrames,
			Method:     name,
			Box:        res.Box,
			Lost:       res.Lost,
		}
		if res.HasScore {
			score := res.Score
			fr.Score = &score
		}
		if err := r.config.Store.Runs().SaveFrameResult(r.runID, fr); err != nil {
			log.Printf("could not save frame result: %v", err)
		}
	}
}

// persistSummary writes the per-method summaries and closes the run record.
func (r *Runner) persistSummary(summary *Summary) error {
	if r.config.Store == nil {
		return nil
	}

	for name, ms := range summary.Methods {
		err := r.config.Store.Runs().SaveMethodResult(r.runID, &store.MethodResult{
			Method:         name,
			FramesSurvived: ms.Survived,
			MeanScore:      ms.MeanScore,
			MeanIoU:        ms.MeanIoU,
		})
		if err != nil {
			return fmt.Errorf("could not save method result: %w", err)
		}
	}

	if err := r.config.Store.Runs().Finish(r.runID, r.totalFrames); err != nil {
		return fmt.Errorf("could not finish run: %w", err)
	}
	return nil
}

// buildSummary assembles the final per-method statistics for every
// method that made it past initialization.
func (r *Runner) buildSummary(names []string) *Summary {
	summary := &Summary{
		RunID:       r.runID,
		TotalFrames: r.totalFrames,
		Methods:     make(map[string]MethodSummary),
	}

	for _, name := range names {
		summary.Order = append(summary.Order, name)

		ms := MethodSummary{Survived: r.survival[name]}
		if n := r.scoreCount[name]; n > 0 {
			mean := r.scoreSum[name] / float64(n)
			ms.MeanScore = &mean
		}
		if n := r.iouCount[name]; n > 0 {
			mean := r.iouSum[name] / float64(n)
			ms.MeanIoU = &mean
		}
		summary.Methods[name] = ms
	}

	return summary
}

// toFrameUpdate converts per-frame results into the hub's wire format.
func toFrameUpdate(frameIndex int, results map[string]track.Result) server.FrameUpdate {
	update := server.FrameUpdate{
		Frame:     frameIndex,
		Results:   make(map[string]server.BoxUpdate, len(results)),
		Timestamp: time.Now().UnixMilli(),
	}
	for name, res := range results {
		box := server.BoxUpdate{
			X: res.Box.Min.X, Y: res.Box.Min.Y,
			W: res.Box.Dx(), H: res.Box.Dy(),
			Lost: res.Lost,
		}
		if res.HasScore {
			score := res.Score
			box.Score = &score
		}
		update.Results[name] = box
	}
	return update
}
