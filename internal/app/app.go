// Package app wires the recognition pipeline to its frame sources and sinks:
// camera capture, the frame worker, UI events, history, MQTT and speech.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signroute/internal/capture"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/events"
	"github.com/ayusman/signroute/internal/pipeline"
	"github.com/ayusman/signroute/internal/speech"
	"github.com/ayusman/signroute/internal/store"
	"github.com/ayusman/signroute/internal/worker"
)

// Capture timing constants.
const (
	// IdleFPS is the frame rate while nothing moves in front of the camera.
	IdleFPS = 5
	// ActiveFPS is the frame rate while the activity gate is open.
	ActiveFPS = 15
)

// ErrNotRunning is returned for work submitted while the app is stopped.
var ErrNotRunning = errors.New("recognition not running")

// ScanningText is the debug text sent for frames that produced no label.
const ScanningText = "Scanning... (no hand or low confidence)"

// Publisher forwards decisions and transcripts off-device.
type Publisher interface {
	PublishPrediction(pred pipeline.Prediction) error
	PublishTranscript(sessionID, text string) error
}

// Config holds configuration options for the application.
type Config struct {
	// Classifier is required.
	Classifier pipeline.Classifier
	// Detector finds hands in frames. When nil the MediaPipe detector is
	// tried, then the mock detector.
	Detector detector.Detector
	// Camera, when set, is read by the capture loop started by Start.
	Camera capture.Source
	// MotionThreshold enables the activity gate when > 0: the percentage of
	// pixels that must change for the camera to switch to ActiveFPS.
	MotionThreshold float64
	// Store records decisions and transcripts. Optional.
	Store *store.Store
	// Hub receives UI events. One is created when nil.
	Hub *events.Hub
	// Publisher forwards decisions and transcripts. Optional.
	Publisher Publisher
	// Recognizer backs the speech session. Optional.
	Recognizer speech.Recognizer
	// QueueSize bounds frames waiting for the worker.
	QueueSize int
	Logger    *slog.Logger
}

// Stats counts frames seen by the app.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Dropped   uint64 `json:"dropped"`
	Decided   uint64 `json:"decided"`
	Failed    uint64 `json:"failed"`
}

// App is the main application that orchestrates recognition.
type App struct {
	config   Config
	logger   *slog.Logger
	detector detector.Detector
	pipeline *pipeline.Pipeline
	hub      *events.Hub
	speech   *speech.Session
	gate     *capture.ActivityGate

	// touched only on the worker goroutine
	lastLabel string

	mu          sync.RWMutex
	worker      *worker.Worker // replaced on every Start
	enabled     bool
	running     bool
	stopCh      chan struct{}
	loopDone    chan struct{}
	last        pipeline.Prediction
	lastAt      time.Time
	onDecisions []func(pipeline.Prediction)

	submitted atomic.Uint64
	dropped   atomic.Uint64
	decided   atomic.Uint64
	failed    atomic.Uint64
}

// New creates a new App instance with the given configuration. It fails when
// the classifier is not loaded.
func New(config Config) (*App, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	det := config.Detector
	if det == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger); err == nil {
			det = mp
			logger.Info("using MediaPipe hand detection")
		} else {
			logger.Warn("MediaPipe not available, using mock detector", "error", err)
			det = detector.NewMockDetector()
		}
	}

	p, err := pipeline.New(det, config.Classifier)
	if err != nil {
		return nil, err
	}

	hub := config.Hub
	if hub == nil {
		hub = events.NewHub()
	}

	a := &App{
		config:   config,
		logger:   logger,
		detector: det,
		pipeline: p,
		hub:      hub,
		enabled:  true,
		last:     pipeline.Prediction{Index: -1, LabelIndex: -1},
	}

	a.speech = speech.NewSession(config.Recognizer, a.handleHypothesis, logger)

	if config.MotionThreshold > 0 {
		a.gate = capture.NewActivityGate(config.MotionThreshold, capture.DefaultHold)
	}

	return a, nil
}

// Start launches the frame worker and, when a camera is configured, the
// capture loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if cam := a.config.Camera; cam != nil {
		if err := cam.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		if a.gate != nil {
			cam.SetFPS(IdleFPS)
		}
		a.stopCh = make(chan struct{})
		a.loopDone = make(chan struct{})
		go a.runCapture(a.stopCh, a.loopDone)
	}

	// A stopped worker cannot be restarted; each run gets its own.
	a.worker = worker.New(worker.Config{
		QueueSize: a.config.QueueSize,
		Logger:    a.logger,
		OnResult:  a.handleResult,
	})
	a.worker.Start()
	a.running = true

	a.logger.Info("recognition started", "camera", a.config.Camera != nil, "labels", len(a.pipeline.Labels()))
	return nil
}

// Stop halts capture and speech, drains the worker and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, loopDone := a.stopCh, a.loopDone
	a.stopCh, a.loopDone = nil, nil
	w := a.worker
	a.worker = nil
	a.running = false
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-loopDone
	}

	a.speech.Stop()
	if w != nil {
		w.Stop()
	}

	if cam := a.config.Camera; cam != nil {
		if err := cam.Close(); err != nil {
			a.logger.Warn("error closing camera", "error", err)
		}
	}
	if a.gate != nil {
		a.gate.Close()
	}
	if err := a.detector.Close(); err != nil {
		a.logger.Warn("error closing detector", "error", err)
	}

	a.logger.Info("recognition stopped")
}

// SubmitFrame queues frame for recognition. The app takes ownership of frame
// and closes it, including when the submission is refused.
func (a *App) SubmitFrame(frame *gocv.Mat) (<-chan worker.Result, error) {
	ch, err := a.submit(func() (pipeline.Prediction, error) {
		defer frame.Close()
		return a.pipeline.ProcessFrame(frame)
	})
	if err != nil {
		frame.Close()
	}
	return ch, err
}

// SubmitHands queues already-detected hands for recognition.
func (a *App) SubmitHands(hands []detector.HandLandmarks) (<-chan worker.Result, error) {
	return a.submit(func() (pipeline.Prediction, error) {
		return a.pipeline.ProcessHands(hands)
	})
}

// currentWorker returns the worker of the current run, or ErrNotRunning.
func (a *App) currentWorker() (*worker.Worker, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running || a.worker == nil {
		return nil, ErrNotRunning
	}
	return a.worker, nil
}

func (a *App) submit(task worker.Task) (<-chan worker.Result, error) {
	w, err := a.currentWorker()
	if err != nil {
		return nil, err
	}
	ch, err := w.Submit(task)
	switch {
	case err == nil:
		a.submitted.Add(1)
	case errors.Is(err, worker.ErrQueueFull):
		a.dropped.Add(1)
	}
	return ch, err
}

// Reset clears the vote window. It runs on the worker ahead of any queued
// frames and waits until it has happened. A busy frame queue delays it
// rather than refusing it.
func (a *App) Reset(ctx context.Context) error {
	w, err := a.currentWorker()
	if err != nil {
		return err
	}
	ch, err := w.SubmitControl(ctx, func() (pipeline.Prediction, error) {
		a.pipeline.Reset()
		a.lastLabel = ""
		a.mu.Lock()
		a.last = pipeline.Prediction{Index: -1, LabelIndex: -1}
		a.lastAt = time.Time{}
		a.mu.Unlock()
		return pipeline.Prediction{Index: -1, LabelIndex: -1}, nil
	})
	if err != nil {
		return err
	}

	select {
	case res := <-ch:
		if res.Err == nil {
			a.logger.Info("vote window reset")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleResult runs on the worker goroutine after every task.
func (a *App) handleResult(res worker.Result) {
	if res.Err != nil {
		a.failed.Add(1)
		return
	}

	pred := res.Prediction
	if pred.Reason == "" {
		// control task such as Reset
		return
	}

	if !pred.Decided() {
		if pred.Reason == pipeline.ReasonNoHands {
			a.lastLabel = ""
		}
		a.hub.Publish(events.Event{
			Method:     events.MethodDebug,
			Reason:     string(pred.Reason),
			Confidence: pred.Confidence,
			Text:       ScanningText,
		})
		return
	}

	a.decided.Add(1)
	a.hub.Publish(events.Event{
		Method:     events.MethodPrediction,
		Label:      pred.Label,
		Confidence: pred.Confidence,
		Reason:     string(pred.Reason),
	})

	a.mu.Lock()
	a.last = pred
	a.lastAt = time.Now()
	a.mu.Unlock()

	if pred.Label == a.lastLabel {
		return
	}
	a.lastLabel = pred.Label
	a.logger.Info("sign recognized", "label", pred.Label, "confidence", pred.Confidence, "hands", pred.Hands)

	a.recordDecision(pred)
}

// recordDecision persists and forwards a newly stabilized label.
func (a *App) recordDecision(pred pipeline.Prediction) {
	if s := a.config.Store; s != nil {
		err := s.Decisions().Create(&store.Decision{
			Label:      pred.Label,
			LabelIndex: pred.LabelIndex,
			Confidence: float64(pred.Confidence),
			Hands:      pred.Hands,
		})
		if err != nil {
			a.logger.Error("failed to store decision", "label", pred.Label, "error", err)
		}
	}

	if pub := a.config.Publisher; pub != nil {
		if err := pub.PublishPrediction(pred); err != nil {
			a.logger.Warn("failed to publish decision", "label", pred.Label, "error", err)
		}
	}

	a.mu.RLock()
	callbacks := a.onDecisions
	a.mu.RUnlock()
	for _, cb := range callbacks {
		cb(pred)
	}
}

// OnDecision registers cb to be called, on the worker goroutine, whenever
// the stabilized label changes.
func (a *App) OnDecision(cb func(pipeline.Prediction)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onDecisions = append(a.onDecisions, cb)
}

// SetEnabled pauses or resumes the capture loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether capture is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether Start has been called without a matching Stop.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Last returns the most recent decided prediction and when it was made. The
// time is zero if nothing has been decided since start or the last Reset.
func (a *App) Last() (pipeline.Prediction, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.lastAt
}

// Stats returns frame counters.
func (a *App) Stats() Stats {
	return Stats{
		Submitted: a.submitted.Load(),
		Dropped:   a.dropped.Load(),
		Decided:   a.decided.Load(),
		Failed:    a.failed.Load(),
	}
}

// Labels returns the label set.
func (a *App) Labels() []string {
	return a.pipeline.Labels()
}

// Hub returns the event hub.
func (a *App) Hub() *events.Hub {
	return a.hub
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}
